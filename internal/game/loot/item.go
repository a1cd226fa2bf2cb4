// Package loot defines the item catalog and the rarity-weighted loot roll.
package loot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rarity grades an item. Higher rarity means a smaller drop quantity.
type Rarity string

const (
	Common   Rarity = "common"
	Uncommon Rarity = "uncommon"
	Rare     Rarity = "rare"
	Epic     Rarity = "epic"
)

// Valid reports whether r is a known rarity.
func (r Rarity) Valid() bool {
	switch r {
	case Common, Uncommon, Rare, Epic:
		return true
	}
	return false
}

// Kind says what an item does when used.
type Kind string

const (
	// KindCapture items are thrown at a wild creature; Potency raises the capture chance.
	KindCapture Kind = "capture"
	// KindHeal items restore Potency hit points to a party creature.
	KindHeal Kind = "heal"
	// KindTrinket items have no combat use.
	KindTrinket Kind = "trinket"
)

// Item is an immutable catalog entry.
type Item struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
	Kind        Kind   `yaml:"kind" json:"kind"`
	Rarity      Rarity `yaml:"rarity" json:"rarity"`
	Potency     int    `yaml:"potency" json:"potency"`
}

// Validate checks the item invariants.
func (it *Item) Validate() error {
	if it.ID == "" {
		return fmt.Errorf("item: id must not be empty")
	}
	if it.Name == "" {
		return fmt.Errorf("item %q: name must not be empty", it.ID)
	}
	switch it.Kind {
	case KindCapture, KindHeal, KindTrinket:
	default:
		return fmt.Errorf("item %q: kind must be one of [capture, heal, trinket], got %q", it.ID, it.Kind)
	}
	if !it.Rarity.Valid() {
		return fmt.Errorf("item %q: unknown rarity %q", it.ID, it.Rarity)
	}
	if it.Potency < 0 {
		return fmt.Errorf("item %q: potency must be >= 0, got %d", it.ID, it.Potency)
	}
	if it.Kind == KindHeal && it.Potency == 0 {
		return fmt.Errorf("item %q: heal items need a positive potency", it.ID)
	}
	return nil
}

// LoadItemsFromBytes parses a YAML document with a top-level `items:` list.
func LoadItemsFromBytes(data []byte) ([]*Item, error) {
	var doc struct {
		Items []*Item `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing item YAML: %w", err)
	}
	for _, it := range doc.Items {
		if err := it.Validate(); err != nil {
			return nil, err
		}
	}
	return doc.Items, nil
}

// LoadItems reads every *.yaml file in dir.
func LoadItems(dir string) ([]*Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading item dir %q: %w", dir, err)
	}
	var out []*Item
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		items, err := LoadItemsFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		out = append(out, items...)
	}
	return out, nil
}

// Catalog indexes items by ID. It is read-only after construction.
type Catalog struct {
	byID map[string]*Item
	all  []*Item
}

// NewCatalog builds a Catalog, rejecting duplicate IDs.
func NewCatalog(items []*Item) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*Item, len(items))}
	for _, it := range items {
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("item %q registered twice", it.ID)
		}
		c.byID[it.ID] = it
		c.all = append(c.all, it)
	}
	sort.Slice(c.all, func(i, j int) bool { return c.all[i].ID < c.all[j].ID })
	return c, nil
}

// Get returns the item with id.
func (c *Catalog) Get(id string) (*Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}

// All returns every item sorted by ID.
func (c *Catalog) All() []*Item {
	return c.all
}

// Pool resolves ids to items. An empty ids list selects the whole catalog.
//
// Postcondition: Returns an error naming the first unknown id.
func (c *Catalog) Pool(ids []string) ([]*Item, error) {
	if len(ids) == 0 {
		return c.all, nil
	}
	pool := make([]*Item, 0, len(ids))
	for _, id := range ids {
		it, ok := c.byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown item %q", id)
		}
		pool = append(pool, it)
	}
	return pool, nil
}
