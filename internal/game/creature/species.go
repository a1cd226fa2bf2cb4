// Package creature defines creature species, the level-scaled stat block
// derived from them, and the creatures a player owns.
package creature

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/basecamp/internal/game/dice"
)

// DefaultDamage is the damage expression used when a species does not name one.
const DefaultDamage = "1d6"

// Species is an immutable catalog entry loaded from YAML.
type Species struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description,omitempty"`
	BaseStr     int      `yaml:"base_str" json:"baseStr"`
	BaseDex     int      `yaml:"base_dex" json:"baseDex"`
	BaseWis     int      `yaml:"base_wis" json:"baseWis"`
	Tags        []string `yaml:"tags" json:"tags,omitempty"`
	Rarity      string   `yaml:"rarity" json:"rarity,omitempty"`
	// Damage is the dice expression rolled on a hit, e.g. "1d6" or "1d8".
	Damage string `yaml:"damage" json:"damage,omitempty"`
}

// Validate checks that the species satisfies basic invariants.
//
// Postcondition: Returns nil iff ID and Name are non-empty, every base stat is
// in [1, 30], and Damage (when set) parses as a dice expression.
func (s *Species) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("species: id must not be empty")
	}
	if s.Name == "" {
		return fmt.Errorf("species %q: name must not be empty", s.ID)
	}
	for name, v := range map[string]int{"base_str": s.BaseStr, "base_dex": s.BaseDex, "base_wis": s.BaseWis} {
		if v < 1 || v > 30 {
			return fmt.Errorf("species %q: %s must be in [1, 30], got %d", s.ID, name, v)
		}
	}
	if s.Damage != "" {
		if _, err := dice.Parse(s.Damage); err != nil {
			return fmt.Errorf("species %q: %w", s.ID, err)
		}
	}
	return nil
}

// HasTag reports whether the species carries tag.
func (s *Species) HasTag(tag string) bool {
	return slices.Contains(s.Tags, tag)
}

// DamageExpr returns the parsed damage expression.
//
// Precondition: s has passed Validate.
func (s *Species) DamageExpr() dice.Expression {
	if s.Damage == "" {
		return dice.MustParse(DefaultDamage)
	}
	return dice.MustParse(s.Damage)
}

// LoadSpeciesFromBytes parses one or more species from a YAML document
// holding either a single species or a top-level `species:` list.
func LoadSpeciesFromBytes(data []byte) ([]*Species, error) {
	var doc struct {
		Species []*Species `yaml:"species"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing species YAML: %w", err)
	}
	if len(doc.Species) == 0 {
		var single Species
		if err := yaml.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("parsing species YAML: %w", err)
		}
		doc.Species = []*Species{&single}
	}
	for _, s := range doc.Species {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return doc.Species, nil
}

// LoadSpecies reads all *.yaml files in dir.
//
// Postcondition: Returns every species or an error on the first parse or
// validation failure.
func LoadSpecies(dir string) ([]*Species, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading species dir %q: %w", dir, err)
	}
	var out []*Species
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		species, err := LoadSpeciesFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		out = append(out, species...)
	}
	return out, nil
}

// Registry indexes species by ID. It is read-only after construction.
type Registry struct {
	byID map[string]*Species
}

// NewRegistry builds a Registry.
//
// Postcondition: Returns an error if two species share an ID.
func NewRegistry(species []*Species) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Species, len(species))}
	for _, s := range species {
		if _, dup := r.byID[s.ID]; dup {
			return nil, fmt.Errorf("species %q registered twice", s.ID)
		}
		r.byID[s.ID] = s
	}
	return r, nil
}

// Get returns the species with id.
func (r *Registry) Get(id string) (*Species, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// All returns every species sorted by ID.
func (r *Registry) All() []*Species {
	out := make([]*Species, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
