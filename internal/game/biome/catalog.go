package biome

import (
	"fmt"
	"sort"
)

// Listing is a biome annotated for display.
type Listing struct {
	*Biome
	IsUnlocked bool `json:"isUnlocked"`
}

// Catalog is the read-only set of biomes.
type Catalog struct {
	byID    map[string]*Biome
	ordered []*Biome
}

// NewCatalog builds a Catalog ordered by unlock level, then ID.
//
// Postcondition: Returns an error if two biomes share an ID.
func NewCatalog(biomes []*Biome) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*Biome, len(biomes))}
	for _, b := range biomes {
		if _, dup := c.byID[b.ID]; dup {
			return nil, fmt.Errorf("biome %q registered twice", b.ID)
		}
		c.byID[b.ID] = b
		c.ordered = append(c.ordered, b)
	}
	sort.Slice(c.ordered, func(i, j int) bool {
		if c.ordered[i].UnlockPlayerLevel != c.ordered[j].UnlockPlayerLevel {
			return c.ordered[i].UnlockPlayerLevel < c.ordered[j].UnlockPlayerLevel
		}
		return c.ordered[i].ID < c.ordered[j].ID
	})
	return c, nil
}

// CheckReferences verifies that every species and item a biome names exists.
func (c *Catalog) CheckReferences(hasSpecies, hasItem func(id string) bool) error {
	for _, b := range c.ordered {
		for _, e := range b.Encounters {
			if !hasSpecies(e.Species) {
				return fmt.Errorf("biome %q: unknown species %q", b.ID, e.Species)
			}
		}
		for _, id := range b.Loot {
			if !hasItem(id) {
				return fmt.Errorf("biome %q: unknown item %q", b.ID, id)
			}
		}
	}
	return nil
}

// Get returns the biome with id, or an error wrapping ErrInvalidBiome.
func (c *Catalog) Get(id string) (*Biome, error) {
	b, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown biome %q", ErrInvalidBiome, id)
	}
	return b, nil
}

// Len returns the number of biomes.
func (c *Catalog) Len() int { return len(c.ordered) }

// ListAvailable returns the biomes unlocked at playerLevel.
func (c *Catalog) ListAvailable(playerLevel int) []Listing {
	var out []Listing
	for _, b := range c.ordered {
		if b.UnlockPlayerLevel <= playerLevel {
			out = append(out, Listing{Biome: b, IsUnlocked: true})
		}
	}
	return out
}

// List returns the whole catalog, each entry flagged with whether it is
// unlocked at playerLevel.
func (c *Catalog) List(playerLevel int) []Listing {
	out := make([]Listing, 0, len(c.ordered))
	for _, b := range c.ordered {
		out = append(out, Listing{Biome: b, IsUnlocked: b.UnlockPlayerLevel <= playerLevel})
	}
	return out
}
