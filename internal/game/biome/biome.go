// Package biome provides the read-only catalog of explorable zones and the
// access rules that gate them.
package biome

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidBiome is returned for an unknown biome or an unmet prerequisite.
var ErrInvalidBiome = errors.New("invalid biome")

// SpeciesWeight is one row of a biome's encounter table.
type SpeciesWeight struct {
	Species string `yaml:"species" json:"species"`
	Weight  int    `yaml:"weight" json:"weight"`
}

// Biome is an immutable catalog entry.
//
// LootWeight and EncounterWeight are independent percentages, not slices of
// one distribution; they need not sum to 100.
type Biome struct {
	ID                string          `yaml:"id" json:"id"`
	Name              string          `yaml:"name" json:"name"`
	Description       string          `yaml:"description" json:"description,omitempty"`
	UnlockPlayerLevel int             `yaml:"unlock_player_level" json:"unlockPlayerLevel"`
	LootWeight        int             `yaml:"loot_weight" json:"lootWeight"`
	EncounterWeight   int             `yaml:"encounter_weight" json:"encounterWeight"`
	MinPartySize      int             `yaml:"min_party_size" json:"minPartySize"`
	RequiredTag       string          `yaml:"required_tag" json:"requiredTag,omitempty"`
	Encounters        []SpeciesWeight `yaml:"encounters" json:"encounters"`
	// Loot lists the item IDs this biome can drop. Empty means the whole item catalog.
	Loot []string `yaml:"loot" json:"loot,omitempty"`
}

// Validate checks the biome invariants.
func (b *Biome) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("biome: id must not be empty")
	}
	if b.Name == "" {
		return fmt.Errorf("biome %q: name must not be empty", b.ID)
	}
	if b.UnlockPlayerLevel < 1 {
		return fmt.Errorf("biome %q: unlock_player_level must be >= 1, got %d", b.ID, b.UnlockPlayerLevel)
	}
	if b.LootWeight < 0 || b.LootWeight > 100 {
		return fmt.Errorf("biome %q: loot_weight must be in [0, 100], got %d", b.ID, b.LootWeight)
	}
	if b.EncounterWeight < 0 || b.EncounterWeight > 100 {
		return fmt.Errorf("biome %q: encounter_weight must be in [0, 100], got %d", b.ID, b.EncounterWeight)
	}
	if b.MinPartySize < 0 {
		return fmt.Errorf("biome %q: min_party_size must be >= 0, got %d", b.ID, b.MinPartySize)
	}
	if b.EncounterWeight > 0 && len(b.Encounters) == 0 {
		return fmt.Errorf("biome %q: encounter_weight is %d but no encounters are listed", b.ID, b.EncounterWeight)
	}
	for i, e := range b.Encounters {
		if e.Species == "" {
			return fmt.Errorf("biome %q: encounters[%d] must name a species", b.ID, i)
		}
		if e.Weight <= 0 {
			return fmt.Errorf("biome %q: encounters[%d] weight must be > 0, got %d", b.ID, i, e.Weight)
		}
	}
	return nil
}

// Access describes the player facts a biome's prerequisites are checked against.
type Access struct {
	PlayerLevel int
	PartySize   int
	// Tags are the prerequisite tags the player currently holds.
	Tags []string
}

// CheckAccess reports whether a player described by a may explore b.
//
// Postcondition: Returns nil or an error wrapping ErrInvalidBiome that names the unmet prerequisite.
func CheckAccess(b *Biome, a Access) error {
	if a.PlayerLevel < b.UnlockPlayerLevel {
		return fmt.Errorf("%w: %q requires player level %d", ErrInvalidBiome, b.ID, b.UnlockPlayerLevel)
	}
	if a.PartySize < b.MinPartySize {
		return fmt.Errorf("%w: %q requires at least %d creatures in the party", ErrInvalidBiome, b.ID, b.MinPartySize)
	}
	if b.RequiredTag != "" && !slices.Contains(a.Tags, b.RequiredTag) {
		return fmt.Errorf("%w: %q requires the %q prerequisite", ErrInvalidBiome, b.ID, b.RequiredTag)
	}
	return nil
}

// LoadBiomesFromBytes parses a YAML document with a top-level `biomes:` list.
func LoadBiomesFromBytes(data []byte) ([]*Biome, error) {
	var doc struct {
		Biomes []*Biome `yaml:"biomes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing biome YAML: %w", err)
	}
	for _, b := range doc.Biomes {
		if err := b.Validate(); err != nil {
			return nil, err
		}
	}
	return doc.Biomes, nil
}

// LoadBiomes reads every *.yaml file in dir.
func LoadBiomes(dir string) ([]*Biome, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading biome dir %q: %w", dir, err)
	}
	var out []*Biome
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		biomes, err := LoadBiomesFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		out = append(out, biomes...)
	}
	return out, nil
}
