// Package event resolves a single expedition run in a biome into loot, a wild
// encounter, or nothing.
package event

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/basecamp/internal/game/biome"
	"github.com/cory-johannsen/basecamp/internal/game/creature"
	"github.com/cory-johannsen/basecamp/internal/game/dice"
	"github.com/cory-johannsen/basecamp/internal/game/loot"
)

// Config tunes wild creature levels and the loot rarity table.
type Config struct {
	// JitterMin and JitterMax bound the uniform offset added to the player's level.
	JitterMin     int
	JitterMax     int
	MaxWildLevel  int
	RarityWeights []loot.RarityWeight
}

// DefaultConfig returns jitter -1..+1, a level cap of 10 and the default rarity table.
func DefaultConfig() Config {
	return Config{
		JitterMin:     -1,
		JitterMax:     1,
		MaxWildLevel:  10,
		RarityWeights: loot.DefaultRarityWeights,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.JitterMin > c.JitterMax {
		errs = append(errs, fmt.Errorf("jitter min %d exceeds jitter max %d", c.JitterMin, c.JitterMax))
	}
	if c.MaxWildLevel < 1 {
		errs = append(errs, fmt.Errorf("max wild level must be >= 1, got %d", c.MaxWildLevel))
	}
	if err := loot.ValidateWeights(c.RarityWeights); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Context carries the player facts a run is resolved against.
type Context struct {
	PlayerLevel int
	PartySize   int
	Tags        []string
}

// Resolver turns a biome and a random source into a Result.
// It has no side effects and is safe for concurrent use.
type Resolver struct {
	cfg     Config
	species *creature.Registry
	items   *loot.Catalog
}

// NewResolver creates a Resolver over the given catalogs.
//
// Precondition: species and items must be non-nil.
// Postcondition: Returns an error if cfg is invalid.
func NewResolver(cfg Config, species *creature.Registry, items *loot.Catalog) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("event resolver config: %w", err)
	}
	return &Resolver{cfg: cfg, species: species, items: items}, nil
}

// Resolve draws the outcome of one run in b.
//
// The encounter check is drawn first; loot is only rolled when it fails.
// The caller is responsible for having a run available.
//
// Postcondition: Returns an error wrapping biome.ErrInvalidBiome when an
// access prerequisite is unmet or the biome has no eligible species.
func (r *Resolver) Resolve(b *biome.Biome, ctx Context, src dice.Source) (Result, error) {
	if err := biome.CheckAccess(b, biome.Access{PlayerLevel: ctx.PlayerLevel, PartySize: ctx.PartySize, Tags: ctx.Tags}); err != nil {
		return nil, err
	}

	if dice.Percent(src) < b.EncounterWeight {
		return r.encounter(b, ctx.PlayerLevel, src)
	}
	if dice.Percent(src) < b.LootWeight {
		return r.loot(b, src)
	}
	return Nothing{}, nil
}

func (r *Resolver) encounter(b *biome.Biome, playerLevel int, src dice.Source) (Result, error) {
	eligible := r.eligibleSpecies(b)
	row, ok := dice.Pick(src, eligible, func(w biome.SpeciesWeight) int { return w.Weight })
	if !ok {
		return nil, fmt.Errorf("%w: %q has no eligible species", biome.ErrInvalidBiome, b.ID)
	}
	sp, _ := r.species.Get(row.Species)
	level := r.WildLevel(playerLevel, src)
	return Encounter{Species: sp, Level: level, Stats: creature.Derive(sp, level)}, nil
}

// eligibleSpecies filters the biome's encounter table to known species,
// and to species carrying the biome's required tag when it has one.
func (r *Resolver) eligibleSpecies(b *biome.Biome) []biome.SpeciesWeight {
	out := make([]biome.SpeciesWeight, 0, len(b.Encounters))
	for _, row := range b.Encounters {
		sp, ok := r.species.Get(row.Species)
		if !ok {
			continue
		}
		if b.RequiredTag != "" && !sp.HasTag(b.RequiredTag) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// WildLevel returns playerLevel plus a uniform jitter, clamped to [1, MaxWildLevel].
func (r *Resolver) WildLevel(playerLevel int, src dice.Source) int {
	level := playerLevel + dice.Between(src, r.cfg.JitterMin, r.cfg.JitterMax)
	return min(max(level, 1), r.cfg.MaxWildLevel)
}

func (r *Resolver) loot(b *biome.Biome, src dice.Source) (Result, error) {
	pool, err := r.items.Pool(b.Loot)
	if err != nil {
		return nil, fmt.Errorf("biome %q loot pool: %w", b.ID, err)
	}
	drop, err := loot.Roll(pool, r.cfg.RarityWeights, src)
	if err != nil {
		return nil, fmt.Errorf("biome %q: %w", b.ID, err)
	}
	return Loot{Item: drop.Item, Quantity: drop.Quantity, Rarity: drop.Rarity}, nil
}
