package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/basecamp/internal/game/biome"
	"github.com/cory-johannsen/basecamp/internal/game/creature"
	"github.com/cory-johannsen/basecamp/internal/game/dice"
	"github.com/cory-johannsen/basecamp/internal/game/event"
	"github.com/cory-johannsen/basecamp/internal/game/loot"
)

func newResolver(t testing.TB) *event.Resolver {
	t.Helper()
	species, err := creature.NewRegistry([]*creature.Species{
		{ID: "forest_sprite", Name: "Forest Sprite", BaseStr: 8, BaseDex: 16, BaseWis: 12, Tags: []string{"fae"}},
		{ID: "moss_golem", Name: "Moss Golem", BaseStr: 14, BaseDex: 8, BaseWis: 12, Tags: []string{"earth"}},
	})
	require.NoError(t, err)
	items, err := loot.NewCatalog([]*loot.Item{
		{ID: "capture_net", Name: "Capture Net", Kind: loot.KindCapture, Rarity: loot.Common, Potency: 3},
		{ID: "moonlight_cloak", Name: "Moonlight Cloak", Kind: loot.KindTrinket, Rarity: loot.Rare},
	})
	require.NoError(t, err)
	r, err := event.NewResolver(event.DefaultConfig(), species, items)
	require.NoError(t, err)
	return r
}

func forest() *biome.Biome {
	return &biome.Biome{
		ID: "enchanted_forest", Name: "Enchanted Forest", UnlockPlayerLevel: 1,
		LootWeight: 70, EncounterWeight: 30,
		Encounters: []biome.SpeciesWeight{{Species: "forest_sprite", Weight: 3}, {Species: "moss_golem", Weight: 1}},
	}
}

func TestResolve_ScriptedEncounter(t *testing.T) {
	r := newResolver(t)
	// encounter draw 10 < 30; species draw 3 → moss_golem; jitter draw 2 → +1.
	res, err := r.Resolve(forest(), event.Context{PlayerLevel: 4, PartySize: 1}, dice.NewSequence(10, 3, 2))
	require.NoError(t, err)

	enc, ok := res.(event.Encounter)
	require.True(t, ok, "got %T", res)
	assert.Equal(t, "moss_golem", enc.Species.ID)
	assert.Equal(t, 5, enc.Level)
	assert.Equal(t, creature.Derive(enc.Species, 5), enc.Stats)
	assert.Equal(t, "encounter", res.Kind())
}

func TestResolve_ScriptedLoot(t *testing.T) {
	r := newResolver(t)
	// encounter draw 30 misses; loot draw 69 < 70; rarity 0 → common; item 0; quantity draw 2 → 3.
	res, err := r.Resolve(forest(), event.Context{PlayerLevel: 1}, dice.NewSequence(30, 69, 0, 0, 2))
	require.NoError(t, err)

	drop, ok := res.(event.Loot)
	require.True(t, ok, "got %T", res)
	assert.Equal(t, "capture_net", drop.Item.ID)
	assert.Equal(t, loot.Common, drop.Rarity)
	assert.Equal(t, 3, drop.Quantity)
}

func TestResolve_ScriptedNothing(t *testing.T) {
	r := newResolver(t)
	res, err := r.Resolve(forest(), event.Context{PlayerLevel: 1}, dice.NewSequence(30, 70))
	require.NoError(t, err)
	assert.Equal(t, event.Nothing{}, res)
}

func TestResolve_BiomeLootPoolRestrictsItems(t *testing.T) {
	r := newResolver(t)
	b := forest()
	b.Loot = []string{"moonlight_cloak"}
	// rarity draw 0 → common, but only the rare cloak is in the pool.
	res, err := r.Resolve(b, event.Context{PlayerLevel: 1}, dice.NewSequence(99, 0, 0))
	require.NoError(t, err)
	drop := res.(event.Loot)
	assert.Equal(t, "moonlight_cloak", drop.Item.ID)
	assert.Equal(t, loot.Rare, drop.Rarity)
	assert.Equal(t, 1, drop.Quantity)
}

func TestResolve_FullEncounterWeightAlwaysEncounters(t *testing.T) {
	r := newResolver(t)
	b := forest()
	b.EncounterWeight = 100
	rapid.Check(t, func(rt *rapid.T) {
		level := rapid.IntRange(1, 12).Draw(rt, "level")
		src := dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed"))
		res, err := r.Resolve(b, event.Context{PlayerLevel: level}, src)
		require.NoError(rt, err)
		enc, ok := res.(event.Encounter)
		require.True(rt, ok, "got %T", res)
		assert.GreaterOrEqual(rt, enc.Level, min(max(1, level-1), 10))
		assert.LessOrEqual(rt, enc.Level, min(10, level+1))
	})
}

func TestResolve_ZeroWeightsAlwaysNothing(t *testing.T) {
	r := newResolver(t)
	b := forest()
	b.EncounterWeight = 0
	b.LootWeight = 0
	rapid.Check(t, func(rt *rapid.T) {
		src := dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed"))
		res, err := r.Resolve(b, event.Context{PlayerLevel: 1}, src)
		require.NoError(rt, err)
		assert.Equal(rt, "nothing", res.Kind())
	})
}

func TestResolve_RequiredTag(t *testing.T) {
	r := newResolver(t)
	b := forest()
	b.EncounterWeight = 100
	b.RequiredTag = "fae"

	_, err := r.Resolve(b, event.Context{PlayerLevel: 1}, dice.NewSequence(0))
	assert.ErrorIs(t, err, biome.ErrInvalidBiome)

	// Every draw lands on the sprite: the golem lacks the tag.
	for roll := 0; roll < 4; roll++ {
		res, err := r.Resolve(b, event.Context{PlayerLevel: 1, Tags: []string{"fae"}}, dice.NewSequence(0, roll, 1))
		require.NoError(t, err)
		assert.Equal(t, "forest_sprite", res.(event.Encounter).Species.ID)
	}
}

func TestResolve_NoEligibleSpecies(t *testing.T) {
	r := newResolver(t)
	b := forest()
	b.EncounterWeight = 100
	b.RequiredTag = "earth"
	b.Encounters = []biome.SpeciesWeight{{Species: "forest_sprite", Weight: 1}}
	_, err := r.Resolve(b, event.Context{PlayerLevel: 1, Tags: []string{"earth"}}, dice.NewSequence(0))
	assert.ErrorIs(t, err, biome.ErrInvalidBiome)
}

func TestResolve_LockedBiome(t *testing.T) {
	r := newResolver(t)
	b := forest()
	b.UnlockPlayerLevel = 5
	_, err := r.Resolve(b, event.Context{PlayerLevel: 4}, dice.NewSequence(0))
	assert.ErrorIs(t, err, biome.ErrInvalidBiome)
}

func TestWildLevel_Clamps(t *testing.T) {
	r := newResolver(t)
	assert.Equal(t, 1, r.WildLevel(1, dice.NewSequence(0)))
	assert.Equal(t, 10, r.WildLevel(10, dice.NewSequence(2)))
	assert.Equal(t, 10, r.WildLevel(15, dice.NewSequence(1)))
	assert.Equal(t, 4, r.WildLevel(5, dice.NewSequence(0)))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, event.DefaultConfig().Validate())

	cfg := event.DefaultConfig()
	cfg.JitterMin, cfg.JitterMax = 2, 1
	cfg.MaxWildLevel = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jitter")
	assert.Contains(t, err.Error(), "max wild level")
}
