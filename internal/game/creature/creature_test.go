package creature_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/basecamp/internal/game/creature"
)

const speciesYAML = `
species:
  - id: moss_golem
    name: Moss Golem
    base_str: 14
    base_dex: 8
    base_wis: 12
    tags: [earth]
    rarity: common
  - id: twilight_fox
    name: Twilight Fox
    base_str: 11
    base_dex: 15
    base_wis: 14
    tags: [beast]
    rarity: uncommon
    damage: 1d4+1
`

func TestAbilityMod(t *testing.T) {
	cases := map[int]int{1: -5, 8: -1, 9: -1, 10: 0, 11: 0, 12: 1, 15: 2, 20: 5}
	for score, want := range cases {
		assert.Equal(t, want, creature.AbilityMod(score), "score %d", score)
	}
}

func TestDerive_IsPureAndScales(t *testing.T) {
	sp := &creature.Species{ID: "fox", Name: "Fox", BaseStr: 11, BaseDex: 15, BaseWis: 14}

	l1 := creature.Derive(sp, 1)
	assert.Equal(t, creature.Stats{Level: 1, MaxHP: 7, AC: 12, Str: 11, Dex: 15, Wis: 14}, l1)

	l5 := creature.Derive(sp, 5)
	assert.Equal(t, 13, l5.Str)
	assert.Equal(t, 17, l5.Dex)
	assert.Equal(t, 16, l5.Wis)
	assert.Equal(t, 5*5+5*3, l5.MaxHP)
	assert.Equal(t, 13, l5.AC)

	assert.Equal(t, l5, creature.Derive(sp, 5), "derivation must be deterministic")
}

func TestDerive_Property_MaxHPGrowsWithLevel(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sp := &creature.Species{
			ID:      "x",
			Name:    "X",
			BaseStr: rapid.IntRange(1, 30).Draw(rt, "str"),
			BaseDex: rapid.IntRange(1, 30).Draw(rt, "dex"),
			BaseWis: rapid.IntRange(1, 30).Draw(rt, "wis"),
		}
		level := rapid.IntRange(1, 19).Draw(rt, "level")
		a := creature.Derive(sp, level)
		b := creature.Derive(sp, level+1)
		assert.GreaterOrEqual(rt, a.MaxHP, 5*level)
		assert.Greater(rt, b.MaxHP, a.MaxHP)
		assert.GreaterOrEqual(rt, b.AC, a.AC)
	})
}

func TestLoadSpeciesFromBytes_List(t *testing.T) {
	species, err := creature.LoadSpeciesFromBytes([]byte(speciesYAML))
	require.NoError(t, err)
	require.Len(t, species, 2)
	assert.True(t, species[0].HasTag("earth"))
	assert.Equal(t, "1d6", species[0].DamageExpr().Raw)
	assert.Equal(t, 1, species[1].DamageExpr().Modifier)
}

func TestLoadSpeciesFromBytes_Single(t *testing.T) {
	species, err := creature.LoadSpeciesFromBytes([]byte("id: sprite\nname: Sprite\nbase_str: 8\nbase_dex: 16\nbase_wis: 12\n"))
	require.NoError(t, err)
	require.Len(t, species, 1)
	assert.Equal(t, "sprite", species[0].ID)
}

func TestLoadSpeciesFromBytes_Invalid(t *testing.T) {
	_, err := creature.LoadSpeciesFromBytes([]byte("id: sprite\nname: Sprite\nbase_str: 0\nbase_dex: 16\nbase_wis: 12\n"))
	assert.Error(t, err)

	_, err = creature.LoadSpeciesFromBytes([]byte("id: sprite\nname: Sprite\nbase_str: 8\nbase_dex: 16\nbase_wis: 12\ndamage: lots\n"))
	assert.Error(t, err)
}

func TestLoadSpecies_Dir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "forest.yaml"), []byte(speciesYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	species, err := creature.LoadSpecies(dir)
	require.NoError(t, err)
	reg, err := creature.NewRegistry(species)
	require.NoError(t, err)

	_, ok := reg.Get("twilight_fox")
	assert.True(t, ok)
	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "moss_golem", all[0].ID)
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	s := &creature.Species{ID: "a", Name: "A", BaseStr: 10, BaseDex: 10, BaseWis: 10}
	_, err := creature.NewRegistry([]*creature.Species{s, s})
	assert.Error(t, err)
}

func TestUserCreature_CloneCopiesPosition(t *testing.T) {
	pos := 1
	c := creature.UserCreature{ID: "c1", IsInParty: true, PartyPosition: &pos}
	cp := c.Clone()
	*cp.PartyPosition = 2
	assert.Equal(t, 1, *c.PartyPosition)
}
