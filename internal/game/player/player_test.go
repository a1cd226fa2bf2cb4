package player_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/basecamp/internal/game/player"
)

func TestMaxPartySize_Breakpoints(t *testing.T) {
	cases := map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 6: 3, 7: 4, 20: 4}
	for level, want := range cases {
		assert.Equal(t, want, player.MaxPartySize(level), "level %d", level)
	}
}

func TestMaxPartySize_MonotonicProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.IntRange(1, 100).Draw(rt, "a")
		b := rapid.IntRange(a, 100).Draw(rt, "b")
		assert.LessOrEqual(rt, player.MaxPartySize(a), player.MaxPartySize(b))
	})
}

func TestAwardExperience(t *testing.T) {
	s := player.New("p1")
	require.NoError(t, s.AwardExperience(30))
	require.NoError(t, s.AwardExperience(0))
	assert.Equal(t, 30, s.Experience)

	assert.Error(t, s.AwardExperience(-1))
	assert.Equal(t, 30, s.Experience, "rejected award must not change experience")
}
