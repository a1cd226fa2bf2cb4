package ledger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/basecamp/internal/game/ledger"
)

func TestRecompute_Breakpoints(t *testing.T) {
	cases := []struct {
		points    int
		available int
		flags     ledger.Flags
	}{
		{0, 0, ledger.Flags{}},
		{5, 0, ledger.Flags{}},
		{6, 1, ledger.Flags{Threshold1: true}},
		{8, 1, ledger.Flags{Threshold1: true}},
		{9, 2, ledger.Flags{Threshold1: true, Threshold2: true}},
		{11, 2, ledger.Flags{Threshold1: true, Threshold2: true}},
		{12, 3, ledger.Flags{Threshold1: true, Threshold2: true, Threshold3: true}},
		{40, 3, ledger.Flags{Threshold1: true, Threshold2: true, Threshold3: true}},
	}
	for _, tc := range cases {
		available, flags := ledger.DefaultThresholds.Recompute(tc.points)
		assert.Equal(t, tc.available, available, "points=%d", tc.points)
		assert.Equal(t, tc.flags, flags, "points=%d", tc.points)
	}
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, ledger.DefaultThresholds.Validate())
	assert.Error(t, ledger.Thresholds{0, 9, 12}.Validate())
	assert.Error(t, ledger.Thresholds{6, 6, 12}.Validate())
	assert.Error(t, ledger.Thresholds{6, 12, 9}.Validate())
}

func TestConsumeRun_ExhaustsAtAvailable(t *testing.T) {
	p := ledger.DefaultThresholds.Apply(ledger.NewDailyProgress("p1", "2026-10-15"), 9)
	require.Equal(t, 2, p.RunsAvailable)

	var err error
	p, err = ledger.ConsumeRun(p)
	require.NoError(t, err)
	p, err = ledger.ConsumeRun(p)
	require.NoError(t, err)
	assert.Equal(t, 2, p.RunsUsed)
	assert.False(t, ledger.CanDrawRun(p))

	after, err := ledger.ConsumeRun(p)
	assert.True(t, errors.Is(err, ledger.ErrRunsExhausted))
	assert.Equal(t, p, after, "failed consume must not change progress")
}

func TestApply_NeverLowersWithinDay(t *testing.T) {
	p := ledger.NewDailyProgress("p1", "2026-10-15")
	p = ledger.DefaultThresholds.Apply(p, 12)
	p = ledger.DefaultThresholds.Apply(p, 11)
	assert.Equal(t, 3, p.RunsAvailable)
	assert.Equal(t, 12, p.HabitPointsEarned)
	assert.True(t, p.Threshold3)
}

// TestApply_MonotonicRuns checks that for any sequence of reported totals,
// non-decreasing or not, RunsAvailable never decreases and always equals the
// number of reached thresholds.
func TestApply_MonotonicRuns(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		totals := rapid.SliceOfN(rapid.IntRange(0, 20), 1, 20).Draw(rt, "totals")
		p := ledger.NewDailyProgress("p", "d")
		prev := 0
		for _, pts := range totals {
			p = ledger.DefaultThresholds.Apply(p, pts)
			assert.GreaterOrEqual(rt, p.RunsAvailable, prev)
			assert.Equal(rt, p.Flags.Count(), p.RunsAvailable)
			assert.LessOrEqual(rt, p.RunsUsed, p.RunsAvailable)
			prev = p.RunsAvailable
		}
	})
}

// TestConsumeRun_Conservation checks that N successful consumes leave RunsUsed == N.
func TestConsumeRun_Conservation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		pts := rapid.IntRange(0, 20).Draw(rt, "points")
		attempts := rapid.IntRange(0, 6).Draw(rt, "attempts")
		p := ledger.DefaultThresholds.Apply(ledger.NewDailyProgress("p", "d"), pts)

		ok := 0
		for i := 0; i < attempts; i++ {
			next, err := ledger.ConsumeRun(p)
			if err != nil {
				assert.ErrorIs(rt, err, ledger.ErrRunsExhausted)
				assert.Equal(rt, p.RunsAvailable, p.RunsUsed)
				continue
			}
			ok++
			p = next
		}
		assert.Equal(rt, ok, p.RunsUsed)
		assert.LessOrEqual(rt, p.RunsUsed, p.RunsAvailable)
	})
}
