package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/basecamp/internal/expedition"
	"github.com/cory-johannsen/basecamp/internal/game/creature"
	"github.com/cory-johannsen/basecamp/internal/game/ledger"
	"github.com/cory-johannsen/basecamp/internal/game/player"
	"github.com/cory-johannsen/basecamp/internal/storage/postgres"
	"github.com/cory-johannsen/basecamp/internal/testutil"
)

const day = "2026-10-15"

func starter(playerID string) creature.UserCreature {
	pos := 1
	return creature.UserCreature{
		ID:            uuid.NewString(),
		PlayerID:      playerID,
		SpeciesID:     "forest_sprite",
		Level:         1,
		HP:            6,
		CurrentHP:     6,
		Str:           8,
		Dex:           14,
		Wis:           12,
		IsInParty:     true,
		PartyPosition: &pos,
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
}

func newStore(t *testing.T) *postgres.Store {
	t.Helper()
	return postgres.NewStore(testutil.NewPool(t))
}

func TestStore_PostgresBehaviour(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	t.Run("player lifecycle", func(t *testing.T) {
		_, err := store.Player(ctx, "nobody")
		assert.ErrorIs(t, err, expedition.ErrPlayerNotFound)

		require.NoError(t, store.CreatePlayer(ctx, player.New("p1"), starter("p1")))
		err = store.CreatePlayer(ctx, player.New("p1"), starter("p1"))
		assert.ErrorIs(t, err, expedition.ErrPlayerExists)

		stats, err := store.Player(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, player.Stats{PlayerID: "p1", Level: 1}, stats)

		cs, err := store.Creatures(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, cs, 1, "the failed second create must not insert a creature")
		require.NotNil(t, cs[0].PartyPosition)
		assert.Equal(t, 1, *cs[0].PartyPosition)
	})

	t.Run("progress never moves backwards", func(t *testing.T) {
		_, found, err := store.Progress(ctx, "p2", day)
		require.NoError(t, err)
		assert.False(t, found)

		p := ledger.DefaultThresholds.Apply(ledger.NewDailyProgress("p2", day), 12)
		require.NoError(t, store.SaveProgress(ctx, p))
		require.NoError(t, store.SaveProgress(ctx, ledger.DefaultThresholds.Apply(ledger.NewDailyProgress("p2", day), 6)))

		got, found, err := store.Progress(ctx, "p2", day)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 3, got.RunsAvailable)
		assert.Equal(t, 12, got.HabitPointsEarned)
		assert.True(t, got.Threshold3)
		assert.Equal(t, day, got.Date)
	})

	t.Run("consume run records the effect atomically", func(t *testing.T) {
		p := ledger.DefaultThresholds.Apply(ledger.NewDailyProgress("p3", day), 6)
		require.NoError(t, store.SaveProgress(ctx, p))

		got, err := store.ConsumeRun(ctx, "p3", day, expedition.RunEffect{
			Credit: &expedition.InventoryEntry{PlayerID: "p3", ItemID: "capture_net", Quantity: 2},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, got.RunsUsed)

		_, err = store.ConsumeRun(ctx, "p3", day, expedition.RunEffect{
			Credit: &expedition.InventoryEntry{PlayerID: "p3", ItemID: "capture_net", Quantity: 5},
		})
		assert.ErrorIs(t, err, expedition.ErrNoRunsAvailable)

		inv, err := store.Inventory(ctx, "p3")
		require.NoError(t, err)
		require.Len(t, inv, 1)
		assert.Equal(t, 2, inv[0].Quantity, "a rejected run must not credit loot")

		require.NoError(t, store.DebitItem(ctx, "p3", "capture_net", 2))
		assert.ErrorIs(t, store.DebitItem(ctx, "p3", "capture_net", 1), expedition.ErrItemUnavailable)
	})

	t.Run("concurrent consumes never overdraw", func(t *testing.T) {
		p := ledger.DefaultThresholds.Apply(ledger.NewDailyProgress("p4", day), 6)
		require.NoError(t, store.SaveProgress(ctx, p))

		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = store.ConsumeRun(ctx, "p4", day, expedition.RunEffect{})
			}(i)
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			if err == nil {
				ok++
			} else {
				assert.ErrorIs(t, err, expedition.ErrNoRunsAvailable)
			}
		}
		assert.Equal(t, 1, ok)

		got, _, err := store.Progress(ctx, "p4", day)
		require.NoError(t, err)
		assert.Equal(t, 1, got.RunsUsed)
	})

	t.Run("encounter completion", func(t *testing.T) {
		require.NoError(t, store.CreatePlayer(ctx, player.New("p5"), starter("p5")))
		require.NoError(t, store.SaveProgress(ctx, ledger.DefaultThresholds.Apply(ledger.NewDailyProgress("p5", day), 6)))

		enc := expedition.Encounter{
			ID:        uuid.NewString(),
			PlayerID:  "p5",
			BiomeID:   "enchanted_forest",
			SpeciesID: "twilight_fox",
			Level:     2,
			Result:    expedition.EncounterPending,
			CreatedAt: time.Now().UTC(),
		}
		_, err := store.ConsumeRun(ctx, "p5", day, expedition.RunEffect{Encounter: &enc})
		require.NoError(t, err)

		got, err := store.Encounter(ctx, "p5", enc.ID)
		require.NoError(t, err)
		assert.Equal(t, expedition.EncounterPending, got.Result)

		_, err = store.Encounter(ctx, "someone-else", enc.ID)
		assert.ErrorIs(t, err, expedition.ErrEncounterNotFound)
		_, err = store.Encounter(ctx, "p5", "not-a-uuid")
		assert.ErrorIs(t, err, expedition.ErrEncounterNotFound)

		captured := starter("p5")
		captured.ID = uuid.NewString()
		captured.SpeciesID = "twilight_fox"
		captured.IsInParty = false
		captured.PartyPosition = nil
		captured.CreatedAt = captured.CreatedAt.Add(time.Second)

		_, err = store.CompleteEncounter(ctx, expedition.Completion{
			PlayerID:     "p5",
			EncounterID:  enc.ID,
			Result:       "captured",
			XP:           10,
			Captured:     &captured,
			ConsumedItem: "golden_net",
		})
		require.ErrorIs(t, err, expedition.ErrItemUnavailable)
		got, err = store.Encounter(ctx, "p5", enc.ID)
		require.NoError(t, err)
		assert.Equal(t, expedition.EncounterPending, got.Result, "a failed debit rolls the completion back")
		before, err := store.Player(ctx, "p5")
		require.NoError(t, err)
		assert.Zero(t, before.Experience)

		stats, err := store.CompleteEncounter(ctx, expedition.Completion{
			PlayerID:    "p5",
			EncounterID: enc.ID,
			Result:      "captured",
			XP:          10,
			Captured:    &captured,
		})
		require.NoError(t, err)
		assert.Equal(t, 10, stats.Experience)

		_, err = store.CompleteEncounter(ctx, expedition.Completion{PlayerID: "p5", EncounterID: enc.ID, Result: "victory", XP: 20})
		assert.ErrorIs(t, err, expedition.ErrEncounterResolved)

		cs, err := store.Creatures(ctx, "p5")
		require.NoError(t, err)
		assert.Len(t, cs, 2)
	})

	t.Run("party updates swap positions in one call", func(t *testing.T) {
		cs, err := store.Creatures(ctx, "p5")
		require.NoError(t, err)
		require.Len(t, cs, 2)

		benched, placed := cs[0], cs[1]
		benched.IsInParty, benched.PartyPosition = false, nil
		pos := 1
		placed.IsInParty, placed.PartyPosition = true, &pos
		require.NoError(t, store.UpdateParty(ctx, "p5", placed, benched))

		ghost := placed
		ghost.ID = uuid.NewString()
		assert.ErrorIs(t, store.UpdateParty(ctx, "p5", ghost), expedition.ErrCreatureNotFound)

		cs, err = store.Creatures(ctx, "p5")
		require.NoError(t, err)
		assert.False(t, cs[0].IsInParty)
		assert.True(t, cs[1].IsInParty)
	})
}
