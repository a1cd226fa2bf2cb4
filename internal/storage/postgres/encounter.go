package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/basecamp/internal/expedition"
	"github.com/cory-johannsen/basecamp/internal/game/player"
)

// EncounterRepository persists encounter records.
type EncounterRepository struct {
	db *pgxpool.Pool
}

// NewEncounterRepository creates an EncounterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEncounterRepository(db *pgxpool.Pool) *EncounterRepository {
	return &EncounterRepository{db: db}
}

// Encounter retrieves an encounter owned by playerID.
//
// Postcondition: Returns an error wrapping expedition.ErrEncounterNotFound
// for a malformed ID, an unknown ID, or another player's encounter.
func (r *EncounterRepository) Encounter(ctx context.Context, playerID, encounterID string) (expedition.Encounter, error) {
	if _, err := uuid.Parse(encounterID); err != nil {
		return expedition.Encounter{}, fmt.Errorf("%w: %s", expedition.ErrEncounterNotFound, encounterID)
	}

	var e expedition.Encounter
	err := r.db.QueryRow(ctx,
		`SELECT id::text, player_id, biome_id, species_id, level, result, reward_xp, created_at
		 FROM encounters WHERE id = $1::uuid AND player_id = $2`,
		encounterID, playerID,
	).Scan(&e.ID, &e.PlayerID, &e.BiomeID, &e.SpeciesID, &e.Level, &e.Result, &e.RewardXP, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return expedition.Encounter{}, fmt.Errorf("%w: %s", expedition.ErrEncounterNotFound, encounterID)
		}
		return expedition.Encounter{}, fmt.Errorf("querying encounter: %w", err)
	}
	return e, nil
}

// CompleteEncounter records the result of a finished combat, debits the
// consumed item, awards XP and stores any captured creature in one transaction.
//
// Precondition: c.Result is a terminal combat status.
// Postcondition: Returns the updated player stats, or an error wrapping
// expedition.ErrEncounterResolved if the encounter is no longer pending.
func (r *EncounterRepository) CompleteEncounter(ctx context.Context, c expedition.Completion) (player.Stats, error) {
	var stats player.Stats
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE encounters SET result = $3, reward_xp = $4
			 WHERE id = $1::uuid AND player_id = $2 AND result = 'pending'`,
			c.EncounterID, c.PlayerID, string(c.Result), c.XP,
		)
		if err != nil {
			return fmt.Errorf("updating encounter: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", expedition.ErrEncounterResolved, c.EncounterID)
		}

		if c.ConsumedItem != "" {
			if err := debitItem(ctx, tx, c.PlayerID, c.ConsumedItem, 1); err != nil {
				return err
			}
		}
		if stats, err = awardExperience(ctx, tx, c.PlayerID, c.XP); err != nil {
			return err
		}
		if c.Captured != nil {
			return insertCreature(ctx, tx, *c.Captured)
		}
		return nil
	})
	if err != nil {
		return player.Stats{}, err
	}
	return stats, nil
}

// insertEncounter stores a pending encounter.
func insertEncounter(ctx context.Context, q querier, e expedition.Encounter) error {
	_, err := q.Exec(ctx,
		`INSERT INTO encounters (id, player_id, biome_id, species_id, level, result, reward_xp, created_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.PlayerID, e.BiomeID, e.SpeciesID, e.Level, string(e.Result), e.RewardXP, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting encounter %s: %w", e.ID, err)
	}
	return nil
}
