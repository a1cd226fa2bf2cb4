package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/basecamp/internal/expedition"
	"github.com/cory-johannsen/basecamp/internal/game/creature"
	"github.com/cory-johannsen/basecamp/internal/game/player"
)

// PlayerRepository persists player progression.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Player retrieves a player's stats.
//
// Postcondition: Returns the Stats or an error wrapping expedition.ErrPlayerNotFound.
func (r *PlayerRepository) Player(ctx context.Context, playerID string) (player.Stats, error) {
	var s player.Stats
	err := r.db.QueryRow(ctx,
		`SELECT player_id, level, experience FROM players WHERE player_id = $1`,
		playerID,
	).Scan(&s.PlayerID, &s.Level, &s.Experience)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return player.Stats{}, fmt.Errorf("%w: %s", expedition.ErrPlayerNotFound, playerID)
		}
		return player.Stats{}, fmt.Errorf("querying player: %w", err)
	}
	return s, nil
}

// CreatePlayer inserts stats and the starter creature in one transaction.
//
// Precondition: starter.PlayerID == stats.PlayerID.
// Postcondition: Returns an error wrapping expedition.ErrPlayerExists if the
// player is already stored; nothing is written in that case.
func (r *PlayerRepository) CreatePlayer(ctx context.Context, stats player.Stats, starter creature.UserCreature) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO players (player_id, level, experience) VALUES ($1, $2, $3)`,
			stats.PlayerID, stats.Level, stats.Experience,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("%w: %s", expedition.ErrPlayerExists, stats.PlayerID)
			}
			return fmt.Errorf("inserting player: %w", err)
		}
		return insertCreature(ctx, tx, starter)
	})
}

// awardExperience adds xp to the player's total and returns the new stats.
func awardExperience(ctx context.Context, q querier, playerID string, xp int) (player.Stats, error) {
	var s player.Stats
	err := q.QueryRow(ctx,
		`UPDATE players SET experience = experience + $2
		 WHERE player_id = $1
		 RETURNING player_id, level, experience`,
		playerID, xp,
	).Scan(&s.PlayerID, &s.Level, &s.Experience)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return player.Stats{}, fmt.Errorf("%w: %s", expedition.ErrPlayerNotFound, playerID)
		}
		return player.Stats{}, fmt.Errorf("awarding experience: %w", err)
	}
	return s, nil
}
