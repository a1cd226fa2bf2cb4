package postgres

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/basecamp/internal/expedition"
	"github.com/cory-johannsen/basecamp/internal/game/creature"
)

// CreatureRepository persists owned creatures.
type CreatureRepository struct {
	db *pgxpool.Pool
}

// NewCreatureRepository creates a CreatureRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCreatureRepository(db *pgxpool.Pool) *CreatureRepository {
	return &CreatureRepository{db: db}
}

// Creatures lists every creature owned by playerID, oldest first.
//
// Postcondition: Returns an empty slice, not an error, for a player with no creatures.
func (r *CreatureRepository) Creatures(ctx context.Context, playerID string) ([]creature.UserCreature, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id::text, player_id, species_id, level, experience, hp, current_hp,
		        str, dex, wis, is_in_party, party_position, created_at
		 FROM user_creatures
		 WHERE player_id = $1
		 ORDER BY created_at, id`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying creatures: %w", err)
	}
	defer rows.Close()

	out := []creature.UserCreature{}
	for rows.Next() {
		var c creature.UserCreature
		if err := rows.Scan(
			&c.ID, &c.PlayerID, &c.SpeciesID, &c.Level, &c.Experience, &c.HP, &c.CurrentHP,
			&c.Str, &c.Dex, &c.Wis, &c.IsInParty, &c.PartyPosition, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning creature: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating creatures: %w", err)
	}
	return out, nil
}

// UpdateParty writes the party membership of cs in one transaction. The
// player's creature rows are locked first, and benched creatures are written
// before placed ones so a position can change hands in a single call.
//
// Precondition: every creature in cs belongs to playerID.
// Postcondition: Returns an error wrapping expedition.ErrCreatureNotFound and
// writes nothing if any creature is not owned by playerID.
func (r *CreatureRepository) UpdateParty(ctx context.Context, playerID string, cs ...creature.UserCreature) error {
	ordered := slices.Clone(cs)
	slices.SortStableFunc(ordered, func(a, b creature.UserCreature) int {
		switch {
		case !a.IsInParty && b.IsInParty:
			return -1
		case a.IsInParty && !b.IsInParty:
			return 1
		}
		return 0
	})

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`SELECT id FROM user_creatures WHERE player_id = $1 FOR UPDATE`, playerID,
		); err != nil {
			return fmt.Errorf("locking creatures: %w", err)
		}
		for _, c := range ordered {
			tag, err := tx.Exec(ctx,
				`UPDATE user_creatures SET is_in_party = $3, party_position = $4
				 WHERE id::text = $1 AND player_id = $2`,
				c.ID, playerID, c.IsInParty, c.PartyPosition,
			)
			if err != nil {
				return fmt.Errorf("updating party for creature %s: %w", c.ID, err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: %s", expedition.ErrCreatureNotFound, c.ID)
			}
		}
		return nil
	})
}

// insertCreature stores a newly owned creature.
func insertCreature(ctx context.Context, q querier, c creature.UserCreature) error {
	_, err := q.Exec(ctx,
		`INSERT INTO user_creatures
		    (id, player_id, species_id, level, experience, hp, current_hp,
		     str, dex, wis, is_in_party, party_position, created_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.PlayerID, c.SpeciesID, c.Level, c.Experience, c.HP, c.CurrentHP,
		c.Str, c.Dex, c.Wis, c.IsInParty, c.PartyPosition, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting creature %s: %w", c.ID, err)
	}
	return nil
}
