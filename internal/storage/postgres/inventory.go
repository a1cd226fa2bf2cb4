package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/basecamp/internal/expedition"
)

// InventoryRepository persists item holdings.
type InventoryRepository struct {
	db *pgxpool.Pool
}

// NewInventoryRepository creates an InventoryRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewInventoryRepository(db *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// Inventory lists the items playerID holds at least one of, ordered by item ID.
func (r *InventoryRepository) Inventory(ctx context.Context, playerID string) ([]expedition.InventoryEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT player_id, item_id, quantity FROM inventory
		 WHERE player_id = $1 AND quantity > 0
		 ORDER BY item_id`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying inventory: %w", err)
	}
	defer rows.Close()

	out := []expedition.InventoryEntry{}
	for rows.Next() {
		var e expedition.InventoryEntry
		if err := rows.Scan(&e.PlayerID, &e.ItemID, &e.Quantity); err != nil {
			return nil, fmt.Errorf("scanning inventory: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inventory: %w", err)
	}
	return out, nil
}

// DebitItem removes n of itemID with a guarded UPDATE.
//
// Precondition: n >= 1.
// Postcondition: Returns an error wrapping expedition.ErrItemUnavailable and
// changes nothing if fewer than n are held.
func (r *InventoryRepository) DebitItem(ctx context.Context, playerID, itemID string, n int) error {
	return debitItem(ctx, r.db, playerID, itemID, n)
}

// debitItem removes n of itemID with a guarded UPDATE.
func debitItem(ctx context.Context, q querier, playerID, itemID string, n int) error {
	tag, err := q.Exec(ctx,
		`UPDATE inventory SET quantity = quantity - $3
		 WHERE player_id = $1 AND item_id = $2 AND quantity >= $3`,
		playerID, itemID, n,
	)
	if err != nil {
		return fmt.Errorf("debiting item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s holds fewer than %d %s", expedition.ErrItemUnavailable, playerID, n, itemID)
	}
	return nil
}

// creditItem adds n of itemID to the player's holding.
func creditItem(ctx context.Context, q querier, playerID, itemID string, n int) error {
	_, err := q.Exec(ctx,
		`INSERT INTO inventory (player_id, item_id, quantity) VALUES ($1, $2, $3)
		 ON CONFLICT (player_id, item_id) DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity`,
		playerID, itemID, n,
	)
	if err != nil {
		return fmt.Errorf("crediting item %s: %w", itemID, err)
	}
	return nil
}
