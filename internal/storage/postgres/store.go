package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/basecamp/internal/expedition"
)

// Store groups the repositories into an expedition.Store.
type Store struct {
	*ProgressRepository
	*PlayerRepository
	*CreatureRepository
	*InventoryRepository
	*EncounterRepository
}

var _ expedition.Store = (*Store)(nil)

// NewStore creates a Store whose repositories share db.
//
// Precondition: db must be a valid, open connection pool with the schema in migrations/ applied.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		ProgressRepository:  NewProgressRepository(db),
		PlayerRepository:    NewPlayerRepository(db),
		CreatureRepository:  NewCreatureRepository(db),
		InventoryRepository: NewInventoryRepository(db),
		EncounterRepository: NewEncounterRepository(db),
	}
}
