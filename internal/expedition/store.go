package expedition

import (
	"context"
	"errors"
	"time"

	"github.com/cory-johannsen/basecamp/internal/game/combat"
	"github.com/cory-johannsen/basecamp/internal/game/creature"
	"github.com/cory-johannsen/basecamp/internal/game/ledger"
	"github.com/cory-johannsen/basecamp/internal/game/player"
	"github.com/cory-johannsen/basecamp/internal/game/roster"
)

var (
	// ErrNoRunsAvailable is returned when a run is requested with none left for the day.
	ErrNoRunsAvailable = errors.New("no runs available")
	// ErrPlayerNotFound is returned for a player that has not been initialised.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrPlayerExists is returned when initialising a player twice.
	ErrPlayerExists = errors.New("player already exists")
	// ErrEncounterNotFound is returned for an unknown encounter or one owned by another player.
	ErrEncounterNotFound = errors.New("encounter not found")
	// ErrEncounterResolved is returned when starting combat on an encounter that already ended.
	ErrEncounterResolved = errors.New("encounter already resolved")
	// ErrItemUnavailable is returned when the player holds none of the item an action needs.
	ErrItemUnavailable = errors.New("item unavailable")
	// ErrUnknownItem is returned for an item ID missing from the catalog.
	ErrUnknownItem = errors.New("unknown item")
	// ErrInvalidDate is returned for a date that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidPoints is returned for a negative habit point total.
	ErrInvalidPoints = errors.New("invalid habit points")
	// ErrInvalidAction is returned for an unrecognised combat action.
	ErrInvalidAction = errors.New("invalid combat action")

	// ErrCreatureNotFound is returned for a creature the player does not own.
	ErrCreatureNotFound = roster.ErrCreatureNotFound
)

// EncounterResult is the lifecycle of an encounter record.
type EncounterResult string

const (
	EncounterPending EncounterResult = "pending"
)

// ResultFor maps a terminal combat status to the encounter result it records.
func ResultFor(s combat.Status) EncounterResult { return EncounterResult(s) }

// Encounter is the persisted record of a run that found a wild creature.
type Encounter struct {
	ID        string          `json:"id"`
	PlayerID  string          `json:"playerId"`
	BiomeID   string          `json:"biomeId"`
	SpeciesID string          `json:"speciesId"`
	Level     int             `json:"level"`
	Result    EncounterResult `json:"result"`
	RewardXP  int             `json:"rewardXp"`
	CreatedAt time.Time       `json:"createdAt"`
}

// InventoryEntry is a player's holding of one item.
type InventoryEntry struct {
	PlayerID string `json:"playerId"`
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// RunEffect is what a consumed run records. At most one field is set.
type RunEffect struct {
	Credit    *InventoryEntry
	Encounter *Encounter
}

// Completion is everything a terminal combat writes.
type Completion struct {
	PlayerID    string
	EncounterID string
	Result      EncounterResult
	XP          int
	// Captured is the new bench creature on a capture, nil otherwise.
	Captured *creature.UserCreature
	// ConsumedItem is debited by one in the same step when the finishing
	// action used an item; empty otherwise.
	ConsumedItem string
}

// ProgressStore persists DailyProgress records.
type ProgressStore interface {
	// Progress returns the record for playerID on date; found is false if none exists.
	Progress(ctx context.Context, playerID, date string) (p ledger.DailyProgress, found bool, err error)
	// SaveProgress upserts p without ever lowering the stored runs, flags or points.
	SaveProgress(ctx context.Context, p ledger.DailyProgress) error
	// ConsumeRun atomically increments runsUsed if it is below runsAvailable and
	// records effect in the same step. Nothing is recorded when it returns
	// ErrNoRunsAvailable.
	ConsumeRun(ctx context.Context, playerID, date string, effect RunEffect) (ledger.DailyProgress, error)
}

// PlayerStore persists player progression.
type PlayerStore interface {
	// Player returns ErrPlayerNotFound for an unknown player.
	Player(ctx context.Context, playerID string) (player.Stats, error)
	// CreatePlayer stores stats and the starter creature, or returns ErrPlayerExists.
	CreatePlayer(ctx context.Context, stats player.Stats, starter creature.UserCreature) error
}

// CreatureStore persists owned creatures.
type CreatureStore interface {
	// Creatures lists the player's creatures, oldest first.
	Creatures(ctx context.Context, playerID string) ([]creature.UserCreature, error)
	// UpdateParty writes the party flags of the given creatures in one step.
	UpdateParty(ctx context.Context, playerID string, cs ...creature.UserCreature) error
}

// InventoryStore persists item holdings.
type InventoryStore interface {
	Inventory(ctx context.Context, playerID string) ([]InventoryEntry, error)
	// DebitItem removes n of itemID, or returns ErrItemUnavailable if fewer are held.
	DebitItem(ctx context.Context, playerID, itemID string, n int) error
}

// EncounterStore persists encounter records.
type EncounterStore interface {
	// Encounter returns ErrEncounterNotFound unless playerID owns encounterID.
	Encounter(ctx context.Context, playerID, encounterID string) (Encounter, error)
	// CompleteEncounter records the combat result, debits the consumed item,
	// awards XP and admits any captured creature in one step, returning the
	// updated player stats. Nothing is written on error.
	CompleteEncounter(ctx context.Context, c Completion) (player.Stats, error)
}

// Store is the full persistence contract of the service.
type Store interface {
	ProgressStore
	PlayerStore
	CreatureStore
	InventoryStore
	EncounterStore
}
