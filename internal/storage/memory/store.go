// Package memory provides an in-process expedition store for standalone mode
// and tests. State is lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/cory-johannsen/basecamp/internal/expedition"
	"github.com/cory-johannsen/basecamp/internal/game/creature"
	"github.com/cory-johannsen/basecamp/internal/game/ledger"
	"github.com/cory-johannsen/basecamp/internal/game/player"
)

type progressKey struct {
	playerID string
	date     string
}

type inventoryKey struct {
	playerID string
	itemID   string
}

// Store keeps every record in maps guarded by one mutex, so each method is a
// single atomic step.
type Store struct {
	mu         sync.Mutex
	progress   map[progressKey]ledger.DailyProgress
	players    map[string]player.Stats
	creatures  map[string][]creature.UserCreature
	inventory  map[inventoryKey]int
	encounters map[string]expedition.Encounter
}

var _ expedition.Store = (*Store)(nil)

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		progress:   make(map[progressKey]ledger.DailyProgress),
		players:    make(map[string]player.Stats),
		creatures:  make(map[string][]creature.UserCreature),
		inventory:  make(map[inventoryKey]int),
		encounters: make(map[string]expedition.Encounter),
	}
}

// Progress returns the record for playerID on date.
func (s *Store) Progress(_ context.Context, playerID, date string) (ledger.DailyProgress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[progressKey{playerID, date}]
	return p, ok, nil
}

// SaveProgress upserts p, keeping the larger totals and any reached flag of an
// existing record. RunsUsed is left to ConsumeRun.
func (s *Store) SaveProgress(_ context.Context, p ledger.DailyProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := progressKey{p.PlayerID, p.Date}
	cur, ok := s.progress[k]
	if !ok {
		s.progress[k] = p
		return nil
	}
	cur.HabitPointsEarned = max(cur.HabitPointsEarned, p.HabitPointsEarned)
	cur.RunsAvailable = max(cur.RunsAvailable, p.RunsAvailable)
	cur.Threshold1 = cur.Threshold1 || p.Threshold1
	cur.Threshold2 = cur.Threshold2 || p.Threshold2
	cur.Threshold3 = cur.Threshold3 || p.Threshold3
	s.progress[k] = cur
	return nil
}

// ConsumeRun spends one run and records effect under the same lock.
//
// Postcondition: Returns an error wrapping expedition.ErrNoRunsAvailable with
// nothing recorded when no run remains.
func (s *Store) ConsumeRun(_ context.Context, playerID, date string, effect expedition.RunEffect) (ledger.DailyProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := progressKey{playerID, date}
	next, err := ledger.ConsumeRun(s.progress[k])
	if err != nil {
		return ledger.DailyProgress{}, fmt.Errorf("%w: player %s on %s", expedition.ErrNoRunsAvailable, playerID, date)
	}
	s.progress[k] = next

	if c := effect.Credit; c != nil {
		s.inventory[inventoryKey{playerID, c.ItemID}] += c.Quantity
	}
	if e := effect.Encounter; e != nil {
		s.encounters[e.ID] = *e
	}
	return next, nil
}

// Player returns the player's stats or an error wrapping expedition.ErrPlayerNotFound.
func (s *Store) Player(_ context.Context, playerID string) (player.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.players[playerID]
	if !ok {
		return player.Stats{}, fmt.Errorf("%w: %s", expedition.ErrPlayerNotFound, playerID)
	}
	return st, nil
}

// CreatePlayer stores stats and the starter creature.
func (s *Store) CreatePlayer(_ context.Context, stats player.Stats, starter creature.UserCreature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[stats.PlayerID]; ok {
		return fmt.Errorf("%w: %s", expedition.ErrPlayerExists, stats.PlayerID)
	}
	s.players[stats.PlayerID] = stats
	s.creatures[stats.PlayerID] = append(s.creatures[stats.PlayerID], starter.Clone())
	return nil
}

// Creatures lists the player's creatures in the order they were obtained.
func (s *Store) Creatures(_ context.Context, playerID string) ([]creature.UserCreature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owned := s.creatures[playerID]
	out := make([]creature.UserCreature, len(owned))
	for i, c := range owned {
		out[i] = c.Clone()
	}
	return out, nil
}

// UpdateParty writes the party membership of cs. Nothing is written if any
// creature is not owned by playerID.
func (s *Store) UpdateParty(_ context.Context, playerID string, cs ...creature.UserCreature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := s.creatures[playerID]
	idx := make([]int, len(cs))
	for i, c := range cs {
		j := slices.IndexFunc(owned, func(o creature.UserCreature) bool { return o.ID == c.ID })
		if j < 0 {
			return fmt.Errorf("%w: %s", expedition.ErrCreatureNotFound, c.ID)
		}
		idx[i] = j
	}
	for i, c := range cs {
		u := c.Clone()
		owned[idx[i]].IsInParty = u.IsInParty
		owned[idx[i]].PartyPosition = u.PartyPosition
	}
	return nil
}

// Inventory lists the items playerID holds at least one of, ordered by item ID.
func (s *Store) Inventory(_ context.Context, playerID string) ([]expedition.InventoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []expedition.InventoryEntry{}
	for k, n := range s.inventory {
		if k.playerID == playerID && n > 0 {
			out = append(out, expedition.InventoryEntry{PlayerID: playerID, ItemID: k.itemID, Quantity: n})
		}
	}
	slices.SortFunc(out, func(a, b expedition.InventoryEntry) int { return strings.Compare(a.ItemID, b.ItemID) })
	return out, nil
}

// DebitItem removes n of itemID or returns an error wrapping expedition.ErrItemUnavailable.
func (s *Store) DebitItem(_ context.Context, playerID, itemID string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := inventoryKey{playerID, itemID}
	if s.inventory[k] < n {
		return fmt.Errorf("%w: %s holds fewer than %d %s", expedition.ErrItemUnavailable, playerID, n, itemID)
	}
	s.inventory[k] -= n
	return nil
}

// Encounter returns an encounter owned by playerID.
func (s *Store) Encounter(_ context.Context, playerID, encounterID string) (expedition.Encounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.encounters[encounterID]
	if !ok || e.PlayerID != playerID {
		return expedition.Encounter{}, fmt.Errorf("%w: %s", expedition.ErrEncounterNotFound, encounterID)
	}
	return e, nil
}

// CompleteEncounter records the combat result, debits the consumed item,
// awards XP and admits any captured creature under one lock.
func (s *Store) CompleteEncounter(_ context.Context, c expedition.Completion) (player.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.encounters[c.EncounterID]
	if !ok || e.PlayerID != c.PlayerID {
		return player.Stats{}, fmt.Errorf("%w: %s", expedition.ErrEncounterNotFound, c.EncounterID)
	}
	if e.Result != expedition.EncounterPending {
		return player.Stats{}, fmt.Errorf("%w: %s", expedition.ErrEncounterResolved, c.EncounterID)
	}
	stats, ok := s.players[c.PlayerID]
	if !ok {
		return player.Stats{}, fmt.Errorf("%w: %s", expedition.ErrPlayerNotFound, c.PlayerID)
	}
	if err := stats.AwardExperience(c.XP); err != nil {
		return player.Stats{}, err
	}
	if c.ConsumedItem != "" {
		k := inventoryKey{c.PlayerID, c.ConsumedItem}
		if s.inventory[k] < 1 {
			return player.Stats{}, fmt.Errorf("%w: %s holds no %s", expedition.ErrItemUnavailable, c.PlayerID, c.ConsumedItem)
		}
		s.inventory[k]--
	}

	e.Result = c.Result
	e.RewardXP = c.XP
	s.encounters[c.EncounterID] = e
	s.players[c.PlayerID] = stats
	if c.Captured != nil {
		s.creatures[c.PlayerID] = append(s.creatures[c.PlayerID], c.Captured.Clone())
	}
	return stats, nil
}
