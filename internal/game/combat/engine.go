package combat

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/basecamp/internal/game/dice"
)

// Engine holds the current combat of each player, keyed by player ID.
// A terminal combat is kept until the player starts another one, so actions
// against it keep failing with ErrCombatAlreadyEnded.
// All methods are safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	combats map[string]State
	src     dice.Source
	logger  *zap.Logger
}

// NewEngine creates an empty Engine drawing from src.
//
// Precondition: src and logger must be non-nil.
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine(src dice.Source, logger *zap.Logger) *Engine {
	return &Engine{
		combats: make(map[string]State),
		src:     src,
		logger:  logger.Named("combat"),
	}
}

// Start registers s as the player's combat.
//
// Precondition: s.Status is StatusOngoing.
// Postcondition: Returns an error wrapping ErrCombatAlreadyInProgress if the
// player already has an ongoing combat.
func (e *Engine) Start(s State) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cur, ok := e.combats[s.PlayerID]; ok && !cur.Status.Terminal() {
		return fmt.Errorf("%w: encounter %s", ErrCombatAlreadyInProgress, cur.EncounterID)
	}
	e.combats[s.PlayerID] = s.Clone()
	e.logger.Info("combat started",
		zap.String("player_id", s.PlayerID),
		zap.String("encounter_id", s.EncounterID),
		zap.String("wild_species", s.Wild.SpeciesID),
		zap.Int("wild_level", s.Wild.Level),
		zap.Int("party_size", len(s.Party)),
	)
	return nil
}

// Get returns a copy of the player's current combat.
//
// Postcondition: Returns (state, true) if found, or (zero, false) otherwise.
func (e *Engine) Get(playerID string) (State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.combats[playerID]
	if !ok {
		return State{}, false
	}
	return s.Clone(), true
}

// Check returns the player's ongoing combat.
//
// Postcondition: Returns ErrNoActiveCombat or ErrCombatAlreadyEnded when there is none.
func (e *Engine) Check(playerID string) (State, error) {
	s, ok := e.Get(playerID)
	if !ok {
		return State{}, ErrNoActiveCombat
	}
	if s.Status.Terminal() {
		return State{}, fmt.Errorf("%w: status is %s", ErrCombatAlreadyEnded, s.Status)
	}
	return s, nil
}

// Act resolves a in the player's current combat and stores the new state.
//
// Postcondition: Returns ErrNoActiveCombat if the player has no combat; on
// any error the stored state is unchanged.
func (e *Engine) Act(playerID string, a Action) (Outcome, error) {
	out, err := e.Resolve(playerID, a)
	if err != nil {
		return Outcome{}, err
	}
	if err := e.Commit(out); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// Resolve computes the outcome of a against a copy of the player's current
// combat. The stored state is not changed until the outcome is passed to Commit.
//
// Postcondition: Returns ErrNoActiveCombat if the player has no combat.
func (e *Engine) Resolve(playerID string, a Action) (Outcome, error) {
	s, ok := e.Get(playerID)
	if !ok {
		return Outcome{}, ErrNoActiveCombat
	}
	out, err := s.Act(a, e.src)
	if err != nil {
		return Outcome{}, err
	}
	e.logger.Debug("combat action",
		zap.String("player_id", playerID),
		zap.String("action", a.Name()),
		zap.Int("turn", out.State.Turn),
		zap.Int("wild_hp", out.State.Wild.CurrentHP),
	)
	return out, nil
}

// Commit stores an outcome produced by Resolve as the player's combat.
//
// Precondition: out came from Resolve for the same player.
// Postcondition: Returns ErrNoActiveCombat if the combat was replaced or
// dropped since Resolve, and an error wrapping ErrCombatAlreadyEnded if it
// already reached a terminal status; the stored state is then unchanged.
func (e *Engine) Commit(out Outcome) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	playerID := out.State.PlayerID
	cur, ok := e.combats[playerID]
	if !ok || cur.EncounterID != out.State.EncounterID {
		return ErrNoActiveCombat
	}
	if cur.Status.Terminal() {
		return fmt.Errorf("%w: status is %s", ErrCombatAlreadyEnded, cur.Status)
	}
	e.combats[playerID] = out.State.Clone()

	if out.Rewards != nil {
		e.logger.Info("combat ended",
			zap.String("player_id", playerID),
			zap.String("encounter_id", out.State.EncounterID),
			zap.String("status", string(out.State.Status)),
			zap.Int("xp", out.Rewards.XP()),
		)
	}
	return nil
}

// Finish drops the player's combat if it is terminal.
//
// Postcondition: Returns true iff a terminal combat was removed.
func (e *Engine) Finish(playerID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.combats[playerID]
	if !ok || !s.Status.Terminal() {
		return false
	}
	delete(e.combats, playerID)
	return true
}
