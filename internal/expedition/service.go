// Package expedition orchestrates the daily run loop: habit points unlock
// runs, runs resolve in biomes, encounters become combats and combat rewards
// flow back into the roster and player progression.
package expedition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/basecamp/internal/game/biome"
	"github.com/cory-johannsen/basecamp/internal/game/combat"
	"github.com/cory-johannsen/basecamp/internal/game/creature"
	"github.com/cory-johannsen/basecamp/internal/game/dice"
	"github.com/cory-johannsen/basecamp/internal/game/event"
	"github.com/cory-johannsen/basecamp/internal/game/ledger"
	"github.com/cory-johannsen/basecamp/internal/game/loot"
	"github.com/cory-johannsen/basecamp/internal/game/player"
	"github.com/cory-johannsen/basecamp/internal/game/roster"
)

const dateLayout = "2006-01-02"

// Recorder receives service events for metrics.
type Recorder interface {
	RunResolved(kind string)
	RunRejected(reason string)
	CombatStarted()
	CombatEnded(status string, xp int)
	PartyChanged(op string)
}

// Catalogs bundles the static content the service reads.
type Catalogs struct {
	Biomes  *biome.Catalog
	Species *creature.Registry
	Items   *loot.Catalog
}

// Config holds the service's tunables.
type Config struct {
	Thresholds     ledger.Thresholds
	StarterSpecies string
}

// Service implements the expedition operations. Writes for one player are
// serialised; different players proceed in parallel.
type Service struct {
	cfg      Config
	store    Store
	catalogs Catalogs
	resolver *event.Resolver
	engine   *combat.Engine
	src      dice.Source
	metrics  Recorder
	logger   *zap.Logger
	locks    *playerLocks
	now      func() time.Time
}

// NewService creates a Service.
//
// Precondition: every argument must be non-nil.
// Postcondition: Returns an error if the thresholds are invalid or the
// starter species is not in the catalog.
func NewService(
	cfg Config,
	store Store,
	catalogs Catalogs,
	resolver *event.Resolver,
	engine *combat.Engine,
	src dice.Source,
	metrics Recorder,
	logger *zap.Logger,
) (*Service, error) {
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("expedition thresholds: %w", err)
	}
	if _, ok := catalogs.Species.Get(cfg.StarterSpecies); !ok {
		return nil, fmt.Errorf("starter species %q is not in the species catalog", cfg.StarterSpecies)
	}
	return &Service{
		cfg:      cfg,
		store:    store,
		catalogs: catalogs,
		resolver: resolver,
		engine:   engine,
		src:      src,
		metrics:  metrics,
		logger:   logger.Named("expedition"),
		locks:    newPlayerLocks(),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// RunResult is the outcome of UseRun.
type RunResult struct {
	Progress ledger.DailyProgress
	Result   event.Result
	// Encounter is the pending record created for an encounter result, nil otherwise.
	Encounter *Encounter
}

// CombatResult is the outcome of CombatAction.
type CombatResult struct {
	combat.Outcome
	// Player holds the updated stats once rewards are applied, nil while the combat is ongoing.
	Player *player.Stats `json:"player,omitempty"`
	// Captured is the new bench creature after a successful capture.
	Captured *creature.UserCreature `json:"captured,omitempty"`
}

// ActionRequest names a combat action and its operands.
type ActionRequest struct {
	Kind       string `json:"kind" binding:"required"`
	CreatureID string `json:"creatureId"`
	ItemID     string `json:"itemId"`
}

func checkDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}

// InitPlayer creates a level 1 player holding the starter creature in party position 1.
//
// Postcondition: Returns an error wrapping ErrPlayerExists if playerID is already initialised.
func (s *Service) InitPlayer(ctx context.Context, playerID string) (player.Stats, creature.UserCreature, error) {
	unlock := s.locks.lock(playerID)
	defer unlock()

	sp, _ := s.catalogs.Species.Get(s.cfg.StarterSpecies)
	stats := player.New(playerID)
	starter := roster.Starter(sp, playerID, s.now())
	if err := s.store.CreatePlayer(ctx, stats, starter); err != nil {
		return player.Stats{}, creature.UserCreature{}, err
	}
	s.logger.Info("player initialised",
		zap.String("player_id", playerID),
		zap.String("starter_species", sp.ID),
		zap.String("creature_id", starter.ID),
	)
	return stats, starter, nil
}

// PlayerStats returns the player's level and experience.
func (s *Service) PlayerStats(ctx context.Context, playerID string) (player.Stats, error) {
	return s.store.Player(ctx, playerID)
}

// DailyProgress returns the player's run ledger for date, creating an empty
// record on first read.
//
// Precondition: date is formatted YYYY-MM-DD.
func (s *Service) DailyProgress(ctx context.Context, playerID, date string) (ledger.DailyProgress, error) {
	if err := checkDate(date); err != nil {
		return ledger.DailyProgress{}, err
	}
	unlock := s.locks.lock(playerID)
	defer unlock()
	return s.progressLocked(ctx, playerID, date)
}

func (s *Service) progressLocked(ctx context.Context, playerID, date string) (ledger.DailyProgress, error) {
	p, found, err := s.store.Progress(ctx, playerID, date)
	if err != nil {
		return ledger.DailyProgress{}, err
	}
	if found {
		return p, nil
	}
	p = ledger.NewDailyProgress(playerID, date)
	if err := s.store.SaveProgress(ctx, p); err != nil {
		return ledger.DailyProgress{}, err
	}
	return p, nil
}

// RecordHabitPoints merges the day's habit-point total reported by the habit
// tracker into the ledger.
//
// Precondition: points >= 0; date is formatted YYYY-MM-DD.
// Postcondition: runsAvailable never decreases within the day.
func (s *Service) RecordHabitPoints(ctx context.Context, playerID, date string, points int) (ledger.DailyProgress, error) {
	if err := checkDate(date); err != nil {
		return ledger.DailyProgress{}, err
	}
	if points < 0 {
		return ledger.DailyProgress{}, fmt.Errorf("%w: %d", ErrInvalidPoints, points)
	}
	unlock := s.locks.lock(playerID)
	defer unlock()

	cur, err := s.progressLocked(ctx, playerID, date)
	if err != nil {
		return ledger.DailyProgress{}, err
	}
	next := s.cfg.Thresholds.Apply(cur, points)
	if err := s.store.SaveProgress(ctx, next); err != nil {
		return ledger.DailyProgress{}, err
	}
	if next.RunsAvailable > cur.RunsAvailable {
		s.logger.Info("runs unlocked",
			zap.String("player_id", playerID),
			zap.String("date", date),
			zap.Int("habit_points", next.HabitPointsEarned),
			zap.Int("runs_available", next.RunsAvailable),
		)
	}
	return next, nil
}

// ListBiomes returns the biome catalog for the player's level. With all set,
// locked biomes are included and flagged; otherwise only unlocked ones are returned.
func (s *Service) ListBiomes(ctx context.Context, playerID string, all bool) ([]biome.Listing, error) {
	stats, err := s.store.Player(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if all {
		return s.catalogs.Biomes.List(stats.Level), nil
	}
	return s.catalogs.Biomes.ListAvailable(stats.Level), nil
}

// Inventory lists the player's held items.
func (s *Service) Inventory(ctx context.Context, playerID string) ([]InventoryEntry, error) {
	return s.store.Inventory(ctx, playerID)
}

// UseRun spends one of the day's runs in biomeID. The event is resolved
// first, then the run is consumed and the event's effect recorded in one
// atomic store step.
//
// Postcondition: On success runsUsed increased by exactly one. On any error
// nothing was consumed or recorded; ErrNoRunsAvailable is returned when the
// day's runs are spent.
func (s *Service) UseRun(ctx context.Context, playerID, biomeID, date string) (RunResult, error) {
	if err := checkDate(date); err != nil {
		return RunResult{}, err
	}
	unlock := s.locks.lock(playerID)
	defer unlock()

	stats, err := s.store.Player(ctx, playerID)
	if err != nil {
		return RunResult{}, err
	}
	b, err := s.catalogs.Biomes.Get(biomeID)
	if err != nil {
		s.metrics.RunRejected("invalid_biome")
		return RunResult{}, err
	}
	owned, err := s.store.Creatures(ctx, playerID)
	if err != nil {
		return RunResult{}, err
	}

	p, found, err := s.store.Progress(ctx, playerID, date)
	if err != nil {
		return RunResult{}, err
	}
	if !found || !ledger.CanDrawRun(p) {
		s.metrics.RunRejected("no_runs")
		return RunResult{}, fmt.Errorf("%w: player %s on %s", ErrNoRunsAvailable, playerID, date)
	}

	res, err := s.resolver.Resolve(b, event.Context{
		PlayerLevel: stats.Level,
		PartySize:   len(roster.Party(owned)),
		Tags:        s.tags(owned),
	}, s.src)
	if err != nil {
		s.metrics.RunRejected("access")
		return RunResult{}, err
	}

	var effect RunEffect
	switch r := res.(type) {
	case event.Loot:
		effect.Credit = &InventoryEntry{PlayerID: playerID, ItemID: r.Item.ID, Quantity: r.Quantity}
	case event.Encounter:
		effect.Encounter = &Encounter{
			ID:        uuid.NewString(),
			PlayerID:  playerID,
			BiomeID:   b.ID,
			SpeciesID: r.Species.ID,
			Level:     r.Level,
			Result:    EncounterPending,
			CreatedAt: s.now(),
		}
	}

	p, err = s.store.ConsumeRun(ctx, playerID, date, effect)
	if err != nil {
		if errors.Is(err, ErrNoRunsAvailable) {
			s.metrics.RunRejected("no_runs")
		}
		return RunResult{}, err
	}

	s.metrics.RunResolved(res.Kind())
	s.logger.Info("run consumed",
		zap.String("player_id", playerID),
		zap.String("biome_id", b.ID),
		zap.String("date", date),
		zap.String("result", res.Kind()),
		zap.Int("runs_used", p.RunsUsed),
		zap.Int("runs_available", p.RunsAvailable),
	)
	return RunResult{Progress: p, Result: res, Encounter: effect.Encounter}, nil
}

// tags is the union of the tags of every species the player owns.
func (s *Service) tags(owned []creature.UserCreature) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range owned {
		sp, ok := s.catalogs.Species.Get(c.SpeciesID)
		if !ok {
			continue
		}
		for _, t := range sp.Tags {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// StartCombat begins combat against a pending encounter with a snapshot of
// the player's current party.
//
// Postcondition: Returns ErrCombatAlreadyInProgress if the player is already
// fighting, ErrEncounterResolved if the encounter has ended, and
// ErrEmptyParty if no party member can fight.
func (s *Service) StartCombat(ctx context.Context, playerID, encounterID string) (combat.State, error) {
	unlock := s.locks.lock(playerID)
	defer unlock()

	if cur, ok := s.engine.Get(playerID); ok && !cur.Status.Terminal() {
		return combat.State{}, fmt.Errorf("%w: encounter %s", combat.ErrCombatAlreadyInProgress, cur.EncounterID)
	}
	enc, err := s.store.Encounter(ctx, playerID, encounterID)
	if err != nil {
		return combat.State{}, err
	}
	if enc.Result != EncounterPending {
		return combat.State{}, fmt.Errorf("%w: %s ended in %s", ErrEncounterResolved, enc.ID, enc.Result)
	}
	wildSpecies, ok := s.catalogs.Species.Get(enc.SpeciesID)
	if !ok {
		return combat.State{}, fmt.Errorf("encounter %s: unknown species %q", enc.ID, enc.SpeciesID)
	}

	owned, err := s.store.Creatures(ctx, playerID)
	if err != nil {
		return combat.State{}, err
	}
	var party []combat.Combatant
	for _, c := range roster.Party(owned) {
		sp, ok := s.catalogs.Species.Get(c.SpeciesID)
		if !ok {
			return combat.State{}, fmt.Errorf("creature %s: unknown species %q", c.ID, c.SpeciesID)
		}
		party = append(party, combat.FromCreature(c, sp))
	}

	st, err := combat.New(enc.ID, playerID, party, combat.Wild(wildSpecies, enc.Level))
	if err != nil {
		return combat.State{}, err
	}
	if err := s.engine.Start(st); err != nil {
		return combat.State{}, err
	}
	s.metrics.CombatStarted()
	return st, nil
}

// CombatState returns the player's current or most recently finished combat.
func (s *Service) CombatState(playerID string) (combat.State, error) {
	st, ok := s.engine.Get(playerID)
	if !ok {
		return combat.State{}, combat.ErrNoActiveCombat
	}
	return st, nil
}

// CombatAction resolves one player action and, when it ends the combat,
// records the result, awards experience and admits a captured creature.
// The new combat state is kept only after the store accepted its effects, so
// a failed write leaves the combat where it was and the action can be retried.
//
// Postcondition: Capture and heal items are debited only when the action
// resolves. Returns ErrItemUnavailable without acting if the item is not held.
func (s *Service) CombatAction(ctx context.Context, playerID string, req ActionRequest) (CombatResult, error) {
	unlock := s.locks.lock(playerID)
	defer unlock()

	if _, err := s.engine.Check(playerID); err != nil {
		return CombatResult{}, err
	}
	a, err := s.action(req)
	if err != nil {
		return CombatResult{}, err
	}
	item := combat.ConsumedItem(a)
	if item != nil {
		held, err := s.held(ctx, playerID, item.ID)
		if err != nil {
			return CombatResult{}, err
		}
		if held < 1 {
			return CombatResult{}, fmt.Errorf("%w: %s", ErrItemUnavailable, item.ID)
		}
	}

	out, err := s.engine.Resolve(playerID, a)
	if err != nil {
		return CombatResult{}, err
	}
	result := CombatResult{Outcome: out}

	if out.Rewards == nil {
		if item != nil {
			if err := s.store.DebitItem(ctx, playerID, item.ID, 1); err != nil {
				return CombatResult{}, fmt.Errorf("debiting %s: %w", item.ID, err)
			}
		}
		if err := s.engine.Commit(out); err != nil {
			return CombatResult{}, err
		}
		return result, nil
	}

	completion := Completion{
		PlayerID:    playerID,
		EncounterID: out.State.EncounterID,
		Result:      ResultFor(out.State.Status),
		XP:          out.Rewards.XP(),
	}
	if item != nil {
		completion.ConsumedItem = item.ID
	}
	if r, ok := out.Rewards.(combat.CaptureReward); ok {
		c := roster.AdmitCaptured(r, playerID, s.now())
		completion.Captured = &c
	}
	stats, err := s.store.CompleteEncounter(ctx, completion)
	if err != nil {
		return CombatResult{}, fmt.Errorf("recording combat result: %w", err)
	}
	if err := s.engine.Commit(out); err != nil {
		s.logger.Error("combat result recorded but state not kept",
			zap.String("player_id", playerID),
			zap.String("encounter_id", completion.EncounterID),
			zap.Error(err),
		)
		return CombatResult{}, err
	}
	s.metrics.CombatEnded(string(out.State.Status), completion.XP)
	if completion.Captured != nil {
		s.logger.Info("creature captured",
			zap.String("player_id", playerID),
			zap.String("creature_id", completion.Captured.ID),
			zap.String("species_id", completion.Captured.SpeciesID),
			zap.Int("level", completion.Captured.Level),
		)
	}
	result.Player = &stats
	result.Captured = completion.Captured
	return result, nil
}

// action turns a request into a combat action, resolving item IDs.
func (s *Service) action(req ActionRequest) (combat.Action, error) {
	switch req.Kind {
	case "attack":
		return combat.Attack{CreatureID: req.CreatureID}, nil
	case "flee":
		return combat.Flee{}, nil
	case "capture":
		it, err := s.item(req.ItemID)
		if err != nil {
			return nil, err
		}
		return combat.Capture{Item: it}, nil
	case "heal":
		it, err := s.item(req.ItemID)
		if err != nil {
			return nil, err
		}
		return combat.Heal{Item: it, CreatureID: req.CreatureID}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidAction, req.Kind)
}

func (s *Service) item(id string) (*loot.Item, error) {
	it, ok := s.catalogs.Items.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	return it, nil
}

func (s *Service) held(ctx context.Context, playerID, itemID string) (int, error) {
	inv, err := s.store.Inventory(ctx, playerID)
	if err != nil {
		return 0, err
	}
	for _, e := range inv {
		if e.ItemID == itemID {
			return e.Quantity, nil
		}
	}
	return 0, nil
}

// Creatures lists every creature the player owns.
func (s *Service) Creatures(ctx context.Context, playerID string) ([]creature.UserCreature, error) {
	if _, err := s.store.Player(ctx, playerID); err != nil {
		return nil, err
	}
	return s.store.Creatures(ctx, playerID)
}

// PartyAdd moves an owned bench creature into the party and returns the
// updated party ordered by position. A nil position takes the lowest free slot.
//
// Postcondition: Returns ErrPartyFull, ErrInvalidPosition, ErrAlreadyInParty
// or ErrCreatureNotFound with nothing written when the move is not allowed.
func (s *Service) PartyAdd(ctx context.Context, playerID, creatureID string, position *int) ([]creature.UserCreature, error) {
	unlock := s.locks.lock(playerID)
	defer unlock()

	stats, owned, c, err := s.rosterLocked(ctx, playerID, creatureID)
	if err != nil {
		return nil, err
	}
	added, party, err := roster.AddToParty(c, roster.Party(owned), stats.MaxPartySize(), position)
	if err != nil {
		return nil, err
	}
	if err := s.writeParty(ctx, playerID, owned, stats.MaxPartySize(), added); err != nil {
		return nil, err
	}
	s.metrics.PartyChanged("add")
	s.logger.Info("party member added",
		zap.String("player_id", playerID),
		zap.String("creature_id", added.ID),
		zap.Int("position", *added.PartyPosition),
	)
	return party, nil
}

// PartyRemove benches a party member and returns the remaining party ordered
// by position. Other members keep their positions.
func (s *Service) PartyRemove(ctx context.Context, playerID, creatureID string) ([]creature.UserCreature, error) {
	unlock := s.locks.lock(playerID)
	defer unlock()

	stats, owned, _, err := s.rosterLocked(ctx, playerID, creatureID)
	if err != nil {
		return nil, err
	}
	removed, party, err := roster.RemoveFromParty(creatureID, roster.Party(owned))
	if err != nil {
		return nil, err
	}
	if err := s.writeParty(ctx, playerID, owned, stats.MaxPartySize(), removed); err != nil {
		return nil, err
	}
	s.metrics.PartyChanged("remove")
	s.logger.Info("party member removed",
		zap.String("player_id", playerID),
		zap.String("creature_id", removed.ID),
	)
	return party, nil
}

// rosterLocked loads the player's stats and creatures and finds creatureID among them.
func (s *Service) rosterLocked(ctx context.Context, playerID, creatureID string) (player.Stats, []creature.UserCreature, creature.UserCreature, error) {
	stats, err := s.store.Player(ctx, playerID)
	if err != nil {
		return player.Stats{}, nil, creature.UserCreature{}, err
	}
	owned, err := s.store.Creatures(ctx, playerID)
	if err != nil {
		return player.Stats{}, nil, creature.UserCreature{}, err
	}
	for _, c := range owned {
		if c.ID == creatureID {
			return stats, owned, c, nil
		}
	}
	return player.Stats{}, nil, creature.UserCreature{}, fmt.Errorf("%w: %s", ErrCreatureNotFound, creatureID)
}

// writeParty checks the roster with changed applied and then persists changed.
func (s *Service) writeParty(ctx context.Context, playerID string, owned []creature.UserCreature, maxPartySize int, changed creature.UserCreature) error {
	next := make([]creature.UserCreature, len(owned))
	for i, c := range owned {
		if c.ID == changed.ID {
			next[i] = changed.Clone()
			continue
		}
		next[i] = c.Clone()
	}
	if err := roster.Validate(next, maxPartySize); err != nil {
		return fmt.Errorf("party change for %s: %w", playerID, err)
	}
	return s.store.UpdateParty(ctx, playerID, changed)
}
