package combat

import (
	"fmt"
	"slices"

	"github.com/cory-johannsen/basecamp/internal/game/dice"
	"github.com/cory-johannsen/basecamp/internal/game/loot"
)

// State is the ephemeral record of one combat. It is a value: Act returns a
// new State and never mutates the receiver.
type State struct {
	EncounterID string      `json:"encounterId"`
	PlayerID    string      `json:"playerId"`
	Party       []Combatant `json:"playerParty"`
	Wild        Combatant   `json:"wildCreature"`
	Turn        int         `json:"turn"`
	Phase       Phase       `json:"phase"`
	Status      Status      `json:"status"`
	// Rewards is nil while the combat is ongoing and set exactly once on the
	// terminal transition.
	Rewards Rewards `json:"rewards,omitempty"`
}

// Outcome is the result of one action: the new state, the transcript of the
// step, and the rewards if this step reached a terminal status.
type Outcome struct {
	State   State    `json:"state"`
	Log     []string `json:"log"`
	Rewards Rewards  `json:"rewards,omitempty"`
}

// New creates an ongoing combat at turn 1, player phase.
//
// Precondition: party is ordered by party position.
// Postcondition: Returns ErrEmptyParty if no party member is conscious.
func New(encounterID, playerID string, party []Combatant, wild Combatant) (State, error) {
	if !slices.ContainsFunc(party, func(c Combatant) bool { return c.IsConscious() }) {
		return State{}, ErrEmptyParty
	}
	return State{
		EncounterID: encounterID,
		PlayerID:    playerID,
		Party:       slices.Clone(party),
		Wild:        wild,
		Turn:        1,
		Phase:       PhasePlayer,
		Status:      StatusOngoing,
	}, nil
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	s.Party = slices.Clone(s.Party)
	return s
}

// Member returns the party combatant with id.
func (s *State) Member(id string) (*Combatant, bool) {
	for i := range s.Party {
		if s.Party[i].ID == id {
			return &s.Party[i], true
		}
	}
	return nil, false
}

// PartyDown reports whether every party member is at 0 HP.
func (s *State) PartyDown() bool {
	return !slices.ContainsFunc(s.Party, func(c Combatant) bool { return c.IsConscious() })
}

// Act resolves one player action and, unless the combat ended, the enemy
// phase that follows.
//
// Precondition: src must be non-nil.
// Postcondition: On error the returned Outcome is zero and s is unchanged.
// Rewards is non-nil iff this call moved the combat to a terminal status.
func (s State) Act(a Action, src dice.Source) (Outcome, error) {
	if s.Status.Terminal() {
		return Outcome{}, fmt.Errorf("%w: status is %s", ErrCombatAlreadyEnded, s.Status)
	}
	next := s.Clone()
	var log []string

	switch a := a.(type) {
	case Attack:
		actor, err := next.eligible(a.CreatureID)
		if err != nil {
			return Outcome{}, err
		}
		r := ResolveAttack(actor, &next.Wild, src)
		next.Wild.ApplyDamage(r.Damage)
		log = append(log, r.Narrative(actor.Name, next.Wild.Name))
		if !next.Wild.IsConscious() {
			log = append(log, fmt.Sprintf("The wild %s is defeated!", next.Wild.Name))
			return next.finish(StatusVictory, log), nil
		}

	case Capture:
		if a.Item == nil || a.Item.Kind != loot.KindCapture {
			return Outcome{}, fmt.Errorf("%w: capture requires a capture item", ErrInvalidItem)
		}
		chance := CaptureChance(a.Item.Potency, next.Wild.CurrentHP, next.Wild.MaxHP)
		roll := dice.Percent(src)
		if roll < chance {
			log = append(log, fmt.Sprintf("You throw a %s... the wild %s is captured! (%d < %d%%)", a.Item.Name, next.Wild.Name, roll, chance))
			return next.finish(StatusCaptured, log), nil
		}
		log = append(log, fmt.Sprintf("You throw a %s... the wild %s breaks free! (%d >= %d%%)", a.Item.Name, next.Wild.Name, roll, chance))

	case Heal:
		if a.Item == nil || a.Item.Kind != loot.KindHeal {
			return Outcome{}, fmt.Errorf("%w: heal requires a heal item", ErrInvalidItem)
		}
		target, err := next.eligible(a.CreatureID)
		if err != nil {
			return Outcome{}, err
		}
		restored := target.Heal(a.Item.Potency)
		log = append(log, fmt.Sprintf("%s eats a %s and recovers %d HP.", target.Name, a.Item.Name, restored))

	case Flee:
		log = append(log, "You flee from the encounter.")
		return next.finish(StatusFled, log), nil

	default:
		return Outcome{}, fmt.Errorf("unsupported combat action %T", a)
	}

	log = append(log, next.enemyPhase(src)...)
	if next.Status.Terminal() {
		return Outcome{State: next, Log: log, Rewards: next.Rewards}, nil
	}
	return Outcome{State: next, Log: log}, nil
}

// eligible returns the conscious party member with id.
func (s *State) eligible(id string) (*Combatant, error) {
	c, ok := s.Member(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCreature, id)
	}
	if !c.IsConscious() {
		return nil, fmt.Errorf("%w: %s is at 0 HP", ErrIneligibleActor, c.Name)
	}
	return c, nil
}

// enemyTarget picks the conscious party member with the lowest current HP,
// earliest in party order on ties.
func (s *State) enemyTarget() *Combatant {
	var target *Combatant
	for i := range s.Party {
		c := &s.Party[i]
		if !c.IsConscious() {
			continue
		}
		if target == nil || c.CurrentHP < target.CurrentHP {
			target = c
		}
	}
	return target
}

// enemyPhase resolves the wild creature's attack and advances the turn.
//
// Precondition: s is ongoing and the wild creature is conscious.
func (s *State) enemyPhase(src dice.Source) []string {
	s.Phase = PhaseEnemy
	target := s.enemyTarget()
	if target == nil {
		s.setTerminal(StatusDefeat)
		return []string{"Your party has no one left standing."}
	}
	r := ResolveAttack(&s.Wild, target, src)
	target.ApplyDamage(r.Damage)
	log := []string{r.Narrative("The wild "+s.Wild.Name, target.Name)}
	if !target.IsConscious() {
		log = append(log, fmt.Sprintf("%s faints!", target.Name))
	}
	if s.PartyDown() {
		log = append(log, "Your party has been defeated.")
		s.setTerminal(StatusDefeat)
		return log
	}
	s.Turn++
	s.Phase = PhasePlayer
	return log
}

// finish sets a terminal status reached in the player phase.
func (s *State) finish(status Status, log []string) Outcome {
	s.setTerminal(status)
	return Outcome{State: *s, Log: log, Rewards: s.Rewards}
}

// setTerminal records status and computes the matching reward.
//
// Precondition: s.Status is StatusOngoing.
func (s *State) setTerminal(status Status) {
	s.Status = status
	switch status {
	case StatusVictory:
		s.Rewards = VictoryReward{Experience: VictoryXP(s.Wild.Level)}
	case StatusCaptured:
		s.Rewards = CaptureReward{
			Experience: CaptureXP(s.Wild.Level),
			SpeciesID:  s.Wild.SpeciesID,
			Level:      s.Wild.Level,
			Wild:       s.Wild,
		}
	default:
		s.Rewards = NoReward{}
	}
}
