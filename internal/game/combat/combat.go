// Package combat implements the turn-based encounter between a player's party
// and a single wild creature.
package combat

import (
	"encoding/json"
	"errors"

	"github.com/cory-johannsen/basecamp/internal/game/creature"
	"github.com/cory-johannsen/basecamp/internal/game/dice"
)

var (
	// ErrCombatAlreadyEnded is returned for any action against a terminal combat.
	ErrCombatAlreadyEnded = errors.New("combat already ended")
	// ErrCombatAlreadyInProgress is returned when a player with an ongoing combat starts another.
	ErrCombatAlreadyInProgress = errors.New("combat already in progress")
	// ErrNoActiveCombat is returned when a player has no combat to act in.
	ErrNoActiveCombat = errors.New("no active combat")
	// ErrIneligibleActor is returned when a creature at 0 HP is asked to act or be healed.
	ErrIneligibleActor = errors.New("creature cannot act")
	// ErrUnknownCreature is returned when an action names a creature outside the party.
	ErrUnknownCreature = errors.New("creature is not in this combat")
	// ErrInvalidItem is returned when an item cannot be used for the requested action.
	ErrInvalidItem = errors.New("item cannot be used for this action")
	// ErrEmptyParty is returned when a combat is started without a conscious party member.
	ErrEmptyParty = errors.New("party has no conscious creature")
)

// Status is the lifecycle state of a combat. Every value other than StatusOngoing is terminal.
type Status string

const (
	StatusOngoing  Status = "ongoing"
	StatusVictory  Status = "victory"
	StatusDefeat   Status = "defeat"
	StatusCaptured Status = "captured"
	StatusFled     Status = "fled"
)

// Terminal reports whether s accepts no further actions.
func (s Status) Terminal() bool { return s != StatusOngoing }

// Phase says whose half of the turn is being resolved.
type Phase string

const (
	PhasePlayer Phase = "player"
	PhaseEnemy  Phase = "enemy"
)

// Combatant is a combat-local stat block. Party combatants carry the owned
// creature's ID; the wild combatant's ID is WildID.
type Combatant struct {
	ID        string `json:"id"`
	SpeciesID string `json:"speciesId"`
	Name      string `json:"name"`
	Level     int    `json:"level"`
	MaxHP     int    `json:"maxHp"`
	CurrentHP int    `json:"currentHp"`
	AC        int    `json:"ac"`
	Str       int    `json:"str"`
	Dex       int    `json:"dex"`
	Wis       int    `json:"wis"`
	Damage    string `json:"damage"`
}

// WildID identifies the wild combatant.
const WildID = "wild"

// FromCreature snapshots an owned creature for combat.
//
// Precondition: sp is the creature's species.
func FromCreature(c creature.UserCreature, sp *creature.Species) Combatant {
	return Combatant{
		ID:        c.ID,
		SpeciesID: c.SpeciesID,
		Name:      sp.Name,
		Level:     c.Level,
		MaxHP:     c.HP,
		CurrentHP: c.CurrentHP,
		AC:        c.AC(),
		Str:       c.Str,
		Dex:       c.Dex,
		Wis:       c.Wis,
		Damage:    sp.DamageExpr().Raw,
	}
}

// Wild builds the full-health wild combatant for species sp at level.
func Wild(sp *creature.Species, level int) Combatant {
	st := creature.Derive(sp, level)
	return Combatant{
		ID:        WildID,
		SpeciesID: sp.ID,
		Name:      sp.Name,
		Level:     level,
		MaxHP:     st.MaxHP,
		CurrentHP: st.MaxHP,
		AC:        st.AC,
		Str:       st.Str,
		Dex:       st.Dex,
		Wis:       st.Wis,
		Damage:    sp.DamageExpr().Raw,
	}
}

// IsConscious reports whether the combatant can still act.
func (c *Combatant) IsConscious() bool { return c.CurrentHP > 0 }

// ApplyDamage reduces CurrentHP by amount, flooring at zero.
//
// Precondition: amount must be >= 0.
// Postcondition: CurrentHP >= 0.
func (c *Combatant) ApplyDamage(amount int) {
	c.CurrentHP = max(0, c.CurrentHP-amount)
}

// Heal restores up to amount hit points without exceeding MaxHP and returns the amount restored.
func (c *Combatant) Heal(amount int) int {
	restored := min(amount, c.MaxHP-c.CurrentHP)
	c.CurrentHP += restored
	return restored
}

func (c *Combatant) damageExpr() dice.Expression {
	if e, err := dice.Parse(c.Damage); err == nil {
		return e
	}
	return dice.MustParse("1d6")
}

// Rewards is the payout fixed at the terminal transition. It is one of
// VictoryReward, CaptureReward or NoReward.
type Rewards interface {
	// XP returns the experience granted to the player.
	XP() int
	// Kind names the variant; it is carried as "kind" in the JSON form.
	Kind() string
	isRewards()
}

// VictoryReward is granted when the wild creature is reduced to 0 HP.
type VictoryReward struct {
	Experience int `json:"xp"`
}

// CaptureReward is granted on a successful capture. Wild is the snapshot
// the new owned creature is built from.
type CaptureReward struct {
	Experience int       `json:"xp"`
	SpeciesID  string    `json:"speciesId"`
	Level      int       `json:"level"`
	Wild       Combatant `json:"wild"`
}

// NoReward is the payout of a defeat or a flight.
type NoReward struct{}

func (r VictoryReward) XP() int { return r.Experience }
func (r CaptureReward) XP() int { return r.Experience }
func (NoReward) XP() int        { return 0 }

func (VictoryReward) Kind() string { return "victory" }
func (CaptureReward) Kind() string { return "capture" }
func (NoReward) Kind() string      { return "none" }

func (r VictoryReward) MarshalJSON() ([]byte, error) {
	type plain VictoryReward
	return json.Marshal(struct {
		Kind string `json:"kind"`
		plain
	}{r.Kind(), plain(r)})
}

func (r CaptureReward) MarshalJSON() ([]byte, error) {
	type plain CaptureReward
	return json.Marshal(struct {
		Kind string `json:"kind"`
		plain
	}{r.Kind(), plain(r)})
}

func (r NoReward) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
	}{r.Kind()})
}

func (VictoryReward) isRewards() {}
func (CaptureReward) isRewards() {}
func (NoReward) isRewards()      {}

// VictoryXP is ten experience per wild level.
func VictoryXP(level int) int { return level * 10 }

// CaptureXP is five experience per wild level.
func CaptureXP(level int) int { return level * 5 }
