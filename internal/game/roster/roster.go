// Package roster enforces the capacity and position rules of a player's
// active party and builds newly owned creatures.
package roster

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/basecamp/internal/game/combat"
	"github.com/cory-johannsen/basecamp/internal/game/creature"
)

var (
	// ErrPartyFull is returned when the party already holds maxPartySize creatures.
	ErrPartyFull = errors.New("party is full")
	// ErrInvalidPosition is returned for a requested position that is out of range or taken.
	ErrInvalidPosition = errors.New("invalid party position")
	// ErrAlreadyInParty is returned when adding a creature that is already a party member.
	ErrAlreadyInParty = errors.New("creature is already in the party")
	// ErrCreatureNotFound is returned when a creature ID does not name an owned creature.
	ErrCreatureNotFound = errors.New("creature not found")
)

// Party returns the party members of creatures ordered by position.
func Party(creatures []creature.UserCreature) []creature.UserCreature {
	var party []creature.UserCreature
	for _, c := range creatures {
		if c.IsInParty {
			party = append(party, c.Clone())
		}
	}
	slices.SortFunc(party, func(a, b creature.UserCreature) int {
		return *a.PartyPosition - *b.PartyPosition
	})
	return party
}

// AddToParty places c into party. With a nil position the lowest unused
// position in 1..maxPartySize is assigned.
//
// Precondition: party holds only members of one player and satisfies Validate.
// Postcondition: Returns the updated creature and the new party ordered by
// position; party itself is not modified.
func AddToParty(c creature.UserCreature, party []creature.UserCreature, maxPartySize int, position *int) (creature.UserCreature, []creature.UserCreature, error) {
	if c.IsInParty {
		return creature.UserCreature{}, nil, fmt.Errorf("%w: %s", ErrAlreadyInParty, c.ID)
	}
	if len(party) >= maxPartySize {
		return creature.UserCreature{}, nil, fmt.Errorf("%w: %d of %d slots used", ErrPartyFull, len(party), maxPartySize)
	}

	used := make(map[int]bool, len(party))
	for _, m := range party {
		used[*m.PartyPosition] = true
	}

	var pos int
	if position != nil {
		pos = *position
		if pos < 1 || pos > maxPartySize {
			return creature.UserCreature{}, nil, fmt.Errorf("%w: %d is outside 1..%d", ErrInvalidPosition, pos, maxPartySize)
		}
		if used[pos] {
			return creature.UserCreature{}, nil, fmt.Errorf("%w: %d is taken", ErrInvalidPosition, pos)
		}
	} else {
		for pos = 1; used[pos]; pos++ {
		}
	}

	added := c.Clone()
	added.IsInParty = true
	added.PartyPosition = &pos

	next := make([]creature.UserCreature, 0, len(party)+1)
	for _, m := range party {
		next = append(next, m.Clone())
	}
	next = append(next, added)
	return added, Party(next), nil
}

// RemoveFromParty benches the member with creatureID. Remaining members keep
// their positions, so gaps are allowed.
//
// Postcondition: Returns the benched creature and the remaining party;
// ErrCreatureNotFound if creatureID is not a member.
func RemoveFromParty(creatureID string, party []creature.UserCreature) (creature.UserCreature, []creature.UserCreature, error) {
	idx := slices.IndexFunc(party, func(m creature.UserCreature) bool { return m.ID == creatureID })
	if idx < 0 {
		return creature.UserCreature{}, nil, fmt.Errorf("%w: %s is not in the party", ErrCreatureNotFound, creatureID)
	}
	removed := party[idx].Clone()
	removed.IsInParty = false
	removed.PartyPosition = nil

	rest := make([]creature.UserCreature, 0, len(party)-1)
	for i, m := range party {
		if i != idx {
			rest = append(rest, m.Clone())
		}
	}
	return removed, rest, nil
}

// AdmitCaptured builds a new bench creature from a capture reward. It copies
// species, level and stats from the wild snapshot and starts at full health
// whatever HP the wild creature had left.
//
// Postcondition: CurrentHP == HP; IsInParty is false.
func AdmitCaptured(r combat.CaptureReward, playerID string, now time.Time) creature.UserCreature {
	return creature.UserCreature{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		SpeciesID: r.SpeciesID,
		Level:     r.Level,
		HP:        r.Wild.MaxHP,
		CurrentHP: r.Wild.MaxHP,
		Str:       r.Wild.Str,
		Dex:       r.Wild.Dex,
		Wis:       r.Wild.Wis,
		CreatedAt: now,
	}
}

// Starter builds the level 1 creature a new player begins with, placed in
// party position 1.
func Starter(sp *creature.Species, playerID string, now time.Time) creature.UserCreature {
	st := creature.Derive(sp, 1)
	pos := 1
	return creature.UserCreature{
		ID:            uuid.NewString(),
		PlayerID:      playerID,
		SpeciesID:     sp.ID,
		Level:         1,
		HP:            st.MaxHP,
		CurrentHP:     st.MaxHP,
		Str:           st.Str,
		Dex:           st.Dex,
		Wis:           st.Wis,
		IsInParty:     true,
		PartyPosition: &pos,
		CreatedAt:     now,
	}
}

// Validate checks the roster invariants over all of a player's creatures.
func Validate(creatures []creature.UserCreature, maxPartySize int) error {
	seen := make(map[int]string)
	members := 0
	for _, c := range creatures {
		if c.Level < 1 {
			return fmt.Errorf("creature %s: level must be >= 1, got %d", c.ID, c.Level)
		}
		if c.CurrentHP < 0 || c.CurrentHP > c.HP {
			return fmt.Errorf("creature %s: current HP %d outside 0..%d", c.ID, c.CurrentHP, c.HP)
		}
		if c.IsInParty != (c.PartyPosition != nil) {
			return fmt.Errorf("creature %s: party flag and position disagree", c.ID)
		}
		if !c.IsInParty {
			continue
		}
		members++
		pos := *c.PartyPosition
		if pos < 1 || pos > maxPartySize {
			return fmt.Errorf("creature %s: position %d outside 1..%d", c.ID, pos, maxPartySize)
		}
		if other, dup := seen[pos]; dup {
			return fmt.Errorf("creatures %s and %s share position %d", other, c.ID, pos)
		}
		seen[pos] = c.ID
	}
	if members > maxPartySize {
		return fmt.Errorf("party has %d members, capacity is %d", members, maxPartySize)
	}
	return nil
}
