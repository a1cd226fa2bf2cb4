// Package player holds the player-level progression values the expedition
// engine reads (level) and writes (experience).
package player

import "fmt"

// Stats is a player's progression record.
//
// Invariant: Level >= 1; Experience >= 0 and never decreases.
type Stats struct {
	PlayerID   string `json:"playerId"`
	Level      int    `json:"level"`
	Experience int    `json:"experience"`
}

// New returns the starting Stats for playerID.
func New(playerID string) Stats {
	return Stats{PlayerID: playerID, Level: 1}
}

// MaxPartySize reports how many creatures may be in the active party.
func (s Stats) MaxPartySize() int {
	return MaxPartySize(s.Level)
}

// AwardExperience adds xp to the running total.
//
// Precondition: xp >= 0.
// Postcondition: Experience is increased by xp; an error leaves s unchanged.
func (s *Stats) AwardExperience(xp int) error {
	if xp < 0 {
		return fmt.Errorf("player %q: experience award must be >= 0, got %d", s.PlayerID, xp)
	}
	s.Experience += xp
	return nil
}

// MaxPartySize maps a player level onto active-party capacity:
// level < 3 → 1, 3–4 → 2, 5–6 → 3, 7+ → 4.
func MaxPartySize(level int) int {
	switch {
	case level >= 7:
		return 4
	case level >= 5:
		return 3
	case level >= 3:
		return 2
	default:
		return 1
	}
}
