package creature

import "time"

// UserCreature is a creature owned by a player.
//
// Invariant: 0 <= CurrentHP <= HP; PartyPosition != nil iff IsInParty.
type UserCreature struct {
	ID            string    `json:"id"`
	PlayerID      string    `json:"playerId"`
	SpeciesID     string    `json:"speciesId"`
	Level         int       `json:"level"`
	Experience    int       `json:"experience"`
	HP            int       `json:"hp"`
	CurrentHP     int       `json:"currentHp"`
	Str           int       `json:"str"`
	Dex           int       `json:"dex"`
	Wis           int       `json:"wis"`
	IsInParty     bool      `json:"isInParty"`
	PartyPosition *int      `json:"partyPosition"`
	CreatedAt     time.Time `json:"createdAt"`
}

// IsConscious reports whether the creature can still act in combat.
func (c *UserCreature) IsConscious() bool {
	return c.CurrentHP > 0
}

// AC returns the creature's armor class.
func (c *UserCreature) AC() int {
	return ArmorClass(c.Dex)
}

// Clone returns a deep copy, including the party position pointer.
func (c UserCreature) Clone() UserCreature {
	if c.PartyPosition != nil {
		pos := *c.PartyPosition
		c.PartyPosition = &pos
	}
	return c
}
