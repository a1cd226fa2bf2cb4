package event

import (
	"github.com/cory-johannsen/basecamp/internal/game/creature"
	"github.com/cory-johannsen/basecamp/internal/game/loot"
)

// Result is the outcome of resolving one run. It is one of Loot, Encounter or Nothing.
type Result interface {
	// Kind returns "loot", "encounter" or "nothing".
	Kind() string
	isResult()
}

// Loot is an item drop credited to the player's inventory.
type Loot struct {
	Item     *loot.Item
	Quantity int
	Rarity   loot.Rarity
}

// Encounter is a wild creature to be fought. Stats are derived from Species at Level.
type Encounter struct {
	Species *creature.Species
	Level   int
	Stats   creature.Stats
}

// Nothing means the run found nothing.
type Nothing struct{}

func (Loot) Kind() string      { return "loot" }
func (Encounter) Kind() string { return "encounter" }
func (Nothing) Kind() string   { return "nothing" }

func (Loot) isResult()      {}
func (Encounter) isResult() {}
func (Nothing) isResult()   {}
