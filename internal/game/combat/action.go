package combat

import "github.com/cory-johannsen/basecamp/internal/game/loot"

// Action is one player-phase command. It is one of Attack, Capture, Flee or Heal.
type Action interface {
	// Name returns the action's wire name.
	Name() string
	isAction()
}

// Attack has the named party creature attack the wild creature.
type Attack struct {
	CreatureID string
}

// Capture throws a capture item at the wild creature. The item is consumed
// whether or not the capture succeeds.
type Capture struct {
	Item *loot.Item
}

// Flee ends the combat with no reward.
type Flee struct{}

// Heal uses a heal item on a conscious party creature. The item is consumed.
type Heal struct {
	Item       *loot.Item
	CreatureID string
}

func (Attack) Name() string  { return "attack" }
func (Capture) Name() string { return "capture" }
func (Flee) Name() string    { return "flee" }
func (Heal) Name() string    { return "heal" }

func (Attack) isAction()  {}
func (Capture) isAction() {}
func (Flee) isAction()    {}
func (Heal) isAction()    {}

// ConsumedItem returns the item the action uses up, or nil.
func ConsumedItem(a Action) *loot.Item {
	switch a := a.(type) {
	case Capture:
		return a.Item
	case Heal:
		return a.Item
	}
	return nil
}
