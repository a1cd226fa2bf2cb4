package loot

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/basecamp/internal/game/dice"
)

// ErrEmptyPool is returned when a loot roll has no items to choose from.
var ErrEmptyPool = errors.New("loot pool is empty")

// RarityWeight is one row of the rarity table.
type RarityWeight struct {
	Rarity Rarity `mapstructure:"rarity" yaml:"rarity"`
	Weight int    `mapstructure:"weight" yaml:"weight"`
}

// DefaultRarityWeights: common 65%, uncommon 28%, rare 7%.
var DefaultRarityWeights = []RarityWeight{
	{Rarity: Common, Weight: 65},
	{Rarity: Uncommon, Weight: 28},
	{Rarity: Rare, Weight: 7},
}

// ValidateWeights checks a rarity table.
func ValidateWeights(weights []RarityWeight) error {
	total := 0
	for i, w := range weights {
		if !w.Rarity.Valid() {
			return fmt.Errorf("rarity weight[%d]: unknown rarity %q", i, w.Rarity)
		}
		if w.Weight < 0 {
			return fmt.Errorf("rarity weight[%d]: weight must be >= 0, got %d", i, w.Weight)
		}
		total += w.Weight
	}
	if total == 0 {
		return errors.New("rarity weights must sum to more than zero")
	}
	return nil
}

// QuantityRange returns the inclusive drop quantity bounds for a rarity:
// common 1–3, uncommon 1–2, rare and epic exactly 1.
func QuantityRange(r Rarity) (lo, hi int) {
	switch r {
	case Common:
		return 1, 3
	case Uncommon:
		return 1, 2
	default:
		return 1, 1
	}
}

// Drop is the result of a single loot roll.
type Drop struct {
	Item     *Item
	Quantity int
	Rarity   Rarity
}

// RollRarity draws a rarity from weights.
//
// Precondition: weights has passed ValidateWeights.
func RollRarity(weights []RarityWeight, src dice.Source) Rarity {
	w, ok := dice.Pick(src, weights, func(w RarityWeight) int { return w.Weight })
	if !ok {
		return Common
	}
	return w.Rarity
}

// Roll draws a rarity, then an item of that rarity from pool, then a quantity.
// When pool holds no item of the drawn rarity any pool item is chosen instead
// and the drop carries that item's own rarity.
//
// Postcondition: Quantity is within QuantityRange(Rarity); Rarity == Item.Rarity.
func Roll(pool []*Item, weights []RarityWeight, src dice.Source) (Drop, error) {
	if len(pool) == 0 {
		return Drop{}, ErrEmptyPool
	}
	rarity := RollRarity(weights, src)

	var matching []*Item
	for _, it := range pool {
		if it.Rarity == rarity {
			matching = append(matching, it)
		}
	}
	if len(matching) == 0 {
		matching = pool
	}
	item := matching[src.Intn(len(matching))]

	lo, hi := QuantityRange(item.Rarity)
	return Drop{
		Item:     item,
		Quantity: dice.Between(src, lo, hi),
		Rarity:   item.Rarity,
	}, nil
}
