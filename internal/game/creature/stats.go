package creature

// Stats is the level-scaled stat block of a creature.
type Stats struct {
	Level int `json:"level"`
	MaxHP int `json:"maxHp"`
	AC    int `json:"ac"`
	Str   int `json:"str"`
	Dex   int `json:"dex"`
	Wis   int `json:"wis"`
}

// AbilityMod computes the standard ability modifier: floor((score - 10) / 2).
func AbilityMod(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// ScaleStat grows a base ability score by one point for every two levels past the first.
//
// Precondition: level >= 1.
func ScaleStat(base, level int) int {
	return base + (level-1)/2
}

// MaxHP is five hit points per level plus the wisdom modifier per level when positive.
//
// Postcondition: Returns >= 5 for level >= 1.
func MaxHP(level, wis int) int {
	return level*5 + level*max(0, AbilityMod(wis))
}

// ArmorClass is 10 plus the dexterity modifier.
func ArmorClass(dex int) int {
	return 10 + AbilityMod(dex)
}

// Derive computes the stat block of a creature of species s at level.
// It is a pure function: no randomness is drawn once the level is fixed.
//
// Precondition: s must be non-nil; level >= 1.
func Derive(s *Species, level int) Stats {
	str := ScaleStat(s.BaseStr, level)
	dex := ScaleStat(s.BaseDex, level)
	wis := ScaleStat(s.BaseWis, level)
	return Stats{
		Level: level,
		MaxHP: MaxHP(level, wis),
		AC:    ArmorClass(dex),
		Str:   str,
		Dex:   dex,
		Wis:   wis,
	}
}
