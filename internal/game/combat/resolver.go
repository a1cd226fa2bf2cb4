package combat

import (
	"fmt"

	"github.com/cory-johannsen/basecamp/internal/game/creature"
	"github.com/cory-johannsen/basecamp/internal/game/dice"
)

// HitResult grades an attack roll.
type HitResult int

const (
	Miss HitResult = iota
	Hit
	CriticalHit
	CriticalMiss
)

// String returns a human-readable label.
func (h HitResult) String() string {
	switch h {
	case Miss:
		return "miss"
	case Hit:
		return "hit"
	case CriticalHit:
		return "critical hit"
	case CriticalMiss:
		return "critical miss"
	default:
		return "unknown"
	}
}

// Landed reports whether the attack deals damage.
func (h HitResult) Landed() bool { return h == Hit || h == CriticalHit }

// AttackResult holds the outcome of a single attack.
type AttackResult struct {
	AttackerID string
	TargetID   string
	// AttackRoll is the natural d20.
	AttackRoll int
	// AttackTotal is AttackRoll plus the attacker's strength modifier.
	AttackTotal int
	TargetAC    int
	Result      HitResult
	// DamageRoll is the zero value on a miss.
	DamageRoll dice.RollResult
	Damage     int
}

// ResolveAttack rolls d20 + mod(str) against the target's AC. A natural 1
// always misses and a natural 20 always hits with doubled damage dice. Damage
// is the attacker's damage dice plus mod(str), at least 1 on a hit. No state
// is mutated.
//
// Precondition: attacker and target must be non-nil; src must be non-nil.
func ResolveAttack(attacker, target *Combatant, src dice.Source) AttackResult {
	d20 := dice.D20(src)
	strMod := creature.AbilityMod(attacker.Str)
	r := AttackResult{
		AttackerID:  attacker.ID,
		TargetID:    target.ID,
		AttackRoll:  d20,
		AttackTotal: d20 + strMod,
		TargetAC:    target.AC,
	}
	switch {
	case d20 == 1:
		r.Result = CriticalMiss
	case d20 == 20:
		r.Result = CriticalHit
	case r.AttackTotal >= target.AC:
		r.Result = Hit
	default:
		r.Result = Miss
	}
	if !r.Result.Landed() {
		return r
	}

	expr := attacker.damageExpr()
	if r.Result == CriticalHit {
		expr.Count *= 2
	}
	r.DamageRoll = dice.Roll(expr, src)
	r.Damage = max(1, r.DamageRoll.Total()+strMod)
	return r
}

// Narrative renders r as a log line.
func (r AttackResult) Narrative(attacker, target string) string {
	switch r.Result {
	case CriticalMiss:
		return fmt.Sprintf("CRITICAL MISS! %s stumbles attacking %s.", attacker, target)
	case Miss:
		return fmt.Sprintf("%s attacks %s: %d vs AC %d, miss.", attacker, target, r.AttackTotal, r.TargetAC)
	case CriticalHit:
		return fmt.Sprintf("CRITICAL HIT! %s strikes %s for %d damage.", attacker, target, r.Damage)
	default:
		return fmt.Sprintf("%s attacks %s: %d vs AC %d, hit for %d damage.", attacker, target, r.AttackTotal, r.TargetAC, r.Damage)
	}
}

// CaptureChance returns the percent chance that a capture item of the given
// potency succeeds against a creature at currentHP of maxHP:
// (40 + 5*potency) * (1 - currentHP/(2*maxHP)), clamped to [1, 95].
//
// Precondition: maxHP > 0; 0 <= currentHP <= maxHP.
// Postcondition: non-increasing in currentHP, non-decreasing in potency.
func CaptureChance(potency, currentHP, maxHP int) int {
	base := 40 + 5*potency
	chance := base * (2*maxHP - currentHP) / (2 * maxHP)
	return min(max(chance, 1), 95)
}
