package dice

// Pick draws one entry with probability proportional to weight(entry).
// Entries with a non-positive weight are never chosen.
//
// Postcondition: ok is false iff no entry has a positive weight.
func Pick[T any](src Source, entries []T, weight func(T) int) (chosen T, ok bool) {
	total := 0
	for _, e := range entries {
		if w := weight(e); w > 0 {
			total += w
		}
	}
	if total == 0 {
		return chosen, false
	}
	roll := src.Intn(total)
	for _, e := range entries {
		w := weight(e)
		if w <= 0 {
			continue
		}
		if roll < w {
			return e, true
		}
		roll -= w
	}
	// Unreachable: roll < total == sum of positive weights.
	return chosen, false
}
