// internal/game/pairs.go
package game

// RemoveMatchedPairs strips matched ranks from a hand and returns the
// remaining hand plus the cards that were removed, preserving the relative
// order of survivors. For every rank holding n >= 2 cards the first
// floor(n/2)*2 occurrences are removed, so 3 of a rank leaves 1 and 4 leaves
// none. The joker never participates in a match.
func RemoveMatchedPairs(hand []Card) (remaining, removed []Card) {
	byRank := make(map[string][]int)
	for i, c := range hand {
		if c.Joker {
			continue
		}
		byRank[c.Rank] = append(byRank[c.Rank], i)
	}

	drop := make(map[int]bool)
	for _, indices := range byRank {
		pairs := (len(indices) / 2) * 2
		for _, idx := range indices[:pairs] {
			drop[idx] = true
		}
	}
	if len(drop) == 0 {
		return hand, nil
	}

	remaining = make([]Card, 0, len(hand)-len(drop))
	removed = make([]Card, 0, len(drop))
	for i, c := range hand {
		if drop[i] {
			removed = append(removed, c)
		} else {
			remaining = append(remaining, c)
		}
	}
	return remaining, removed
}

// purgeToFixedPoint runs RemoveMatchedPairs until the hand stops shrinking.
// A single global pass already removes every matched set, but the original
// rules run the purge to a fixed point after the deal and this keeps that
// guarantee explicit.
func purgeToFixedPoint(hand []Card) (remaining []Card, removed []Card) {
	remaining = hand
	for {
		var r []Card
		remaining, r = RemoveMatchedPairs(remaining)
		if len(r) == 0 {
			return remaining, removed
		}
		removed = append(removed, r...)
	}
}
