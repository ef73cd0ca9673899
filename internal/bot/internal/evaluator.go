package internal

import "cribbage/internal/domain"

// Combinations returns every k-card subset of cards, preserving order.
func Combinations(cards []domain.Card, k int) [][]domain.Card {
	if k < 0 || k > len(cards) {
		return nil
	}
	var out [][]domain.Card
	pick := make([]domain.Card, 0, k)
	var rec func(start int)
	rec = func(start int) {
		if len(pick) == k {
			out = append(out, append([]domain.Card(nil), pick...))
			return
		}
		for i := start; i <= len(cards)-(k-len(pick)); i++ {
			pick = append(pick, cards[i])
			rec(i + 1)
			pick = pick[:len(pick)-1]
		}
	}
	rec(0)
	return out
}

// ExpectedHandScore averages the show value of keep over every possible
// starter. keep must hold four cards.
func ExpectedHandScore(keep, starters []domain.Card) float64 {
	if len(starters) == 0 {
		return 0
	}
	total := 0
	for _, s := range starters {
		pts, err := domain.ScoreHand(keep, s, false)
		if err != nil {
			return 0
		}
		total += pts
	}
	return float64(total) / float64(len(starters))
}

// CribEstimate is a quick guess at what the discards add to a crib.
func CribEstimate(discards []domain.Card) float64 {
	score := 0.0
	for i, a := range discards {
		if a.Rank == domain.Five {
			score += 1.5
		}
		for _, b := range discards[i+1:] {
			if a.Rank == b.Rank {
				score += 2
			}
			if a.Value()+b.Value() == 15 {
				score += 2
			}
			if d := int(a.Rank) - int(b.Rank); d == 1 || d == -1 {
				score += 0.75
			}
		}
	}
	return score
}

// PlayPoints is what playing c onto the stack scores at once.
func PlayPoints(stack []domain.Card, c domain.Card) int {
	next := make([]domain.Card, 0, len(stack)+1)
	next = append(next, stack...)
	return domain.ScorePegging(append(next, c))
}

// LeavesOpening reports a count any ten-card turns into fifteen or thirty-one.
func LeavesOpening(total int) bool {
	return total == 5 || total == 21
}

// Without returns cards minus the excluded ones.
func Without(cards, excluded []domain.Card) []domain.Card {
	skip := make(map[domain.Card]bool, len(excluded))
	for _, c := range excluded {
		skip[c] = true
	}
	out := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out
}
