package bot

import (
	botinternal "cribbage/internal/bot/internal"
	"cribbage/internal/domain"
)

// GreedyBot keeps the four cards with the best average show and pegs for the
// most immediate points.
type GreedyBot struct{}

func (b *GreedyBot) Discard(s Situation, hand []domain.Card, count int) []domain.Card {
	starters := s.Starters(hand)
	dealer := s.IsDealer()

	var best []domain.Card
	bestScore := 0.0
	for _, keep := range botinternal.Combinations(hand, len(hand)-count) {
		discards := botinternal.Without(hand, keep)
		score := botinternal.ExpectedHandScore(keep, starters)
		if dealer {
			score += botinternal.CribEstimate(discards)
		} else {
			score -= botinternal.CribEstimate(discards)
		}
		if best == nil || score > bestScore {
			best, bestScore = discards, score
		}
	}
	return best
}

func (b *GreedyBot) PlayCard(s Situation, playable []domain.Card) domain.Card {
	stack := s.View.GameState.PeggingStack
	best := playable[0]
	bestPts := botinternal.PlayPoints(stack, best)
	for _, c := range playable[1:] {
		pts := botinternal.PlayPoints(stack, c)
		// Ties go to the lower card to save the high ones.
		if pts > bestPts || (pts == bestPts && c.Value() < best.Value()) {
			best, bestPts = c, pts
		}
	}
	return best
}
