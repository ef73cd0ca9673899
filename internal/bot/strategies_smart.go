package bot

import (
	botinternal "cribbage/internal/bot/internal"
	"cribbage/internal/domain"
)

// SmartBot weighs its choices by game phase, avoids leaving easy counts and
// reads opponents' gos during pegging.
type SmartBot struct {
	Tuning botinternal.BotTuning
}

func (b *SmartBot) weights(s Situation) botinternal.PhaseWeights {
	return b.Tuning.ForPhase(botinternal.DetectPhase(s.Scores()))
}

func (b *SmartBot) Discard(s Situation, hand []domain.Card, count int) []domain.Card {
	w := b.weights(s)
	starters := s.Starters(hand)
	sign := -1.0
	if s.IsDealer() {
		sign = 1.0
	}

	var best []domain.Card
	bestScore := 0.0
	for _, keep := range botinternal.Combinations(hand, len(hand)-count) {
		discards := botinternal.Without(hand, keep)
		score := w.HandWeight*botinternal.ExpectedHandScore(keep, starters) +
			sign*w.CribWeight*botinternal.CribEstimate(discards)
		if best == nil || score > bestScore {
			best, bestScore = discards, score
		}
	}
	return best
}

func (b *SmartBot) PlayCard(s Situation, playable []domain.Card) domain.Card {
	w := b.weights(s)
	state := s.View.GameState
	unseen := s.Starters(nil)
	cornered := s.Memory != nil && s.Memory.AllSaidGo(s.Opponents())

	best := playable[0]
	bestScore := 0.0
	for i, c := range playable {
		total := state.PeggingTotal + c.Value()
		score := w.PeggingWeight * float64(botinternal.PlayPoints(state.PeggingStack, c))
		if total < domain.MaxPeggingTotal && botinternal.LeavesOpening(total) {
			score -= w.OpeningPenalty
		}
		if total+c.Value() <= domain.MaxPeggingTotal {
			score -= w.PairPenalty * pairOdds(unseen, c)
		}
		if cornered {
			// Nobody else can play: small cards keep the run going.
			score += float64(10-c.Value()) / 10
		}
		if i == 0 || score > bestScore || (score == bestScore && c.Value() < best.Value()) {
			best, bestScore = c, score
		}
	}
	return best
}

// pairOdds is the share of unseen cards that would pair c.
func pairOdds(unseen []domain.Card, c domain.Card) float64 {
	if len(unseen) == 0 {
		return 0
	}
	n := 0
	for _, u := range unseen {
		if u.Rank == c.Rank {
			n++
		}
	}
	return float64(n) * 4 / float64(len(unseen))
}
