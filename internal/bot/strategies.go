package bot

import (
	"math/rand/v2"

	"cribbage/internal/bot/brain"
	botinternal "cribbage/internal/bot/internal"
	"cribbage/internal/domain"
)

// Situation is everything a brain may look at when deciding.
type Situation struct {
	PlayerID string
	View     domain.SnapshotView
	Memory   *brain.GameMemory
	Rng      *rand.Rand
}

// Brain picks the choices that depend on the cards. Index choices are blind
// and handled by the Agent.
type Brain interface {
	// Discard returns exactly count cards from hand.
	Discard(s Situation, hand []domain.Card, count int) []domain.Card
	// PlayCard returns one of playable, which is never empty.
	PlayCard(s Situation, playable []domain.Card) domain.Card
}

// IsDealer reports whether the deciding player holds the crib this round.
func (s Situation) IsDealer() bool {
	for _, p := range s.View.GameState.Players {
		if p.ID == s.PlayerID {
			return p.IsDealer
		}
	}
	return false
}

// Scores returns the player's score and the best opponent score.
func (s Situation) Scores() (mine, best int) {
	for _, p := range s.View.GameState.Players {
		if p.ID == s.PlayerID {
			mine = p.Score
		} else if p.Score > best {
			best = p.Score
		}
	}
	return mine, best
}

// Opponents lists the other seated players.
func (s Situation) Opponents() []string {
	var out []string
	for _, p := range s.View.GameState.Players {
		if p.ID != s.PlayerID {
			out = append(out, p.ID)
		}
	}
	return out
}

// Starters lists the cards that could still be cut, given what the player holds.
func (s Situation) Starters(hand []domain.Card) []domain.Card {
	if s.Memory == nil {
		return botinternal.Without(domain.NewDeck(), hand)
	}
	return botinternal.Without(s.Memory.Unseen(), hand)
}

// RandomBot makes any legal choice.
type RandomBot struct{}

func (b *RandomBot) Discard(s Situation, hand []domain.Card, count int) []domain.Card {
	perm := s.Rng.Perm(len(hand))
	out := make([]domain.Card, 0, count)
	for _, i := range perm[:count] {
		out = append(out, hand[i])
	}
	return out
}

func (b *RandomBot) PlayCard(s Situation, playable []domain.Card) domain.Card {
	return playable[s.Rng.IntN(len(playable))]
}
