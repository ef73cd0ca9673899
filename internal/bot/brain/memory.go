package brain

import (
	"cribbage/internal/domain"
)

// CardStatus represents what the bot knows about a specific card.
type CardStatus int

const (
	StatusUnknown   CardStatus = iota // Could be anywhere: deck, crib or an opponent's hand
	StatusMine                        // In the bot's hand
	StatusPlayed                      // Face up: pegged or turned
	StatusDiscarded                   // Thrown into the crib by the bot
)

// GameMemory stores the bot's private "view" of the current round.
type GameMemory struct {
	// DeckStatus tracks all 52 cards. Index = (Rank-1)*4 + Suit.
	DeckStatus [52]CardStatus
	// Opponents tracks behavioral profiles by player id.
	Opponents map[string]*OpponentProfile
	// Round is the round the memory was last synced to.
	Round int
}

// NewMemory initializes a fresh memory state.
func NewMemory() *GameMemory {
	return &GameMemory{
		Opponents: make(map[string]*OpponentProfile),
	}
}

// Reset clears the memory for a new round.
func (m *GameMemory) Reset() {
	for i := range m.DeckStatus {
		m.DeckStatus[i] = StatusUnknown
	}
	for _, p := range m.Opponents {
		p.ResetRound()
	}
}

// MarkMine records the cards currently in the bot's hand.
func (m *GameMemory) MarkMine(cards []domain.Card) {
	m.mark(cards, StatusMine)
}

// MarkPlayed records cards that are face up on the table.
func (m *GameMemory) MarkPlayed(cards []domain.Card) {
	m.mark(cards, StatusPlayed)
}

// MarkDiscarded records the bot's own crib discards.
func (m *GameMemory) MarkDiscarded(cards []domain.Card) {
	m.mark(cards, StatusDiscarded)
}

func (m *GameMemory) mark(cards []domain.Card, status CardStatus) {
	for _, c := range cards {
		if c.Valid() {
			m.DeckStatus[cardToIndex(c)] = status
		}
	}
}

// UpdateHand marks the current hand as Mine; cards that were Mine before and
// are gone now are left as Unknown until an event says where they went.
func (m *GameMemory) UpdateHand(hand []domain.Card) {
	for i, status := range m.DeckStatus {
		if status == StatusMine {
			m.DeckStatus[i] = StatusUnknown
		}
	}
	m.MarkMine(hand)
}

// Sync refreshes the memory from a redacted snapshot for playerID.
func (m *GameMemory) Sync(view domain.SnapshotView, playerID string) {
	state := view.GameState
	if state.RoundNumber != m.Round {
		m.Reset()
		m.Round = state.RoundNumber
	}
	for _, p := range state.Players {
		if p.ID == playerID {
			m.UpdateHand(VisibleCards(p.Hand))
		}
	}
	for _, pc := range state.PlayedCards {
		m.MarkPlayed([]domain.Card{pc.Card})
	}
	m.MarkPlayed(state.PeggingStack)
	if state.TurnCard != nil {
		m.MarkPlayed([]domain.Card{*state.TurnCard})
	}
}

// Observe folds one redacted event into the memory.
func (m *GameMemory) Observe(e domain.EventView, playerID string) {
	actor := ""
	if e.PlayerID != nil {
		actor = *e.PlayerID
	}
	switch e.ActionType {
	case domain.ActionStartRound:
		m.Reset()
		m.Round = e.Round
	case domain.ActionDiscard:
		if actor == playerID {
			m.MarkDiscarded(VisibleCards(e.Cards))
		}
	case domain.ActionPlayCard:
		cards := VisibleCards(e.Cards)
		m.MarkPlayed(cards)
		if actor != playerID && actor != "" {
			for _, c := range cards {
				m.Opponent(actor).RecordPlay(c)
			}
		}
	case domain.ActionGo:
		if actor != playerID && actor != "" {
			m.Opponent(actor).RecordGo()
		}
	case domain.ActionResetPeggingRound:
		for _, p := range m.Opponents {
			p.ResetCount()
		}
	}
}

// Opponent returns the profile for id, creating it on first use.
func (m *GameMemory) Opponent(id string) *OpponentProfile {
	p, ok := m.Opponents[id]
	if !ok {
		p = NewOpponentProfile(id)
		m.Opponents[id] = p
	}
	return p
}

// AllSaidGo reports whether every listed opponent has said go in the current count.
func (m *GameMemory) AllSaidGo(ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		p, ok := m.Opponents[id]
		if !ok || !p.SaidGo {
			return false
		}
	}
	return true
}

// Unseen lists every card whose location is unknown to the bot.
func (m *GameMemory) Unseen() []domain.Card {
	var out []domain.Card
	for i, status := range m.DeckStatus {
		if status == StatusUnknown {
			out = append(out, indexToCard(i))
		}
	}
	return out
}

// IsPlayed returns true if the card is face up.
func (m *GameMemory) IsPlayed(c domain.Card) bool {
	return m.DeckStatus[cardToIndex(c)] == StatusPlayed
}

// VisibleCards keeps the cards the viewer may see.
func VisibleCards(views []domain.CardView) []domain.Card {
	out := make([]domain.Card, 0, len(views))
	for _, v := range views {
		if c, ok := v.Card(); ok {
			out = append(out, c)
		}
	}
	return out
}

// cardToIndex converts domain.Card to a 0-51 index.
func cardToIndex(c domain.Card) int {
	return (int(c.Rank)-1)*4 + int(c.Suit)
}

func indexToCard(i int) domain.Card {
	return domain.NewCard(domain.Rank(i/4+1), domain.Suit(i%4))
}
