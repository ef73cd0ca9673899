package domain

import "fmt"

// CanPlay reports whether the card fits under the pegging cap.
func (g *Game) CanPlay(c Card) bool {
	return g.state.PeggingTotal+c.Value() <= MaxPeggingTotal
}

// PeggingTurn returns the player expected to play next, or "" when nobody can.
func (g *Game) PeggingTurn() string { return g.state.PeggingTurn }

// PeggingTotal returns the running count of the current sub-round.
func (g *Game) PeggingTotal() int { return g.state.PeggingTotal }

// PeggingDone reports whether every pegging hand is empty.
func (g *Game) PeggingDone() bool {
	for _, p := range g.state.Players {
		if len(p.PeggingHand) > 0 {
			return false
		}
	}
	return true
}

// PlayableCards returns the cards in the player's pegging hand that fit under 31.
func (g *Game) PlayableCards(playerID string) []Card {
	p, ok := g.state.Player(playerID)
	if !ok {
		return nil
	}
	var out []Card
	for _, c := range p.PeggingHand {
		if g.CanPlay(c) {
			out = append(out, c)
		}
	}
	return out
}

// PlayCard plays card for the player, or declares go when card is nil.
// It returns the id of the player credited with ending the count, by
// reaching 31 or by last card, or "" while the count goes on. A repeated go
// from a player who already said go in this count is a no-op.
func (g *Game) PlayCard(playerID string, card *Card) (string, error) {
	if err := g.guard("play card", PhasePegging); err != nil {
		return "", err
	}
	p, err := g.player("play card", playerID)
	if err != nil {
		return "", err
	}
	if card == nil && containsString(g.state.PeggingGoPlayers, playerID) {
		return "", nil
	}
	if g.state.PeggingTurn != playerID {
		return "", fmt.Errorf("play card %q, turn is %q: %w", playerID, g.state.PeggingTurn, ErrNotYourTurn)
	}

	if card == nil {
		if playable := g.PlayableCards(playerID); len(playable) > 0 {
			return "", fmt.Errorf("go while holding %v: %w", playable, ErrMustPlay)
		}
		g.removeRequest(playerID, DecisionPlayCard)
		g.state.PeggingGoPlayers = append(g.state.PeggingGoPlayers, playerID)
		g.record(ActionGo, playerID, nil, 0, nil)
		return g.advancePegging(g.state.seatOf(playerID))
	}

	c := *card
	if !c.Valid() {
		return "", fmt.Errorf("play %v: %w", c, ErrInvalidCard)
	}
	if !ContainsAll(p.PeggingHand, []Card{c}) {
		return "", fmt.Errorf("play %v from %v: %w", c, p.PeggingHand, ErrCardNotInHand)
	}
	if !g.CanPlay(c) {
		return "", fmt.Errorf("play %v on %d: %w", c, g.state.PeggingTotal, ErrExceedsThirtyOne)
	}

	g.removeRequest(playerID, DecisionPlayCard)
	p.PeggingHand = RemoveCards(p.PeggingHand, []Card{c})
	g.state.PeggingStack = append(g.state.PeggingStack, c)
	g.state.PeggingTotal += c.Value()
	g.state.PlayedCards = append(g.state.PlayedCards, PlayedCard{PlayerID: playerID, Card: c})
	g.state.PeggingLastCardPlayer = playerID

	if g.addScore(p, ActionPlayCard, []Card{c}, ScorePeggingBreakdown(g.state.PeggingStack)) {
		return "", nil
	}
	seat := g.state.seatOf(playerID)
	if g.state.PeggingTotal == MaxPeggingTotal {
		g.resetPeggingRound(seat)
		return playerID, nil
	}
	return g.advancePegging(seat)
}

// advancePegging hands the turn to the next player who can still act. When
// nobody can, the last player to lay a card scores one and the count resets.
func (g *Game) advancePegging(fromSeat int) (string, error) {
	if next := g.nextEligible(fromSeat); next != "" {
		g.state.PeggingTurn = next
		return "", nil
	}

	last := g.state.PeggingLastCardPlayer
	if last == "" {
		// Everyone passed on a fresh count; only possible with empty hands.
		g.resetPeggingRound(fromSeat)
		return "", nil
	}
	p, _ := g.state.Player(last)
	item := []ScoreBreakdownItem{{Type: ScoreLastCard, Points: 1, Label: "Last card"}}
	if g.addScore(p, ActionLastCard, nil, item) {
		return last, nil
	}
	g.resetPeggingRound(g.state.seatOf(last))
	return last, nil
}

// nextEligible returns the first player after fromSeat who still holds cards
// and has not said go in this sub-round.
func (g *Game) nextEligible(fromSeat int) string {
	n := len(g.state.Players)
	for i := 1; i <= n; i++ {
		p := g.state.Players[(fromSeat+i)%n]
		if len(p.PeggingHand) > 0 && !containsString(g.state.PeggingGoPlayers, p.ID) {
			return p.ID
		}
	}
	return ""
}

// resetPeggingRound clears the count and gives the lead to the player after
// lastSeat, or to nobody once every pegging hand is empty.
func (g *Game) resetPeggingRound(lastSeat int) {
	g.resetPegging()
	g.record(ActionResetPeggingRound, "", nil, 0, nil)
	g.state.PeggingTurn = g.nextEligible(lastSeat)
}

func (g *Game) resetPegging() {
	g.state.PeggingStack = nil
	g.state.PeggingTotal = 0
	g.state.PeggingGoPlayers = nil
	g.state.PeggingLastCardPlayer = ""
}
