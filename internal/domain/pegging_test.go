package domain

import (
	"errors"
	"testing"
)

// peggingFixture drives a two-player game into PEGGING and replaces the
// pegging state so the non-dealer is to act.
func peggingFixture(t *testing.T, own, dealerHand, stack []string, last string) (*Game, string, string) {
	t.Helper()
	g := newTestGame(t, 2, 2)
	driveTo(t, g, PhasePegging)

	dealer := g.DealerID()
	other := g.CountingOrder()[0]
	g.state.Players[g.state.seatOf(other)].PeggingHand = MustParseCards(own...)
	g.state.Players[g.state.seatOf(dealer)].PeggingHand = MustParseCards(dealerHand...)
	g.state.PeggingStack = MustParseCards(stack...)
	g.state.PeggingTotal = 0
	for _, c := range g.state.PeggingStack {
		g.state.PeggingTotal += c.Value()
	}
	g.state.PeggingGoPlayers = nil
	g.state.PeggingTurn = other
	g.state.PeggingLastCardPlayer = ""
	if last == "dealer" {
		g.state.PeggingLastCardPlayer = dealer
	}
	return g, other, dealer
}

func score(g *Game, id string) int {
	p, _ := g.Player(id)
	return p.Score
}

func TestThirtyOneDoesNotAlsoScoreLastCard(t *testing.T) {
	g, other, dealer := peggingFixture(t,
		[]string{"TEN_HEARTS"}, nil,
		[]string{"KING_CLUBS", "ACE_DIAMONDS", "QUEEN_HEARTS"}, "dealer")
	before, dealerBefore := score(g, other), score(g, dealer)
	mark := g.EventCount()

	ten := NewCard(Ten, Hearts)
	credited, err := g.PlayCard(other, &ten)
	if err != nil {
		t.Fatalf("PlayCard() error = %v", err)
	}
	if credited != other {
		t.Fatalf("credited = %q, want %q for thirty-one", credited, other)
	}
	if got := score(g, other); got != before+2 {
		t.Fatalf("score = %d, want %d", got, before+2)
	}
	if got := score(g, dealer); got != dealerBefore {
		t.Fatalf("dealer score changed to %d", got)
	}
	for _, snap := range g.SnapshotsSince(mark) {
		if snap.GameEvent.ActionType == ActionLastCard {
			t.Fatalf("unexpected LAST_CARD event")
		}
	}
	if g.PeggingTotal() != 0 || !g.PeggingDone() || g.PeggingTurn() != "" {
		t.Fatalf("total = %d done = %v turn = %q", g.PeggingTotal(), g.PeggingDone(), g.PeggingTurn())
	}
}

func TestGoAwardsLastCardAndResets(t *testing.T) {
	g, other, dealer := peggingFixture(t,
		[]string{"KING_HEARTS"}, nil,
		[]string{"TEN_CLUBS", "TEN_DIAMONDS", "FIVE_HEARTS"}, "dealer")
	before := score(g, dealer)

	king := NewCard(King, Hearts)
	_, err := g.PlayCard(other, &king)
	if !errors.Is(err, ErrExceedsThirtyOne) || !IsInvalidAction(err) {
		t.Fatalf("expected recoverable ErrExceedsThirtyOne, got %v", err)
	}

	credited, err := g.PlayCard(other, nil)
	if err != nil {
		t.Fatalf("go error = %v", err)
	}
	if credited != dealer {
		t.Fatalf("credited = %q, want %q", credited, dealer)
	}
	if got := score(g, dealer); got != before+1 {
		t.Fatalf("dealer score = %d, want %d", got, before+1)
	}
	if g.PeggingTotal() != 0 {
		t.Fatalf("total = %d after reset", g.PeggingTotal())
	}
	if g.PeggingTurn() != other {
		t.Fatalf("turn = %q, want %q", g.PeggingTurn(), other)
	}
}

func TestRepeatedGoIsNoOp(t *testing.T) {
	g, other, dealer := peggingFixture(t,
		[]string{"KING_HEARTS"}, []string{"FIVE_CLUBS", "KING_SPADES"},
		[]string{"KING_CLUBS", "TEN_DIAMONDS", "FIVE_HEARTS"}, "dealer")

	if credited, err := g.PlayCard(other, nil); err != nil || credited != "" {
		t.Fatalf("first go = %q, %v", credited, err)
	}
	if g.PeggingTurn() != dealer {
		t.Fatalf("turn = %q, want %q", g.PeggingTurn(), dealer)
	}
	mark, total := g.EventCount(), g.PeggingTotal()

	credited, err := g.PlayCard(other, nil)
	if err != nil {
		t.Fatalf("second go error = %v", err)
	}
	if credited != "" {
		t.Fatalf("second go credited %q", credited)
	}
	if g.EventCount() != mark {
		t.Fatalf("second go recorded %d events", g.EventCount()-mark)
	}
	if g.PeggingTurn() != dealer || g.PeggingTotal() != total {
		t.Fatalf("turn = %q total = %d after repeated go", g.PeggingTurn(), g.PeggingTotal())
	}
	if got := len(g.State().PeggingGoPlayers); got != 1 {
		t.Fatalf("go players = %d, want 1", got)
	}
}

// peggingTable drives a game with the given player count into PEGGING and
// sets each pegging hand, in counting order, over the given stack.
func peggingTable(t *testing.T, players int, hands [][]string, stack []string) (*Game, []string) {
	t.Helper()
	g := newTestGame(t, players, 3)
	driveTo(t, g, PhasePegging)

	order := g.CountingOrder()
	for i, id := range order {
		g.state.Players[g.state.seatOf(id)].PeggingHand = MustParseCards(hands[i]...)
	}
	g.state.PeggingStack = MustParseCards(stack...)
	g.state.PeggingTotal = 0
	for _, c := range g.state.PeggingStack {
		g.state.PeggingTotal += c.Value()
	}
	g.state.PeggingGoPlayers = nil
	g.state.PeggingTurn = order[0]
	g.state.PeggingLastCardPlayer = ""
	return g, order
}

func TestThreePlayerGoSkipsAndLastCard(t *testing.T) {
	g, order := peggingTable(t, 3, [][]string{
		{"TWO_HEARTS", "KING_HEARTS"},
		{"KING_SPADES"},
		{"FIVE_CLUBS", "QUEEN_CLUBS"},
	}, []string{"TEN_CLUBS", "TEN_DIAMONDS"})
	a, b, c := order[0], order[1], order[2]
	before := score(g, c)

	play := func(id string, card *Card, wantTurn string) string {
		t.Helper()
		credited, err := g.PlayCard(id, card)
		if err != nil {
			t.Fatalf("PlayCard(%s, %v) error = %v", id, card, err)
		}
		if g.PeggingTurn() != wantTurn {
			t.Fatalf("after %s turn = %q, want %q", id, g.PeggingTurn(), wantTurn)
		}
		return credited
	}

	two, five := NewCard(Two, Hearts), NewCard(Five, Clubs)
	play(a, &two, b)
	play(b, nil, c)
	play(c, &five, a)
	if g.PeggingTotal() != 27 {
		t.Fatalf("total = %d, want 27", g.PeggingTotal())
	}
	play(a, nil, c)

	credited := play(c, nil, a)
	if credited != c {
		t.Fatalf("credited = %q, want %q", credited, c)
	}
	if got := score(g, c); got != before+1 {
		t.Fatalf("last card score = %d, want %d", got, before+1)
	}
	if g.PeggingTotal() != 0 || len(g.State().PeggingGoPlayers) != 0 {
		t.Fatalf("count not reset: total = %d gos = %v", g.PeggingTotal(), g.State().PeggingGoPlayers)
	}
	if _, err := g.PlayCard(b, nil); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("go out of turn after reset, got %v", err)
	}
}

func TestGoRefusedWhileHoldingPlayableCard(t *testing.T) {
	g, other, _ := peggingFixture(t,
		[]string{"TWO_CLUBS", "KING_HEARTS"}, []string{"ACE_CLUBS"},
		[]string{"TEN_CLUBS", "TEN_DIAMONDS", "FIVE_HEARTS"}, "dealer")

	_, err := g.PlayCard(other, nil)
	if !errors.Is(err, ErrMustPlay) || !IsInvalidAction(err) {
		t.Fatalf("expected ErrMustPlay, got %v", err)
	}
	if playable := g.PlayableCards(other); len(playable) != 1 || playable[0] != NewCard(Two, Clubs) {
		t.Fatalf("playable = %v", playable)
	}
}

func TestPlayCardTurnAndHandChecks(t *testing.T) {
	g, other, dealer := peggingFixture(t,
		[]string{"TWO_CLUBS"}, []string{"ACE_CLUBS"}, nil, "")

	ace := NewCard(Ace, Clubs)
	if _, err := g.PlayCard(dealer, &ace); !errors.Is(err, ErrNotYourTurn) || !IsContractViolation(err) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if _, err := g.PlayCard(other, &ace); !errors.Is(err, ErrCardNotInHand) {
		t.Fatalf("expected ErrCardNotInHand, got %v", err)
	}

	if _, err := g.RequestDecision(other, DecisionPlayCard, RequestData{PeggingTotal: 0}, 0); err != nil {
		t.Fatalf("RequestDecision() error = %v", err)
	}
	two := NewCard(Two, Clubs)
	if _, err := g.PlayCard(other, &two); err != nil {
		t.Fatalf("PlayCard() error = %v", err)
	}
	if _, ok := g.PendingRequest(other, DecisionPlayCard); ok {
		t.Fatalf("request must be removed by the play")
	}
	if g.PeggingTurn() != dealer {
		t.Fatalf("turn = %q, want %q", g.PeggingTurn(), dealer)
	}

	credited, err := g.PlayCard(dealer, &ace)
	if err != nil {
		t.Fatalf("PlayCard() error = %v", err)
	}
	if credited != dealer {
		t.Fatalf("final card credited to %q, want %q", credited, dealer)
	}
	if err := g.EndPegging(); err != nil {
		t.Fatalf("EndPegging() error = %v", err)
	}
	if g.Phase() != PhaseCounting {
		t.Fatalf("phase = %s, want %s", g.Phase(), PhaseCounting)
	}
}

func TestEndPeggingRequiresEmptyHands(t *testing.T) {
	g, _, _ := peggingFixture(t, []string{"TWO_CLUBS"}, nil, nil, "")
	if err := g.EndPegging(); !errors.Is(err, ErrPeggingIncomplete) {
		t.Fatalf("expected ErrPeggingIncomplete, got %v", err)
	}
}
