// Package domain implements the cribbage rules: scoring, the phase state
// machine, decision requests, per-viewer redaction and session documents.
//
// A Game is not safe for concurrent use. Exactly one caller mutates it.
package domain

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Game owns the canonical state and the append-only event log.
type Game struct {
	state  GameState
	roster []PlayerInfo
	events []GameEvent
	pcg    *rand.PCG
	rng    *rand.Rand
	now    func() time.Time
	newID  func() string
}

// Option configures a Game.
type Option func(*Game)

// WithSeed makes shuffles reproducible.
func WithSeed(seed1, seed2 uint64) Option {
	return func(g *Game) {
		g.pcg = rand.NewPCG(seed1, seed2)
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Game) {
		g.now = func() time.Time { return now().UTC() }
	}
}

// WithIDGenerator overrides how request ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(g *Game) { g.newID = newID }
}

func newGame(opts []Option) *Game {
	g := &Game{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.pcg == nil {
		g.pcg = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	g.rng = rand.New(g.pcg)
	return g
}

// NewGame creates a game in DEALER_SELECTION with a shuffled deck to pick from.
// An empty id is replaced by a random uuid.
func NewGame(id string, roster []PlayerInfo, opts ...Option) (*Game, error) {
	rules, err := RulesFor(len(roster))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(roster))
	for _, p := range roster {
		if p.ID == "" || seen[p.ID] {
			return nil, fmt.Errorf("%w: empty or duplicate player id %q", ErrInvalidRoster, p.ID)
		}
		seen[p.ID] = true
	}
	if id == "" {
		id = uuid.NewString()
	}

	g := newGame(opts)
	g.roster = append([]PlayerInfo(nil), roster...)
	g.state = GameState{
		ID:           id,
		Rules:        rules,
		CurrentPhase: PhaseDealerSelection,
	}
	for _, p := range roster {
		g.state.Players = append(g.state.Players, Player{ID: p.ID, Name: p.Name})
	}
	g.state.Deck = NewDeck()
	ShuffleDeck(g.state.Deck, g.rng)
	g.record(ActionBeginPhase, "", nil, 0, nil)
	return g, nil
}

// ID returns the game id.
func (g *Game) ID() string { return g.state.ID }

// Phase returns the current phase.
func (g *Game) Phase() Phase { return g.state.CurrentPhase }

// Rules returns the dealing table in force.
func (g *Game) Rules() Rules { return g.state.Rules }

// Roster returns the seated players in turn order.
func (g *Game) Roster() []PlayerInfo { return append([]PlayerInfo(nil), g.roster...) }

// PlayerIDs returns player ids in seat order.
func (g *Game) PlayerIDs() []string {
	ids := make([]string, len(g.state.Players))
	for i, p := range g.state.Players {
		ids[i] = p.ID
	}
	return ids
}

// State returns a deep copy of the current state.
func (g *Game) State() GameState { return g.state.Clone() }

// Player returns a copy of one player's state.
func (g *Game) Player(id string) (Player, bool) {
	p, ok := g.state.Player(id)
	if !ok {
		return Player{}, false
	}
	out := *p
	out.Hand = cloneCards(p.Hand)
	out.PeggingHand = cloneCards(p.PeggingHand)
	return out, true
}

// Events returns a copy of the full event history.
func (g *Game) Events() []GameEvent {
	out := make([]GameEvent, len(g.events))
	for i, e := range g.events {
		out[i] = cloneEvent(e)
	}
	return out
}

// EventCount returns the length of the event history.
func (g *Game) EventCount() int { return len(g.events) }

// SnapshotID returns the id of the latest event.
func (g *Game) SnapshotID() int64 { return g.state.SnapshotID }

// RoundNumber returns the current round, 0 before the first deal.
func (g *Game) RoundNumber() int { return g.state.RoundNumber }

// Snapshot returns the snapshot for the latest event.
func (g *Game) Snapshot() Snapshot {
	return g.snapshotFor(g.events[len(g.events)-1])
}

// SnapshotsSince returns one snapshot per event recorded after the first n events.
func (g *Game) SnapshotsSince(n int) []Snapshot {
	if n < 0 {
		n = 0
	}
	if n >= len(g.events) {
		return nil
	}
	out := make([]Snapshot, 0, len(g.events)-n)
	for _, e := range g.events[n:] {
		out = append(out, g.snapshotFor(e))
	}
	return out
}

func (g *Game) snapshotFor(e GameEvent) Snapshot {
	state := g.state.Clone()
	return Snapshot{
		GameState:               state,
		GameEvent:               cloneEvent(e),
		PendingDecisionRequests: cloneRequests(state.PendingDecisionRequests),
	}
}

// IsOver reports whether the game reached END.
func (g *Game) IsOver() bool { return g.state.CurrentPhase == PhaseEnd }

// Winner returns the winner id once the game is over.
func (g *Game) Winner() string { return g.state.WinnerID }

// DealerID returns the current dealer id, or "" before dealer selection completes.
func (g *Game) DealerID() string {
	if d, ok := g.state.Dealer(); ok {
		return d.ID
	}
	return ""
}

// CutterID returns the player who cuts: the one seated before the dealer.
func (g *Game) CutterID() string {
	seat := g.state.dealerSeat()
	if seat < 0 {
		return ""
	}
	n := len(g.state.Players)
	return g.state.Players[(seat-1+n)%n].ID
}

// CountingOrder lists players starting left of the dealer, dealer last.
func (g *Game) CountingOrder() []string {
	seat := g.state.dealerSeat()
	if seat < 0 {
		return g.PlayerIDs()
	}
	order := make([]string, 0, len(g.state.Players))
	for i := 1; i <= len(g.state.Players); i++ {
		order = append(order, g.state.Players[(seat+i)%len(g.state.Players)].ID)
	}
	return order
}

// RoundStarted reports whether StartRound ran for the round being played.
func (g *Game) RoundStarted() bool { return g.state.RoundStarted }

// HasSelectedDealerCard reports whether the player already claimed a card.
func (g *Game) HasSelectedDealerCard(playerID string) bool {
	for _, s := range g.state.DealerSelections {
		if s.PlayerID == playerID {
			return true
		}
	}
	return false
}

// HasDiscarded reports whether the player has already discarded this round.
func (g *Game) HasDiscarded(playerID string) bool {
	p, ok := g.state.Player(playerID)
	if !ok {
		return false
	}
	return g.state.RoundStarted && len(p.Hand) == g.state.Rules.HandSize-g.state.Rules.Discards
}

// HasCounted reports whether the player's hand was scored this round.
func (g *Game) HasCounted(playerID string) bool {
	return containsString(g.state.CountedPlayers, playerID)
}

// CribCounted reports whether the crib was scored this round.
func (g *Game) CribCounted() bool { return g.state.CribCounted }

// DeckSize returns the number of cards left in the deck.
func (g *Game) DeckSize() int { return len(g.state.Deck) }

// guard rejects mutations once the game is over or outside the expected phase.
func (g *Game) guard(op string, phase Phase) error {
	if g.IsOver() {
		return fmt.Errorf("%s: %w", op, ErrGameOver)
	}
	if g.state.CurrentPhase != phase {
		return fmt.Errorf("%s in %s: %w", op, g.state.CurrentPhase, ErrWrongPhase)
	}
	return nil
}

func (g *Game) player(op, playerID string) (*Player, error) {
	p, ok := g.state.Player(playerID)
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", op, playerID, ErrUnknownPlayer)
	}
	return p, nil
}

// record appends an event; every event advances the snapshot id.
func (g *Game) record(action ActionType, playerID string, cards []Card, scoreChange int, breakdown []ScoreBreakdownItem) {
	g.state.SnapshotID++
	ev := GameEvent{
		Phase:       g.state.CurrentPhase,
		ActionType:  action,
		Cards:       cloneCards(cards),
		ScoreChange: scoreChange,
		Breakdown:   breakdown,
		Round:       g.state.RoundNumber,
		Timestamp:   g.now(),
		SnapshotID:  g.state.SnapshotID,
	}
	if playerID != "" {
		id := playerID
		ev.PlayerID = &id
	}
	g.events = append(g.events, ev)
}

func (g *Game) transition(phase Phase) {
	g.state.CurrentPhase = phase
	g.record(ActionBeginPhase, "", nil, 0, nil)
}

// addScore credits points and ends the game when the score passes 120.
// It reports whether the game ended.
func (g *Game) addScore(p *Player, action ActionType, cards []Card, breakdown []ScoreBreakdownItem) bool {
	points := TotalPoints(breakdown)
	if points > 0 {
		p.PegPositions.Previous = p.PegPositions.Current
		p.Score += points
		p.PegPositions.Current = p.Score
	}
	g.record(action, p.ID, cards, points, breakdown)
	if p.Score >= WinningScore {
		g.finish(p.ID)
		return true
	}
	return false
}

func (g *Game) finish(winnerID string) {
	g.clearRequests()
	g.state.WinnerID = winnerID
	g.state.CurrentPhase = PhaseEnd
	g.record(ActionWin, winnerID, nil, 0, nil)
}

// SelectDealerCard claims a blind index into the deck. A claimed index is
// moved forward, wrapping, to the next free one. Once every player has
// selected, the lowest card deals and the game moves to DEALING.
func (g *Game) SelectDealerCard(playerID string, requestedIndex int) (DealerSelection, error) {
	if err := g.guard("select dealer card", PhaseDealerSelection); err != nil {
		return DealerSelection{}, err
	}
	if _, err := g.player("select dealer card", playerID); err != nil {
		return DealerSelection{}, err
	}
	if g.HasSelectedDealerCard(playerID) {
		return DealerSelection{}, fmt.Errorf("select dealer card %q: %w", playerID, ErrAlreadySelected)
	}
	deckLen := len(g.state.Deck)
	if requestedIndex < 0 || requestedIndex >= deckLen {
		return DealerSelection{}, fmt.Errorf("select dealer card index %d of %d: %w", requestedIndex, deckLen, ErrIndexOutOfRange)
	}

	claimed := make(map[int]bool, len(g.state.DealerSelections))
	for _, s := range g.state.DealerSelections {
		claimed[s.Index] = true
	}
	idx := requestedIndex
	for claimed[idx] {
		idx = (idx + 1) % deckLen
	}

	sel := DealerSelection{PlayerID: playerID, Index: idx, Card: g.state.Deck[idx]}
	g.state.DealerSelections = append(g.state.DealerSelections, sel)
	g.removeRequest(playerID, DecisionSelectDealerCard)
	g.record(ActionSelectDealerCard, playerID, []Card{sel.Card}, 0, nil)

	if len(g.state.DealerSelections) == len(g.state.Players) {
		best := g.state.DealerSelections[0]
		for _, s := range g.state.DealerSelections[1:] {
			if cardOrder(s.Card) < cardOrder(best.Card) {
				best = s
			}
		}
		for i := range g.state.Players {
			g.state.Players[i].IsDealer = g.state.Players[i].ID == best.PlayerID
		}
		g.record(ActionDealerSelected, best.PlayerID, []Card{best.Card}, 0, nil)
		g.transition(PhaseDealing)
	}
	return sel, nil
}

// StartRound rotates the dealer (after the first round), resets the round
// state and rebuilds the deck. In three-player games one card goes straight
// from the deck to the crib.
func (g *Game) StartRound() error {
	if err := g.guard("start round", PhaseDealing); err != nil {
		return err
	}
	if g.state.RoundStarted {
		return fmt.Errorf("start round %d: %w", g.state.RoundNumber, ErrRoundStarted)
	}
	seat := g.state.dealerSeat()
	if seat < 0 {
		return fmt.Errorf("start round without dealer: %w", ErrWrongPhase)
	}
	if g.state.RoundNumber > 0 {
		g.state.Players[seat].IsDealer = false
		seat = g.state.nextSeat(seat)
		g.state.Players[seat].IsDealer = true
	}

	g.state.RoundNumber++
	g.state.RoundStarted = true
	for i := range g.state.Players {
		g.state.Players[i].Hand = nil
		g.state.Players[i].PeggingHand = nil
	}
	g.state.Crib = nil
	g.state.TurnCard = nil
	g.state.PlayedCards = nil
	g.resetPegging()
	g.state.PeggingTurn = ""
	g.state.CountedPlayers = nil
	g.state.CribCounted = false
	g.state.Acknowledged = nil
	g.clearRequests()

	g.state.Deck = NewDeck()
	ShuffleDeck(g.state.Deck, g.rng)
	g.record(ActionStartRound, g.state.Players[seat].ID, nil, 0, nil)

	for i := 0; i < g.state.Rules.AutoCribCards; i++ {
		card := g.state.Deck[0]
		g.state.Deck = g.state.Deck[1:]
		g.state.Crib = append(g.state.Crib, card)
		g.record(ActionAutoCribCard, "", []Card{card}, 0, nil)
	}
	return nil
}

// Deal shuffles the remaining deck and deals hands one card at a time,
// starting left of the dealer.
func (g *Game) Deal() error {
	if err := g.guard("deal", PhaseDealing); err != nil {
		return err
	}
	if !g.state.RoundStarted {
		return fmt.Errorf("deal: %w", ErrRoundNotStarted)
	}
	ShuffleDeck(g.state.Deck, g.rng)

	order := g.CountingOrder()
	for c := 0; c < g.state.Rules.HandSize; c++ {
		for _, id := range order {
			p, _ := g.state.Player(id)
			p.Hand = append(p.Hand, g.state.Deck[0])
			g.state.Deck = g.state.Deck[1:]
		}
	}
	for _, id := range order {
		p, _ := g.state.Player(id)
		SortHand(p.Hand)
		g.record(ActionDeal, id, p.Hand, 0, nil)
	}
	g.transition(PhaseDiscarding)
	return nil
}

// DiscardToCrib moves the given cards from the player's hand to the crib.
func (g *Game) DiscardToCrib(playerID string, cards []Card) error {
	if err := g.guard("discard", PhaseDiscarding); err != nil {
		return err
	}
	p, err := g.player("discard", playerID)
	if err != nil {
		return err
	}
	if g.HasDiscarded(playerID) {
		return fmt.Errorf("discard %q: %w", playerID, ErrAlreadyDiscarded)
	}
	if len(cards) != g.state.Rules.Discards {
		return fmt.Errorf("discard %d cards, want %d: %w", len(cards), g.state.Rules.Discards, ErrDiscardCount)
	}
	seen := make(map[Card]bool, len(cards))
	for _, c := range cards {
		if !c.Valid() {
			return fmt.Errorf("discard %v: %w", c, ErrInvalidCard)
		}
		if seen[c] {
			return fmt.Errorf("discard %v: %w", c, ErrDuplicateCard)
		}
		seen[c] = true
	}
	if !ContainsAll(p.Hand, cards) {
		return fmt.Errorf("discard %v from %v: %w", cards, p.Hand, ErrCardNotInHand)
	}

	p.Hand = RemoveCards(p.Hand, cards)
	g.state.Crib = append(g.state.Crib, cards...)
	g.removeRequest(playerID, DecisionDiscard)
	g.record(ActionDiscard, playerID, cards, 0, nil)
	return nil
}

// CompleteCribPhase checks the crib and copies hands into pegging hands.
func (g *Game) CompleteCribPhase() error {
	if err := g.guard("complete crib", PhaseDiscarding); err != nil {
		return err
	}
	want := g.state.Rules.ExpectedCrib()
	if len(g.state.Crib) != want || want != CribSize {
		return fmt.Errorf("complete crib with %d cards, want %d: %w", len(g.state.Crib), CribSize, ErrCribIncomplete)
	}
	for i := range g.state.Players {
		g.state.Players[i].PeggingHand = cloneCards(g.state.Players[i].Hand)
	}
	g.transition(PhaseCutting)
	return nil
}

// CutDeck removes the card at index as the turn card. A Jack scores heels
// for the dealer.
func (g *Game) CutDeck(playerID string, index int) (Card, error) {
	if err := g.guard("cut deck", PhaseCutting); err != nil {
		return Card{}, err
	}
	if _, err := g.player("cut deck", playerID); err != nil {
		return Card{}, err
	}
	if index < 0 || index >= len(g.state.Deck) {
		return Card{}, fmt.Errorf("cut deck index %d of %d: %w", index, len(g.state.Deck), ErrIndexOutOfRange)
	}

	card := g.state.Deck[index]
	g.state.Deck = append(g.state.Deck[:index:index], g.state.Deck[index+1:]...)
	g.state.TurnCard = &card
	g.removeRequest(playerID, DecisionCutDeck)
	g.record(ActionCut, playerID, nil, 0, nil)
	g.record(ActionTurnCard, "", []Card{card}, 0, nil)

	if card.Rank == Jack {
		dealer, _ := g.state.Dealer()
		heels := []ScoreBreakdownItem{{Type: ScoreHeels, Points: 2, Cards: []Card{card}, Label: "His heels"}}
		if g.addScore(dealer, ActionScoreHeels, []Card{card}, heels) {
			return card, nil
		}
	}

	g.resetPegging()
	g.state.PeggingTurn = g.nextEligible(g.state.dealerSeat())
	g.transition(PhasePegging)
	return card, nil
}

// EndPegging closes the pegging phase once every pegging hand is empty.
func (g *Game) EndPegging() error {
	if err := g.guard("end pegging", PhasePegging); err != nil {
		return err
	}
	for _, p := range g.state.Players {
		if len(p.PeggingHand) > 0 {
			return fmt.Errorf("end pegging with %q holding %d cards: %w", p.ID, len(p.PeggingHand), ErrPeggingIncomplete)
		}
	}
	g.resetPegging()
	g.state.PeggingTurn = ""
	g.transition(PhaseCounting)
	return nil
}

// HandScore is the itemized result of counting a hand or crib.
type HandScore struct {
	Points    int                  `json:"points"`
	Breakdown []ScoreBreakdownItem `json:"breakdown"`
}

// ScoreHandFor counts a player's hand with the turn card.
func (g *Game) ScoreHandFor(playerID string) (HandScore, error) {
	if err := g.guard("score hand", PhaseCounting); err != nil {
		return HandScore{}, err
	}
	if g.state.TurnCard == nil {
		return HandScore{}, fmt.Errorf("score hand: %w", ErrNoTurnCard)
	}
	p, err := g.player("score hand", playerID)
	if err != nil {
		return HandScore{}, err
	}
	if g.HasCounted(playerID) {
		return HandScore{}, fmt.Errorf("score hand %q: %w", playerID, ErrAlreadyCounted)
	}
	items, err := ScoreHandBreakdown(p.Hand, *g.state.TurnCard, false)
	if err != nil {
		return HandScore{}, fmt.Errorf("score hand %q: %w", playerID, err)
	}
	g.state.CountedPlayers = append(g.state.CountedPlayers, playerID)
	g.addScore(p, ActionScoreHand, p.Hand, items)
	return HandScore{Points: TotalPoints(items), Breakdown: items}, nil
}

// ScoreCribFor counts the crib for the dealer.
func (g *Game) ScoreCribFor(dealerID string) (HandScore, error) {
	if err := g.guard("score crib", PhaseCounting); err != nil {
		return HandScore{}, err
	}
	if g.state.TurnCard == nil {
		return HandScore{}, fmt.Errorf("score crib: %w", ErrNoTurnCard)
	}
	p, err := g.player("score crib", dealerID)
	if err != nil {
		return HandScore{}, err
	}
	if !p.IsDealer {
		return HandScore{}, fmt.Errorf("score crib %q: %w", dealerID, ErrNotDealer)
	}
	if g.state.CribCounted {
		return HandScore{}, fmt.Errorf("score crib: %w", ErrAlreadyCounted)
	}
	items, err := ScoreHandBreakdown(g.state.Crib, *g.state.TurnCard, true)
	if err != nil {
		return HandScore{}, fmt.Errorf("score crib: %w", err)
	}
	g.state.CribCounted = true
	g.addScore(p, ActionScoreCrib, g.state.Crib, items)
	return HandScore{Points: TotalPoints(items), Breakdown: items}, nil
}

// EndRound closes counting and returns to DEALING for the next deal.
func (g *Game) EndRound() error {
	if err := g.guard("end round", PhaseCounting); err != nil {
		return err
	}
	if !g.state.CribCounted || len(g.state.CountedPlayers) != len(g.state.Players) {
		return fmt.Errorf("end round %d: %w", g.state.RoundNumber, ErrCountingIncomplete)
	}
	g.record(ActionEndRound, "", nil, 0, nil)
	g.state.RoundStarted = false
	g.clearRequests()
	g.transition(PhaseDealing)
	return nil
}

// EndGame declares the winner and moves to END.
func (g *Game) EndGame(winnerID string) error {
	if g.IsOver() {
		return fmt.Errorf("end game: %w", ErrGameOver)
	}
	if _, err := g.player("end game", winnerID); err != nil {
		return err
	}
	g.finish(winnerID)
	return nil
}
