package domain

// Phase represents the lifecycle stage of a game.
type Phase string

const (
	PhaseDealerSelection Phase = "DEALER_SELECTION"
	PhaseDealing         Phase = "DEALING"
	PhaseDiscarding      Phase = "DISCARDING"
	PhaseCutting         Phase = "CUTTING"
	PhasePegging         Phase = "PEGGING"
	PhaseCounting        Phase = "COUNTING"
	PhaseEnd             Phase = "END"
)

// PlayerInfo identifies a seat in the roster.
type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PegPositions are the two board pegs; Previous lags Current by one scoring event.
type PegPositions struct {
	Current  int `json:"current"`
	Previous int `json:"previous"`
}

// Player holds the domain state for one seat.
type Player struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Hand         []Card       `json:"hand"`
	PeggingHand  []Card       `json:"peggingHand"`
	Score        int          `json:"score"`
	PegPositions PegPositions `json:"pegPositions"`
	IsDealer     bool         `json:"isDealer"`
}

// PlayedCard attributes a pegging play to a player.
type PlayedCard struct {
	PlayerID string `json:"playerId"`
	Card     Card   `json:"card"`
}

// DealerSelection records the blind card a player claimed while choosing the dealer.
type DealerSelection struct {
	PlayerID string `json:"playerId"`
	Index    int    `json:"index"`
	Card     Card   `json:"card"`
}

// Acknowledgement records a completed synchronization point.
type Acknowledgement struct {
	PlayerID string       `json:"playerId"`
	Type     DecisionType `json:"type"`
}

// GameState is the canonical, mutable projection of the event log.
type GameState struct {
	ID                      string            `json:"id"`
	Rules                   Rules             `json:"rules"`
	Players                 []Player          `json:"players"`
	Deck                    []Card            `json:"deck"`
	Crib                    []Card            `json:"crib"`
	TurnCard                *Card             `json:"turnCard"`
	CurrentPhase            Phase             `json:"currentPhase"`
	PeggingStack            []Card            `json:"peggingStack"`
	PeggingTotal            int               `json:"peggingTotal"`
	PeggingGoPlayers        []string          `json:"peggingGoPlayers"`
	PeggingLastCardPlayer   string            `json:"peggingLastCardPlayer"`
	PeggingTurn             string            `json:"peggingTurn"`
	PlayedCards             []PlayedCard      `json:"playedCards"`
	PendingDecisionRequests []DecisionRequest `json:"pendingDecisionRequests"`
	DealerSelections        []DealerSelection `json:"dealerSelections"`
	Acknowledged            []Acknowledgement `json:"acknowledged"`
	CountedPlayers          []string          `json:"countedPlayers"`
	CribCounted             bool              `json:"cribCounted"`
	RoundStarted            bool              `json:"roundStarted"`
	SnapshotID              int64             `json:"snapshotId"`
	RoundNumber             int               `json:"roundNumber"`
	WinnerID                string            `json:"winnerId"`
}

// Clone returns a deep copy that shares no slices with s.
func (s GameState) Clone() GameState {
	out := s
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		p.Hand = cloneCards(p.Hand)
		p.PeggingHand = cloneCards(p.PeggingHand)
		out.Players[i] = p
	}
	out.Deck = cloneCards(s.Deck)
	out.Crib = cloneCards(s.Crib)
	if s.TurnCard != nil {
		c := *s.TurnCard
		out.TurnCard = &c
	}
	out.PeggingStack = cloneCards(s.PeggingStack)
	out.PeggingGoPlayers = cloneStrings(s.PeggingGoPlayers)
	out.PlayedCards = append([]PlayedCard(nil), s.PlayedCards...)
	out.PendingDecisionRequests = cloneRequests(s.PendingDecisionRequests)
	out.DealerSelections = append([]DealerSelection(nil), s.DealerSelections...)
	out.Acknowledged = append([]Acknowledgement(nil), s.Acknowledged...)
	out.CountedPlayers = cloneStrings(s.CountedPlayers)
	return out
}

// Player returns the player with the given id.
func (s *GameState) Player(id string) (*Player, bool) {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i], true
		}
	}
	return nil, false
}

// Dealer returns the current dealer, if one has been chosen.
func (s *GameState) Dealer() (*Player, bool) {
	for i := range s.Players {
		if s.Players[i].IsDealer {
			return &s.Players[i], true
		}
	}
	return nil, false
}

func (s *GameState) seatOf(id string) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *GameState) dealerSeat() int {
	for i, p := range s.Players {
		if p.IsDealer {
			return i
		}
	}
	return -1
}

// nextSeat returns the seat after seat in turn order.
func (s *GameState) nextSeat(seat int) int {
	return (seat + 1) % len(s.Players)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
