package domain

import "time"

// Spectator is the viewer id that sees no private cards.
const Spectator = ""

// PlayerView is a player as seen by one viewer.
type PlayerView struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Hand         []CardView   `json:"hand"`
	PeggingHand  []CardView   `json:"peggingHand"`
	Score        int          `json:"score"`
	PegPositions PegPositions `json:"pegPositions"`
	IsDealer     bool         `json:"isDealer"`
}

// RequestDataView is a request payload as seen by one viewer.
type RequestDataView struct {
	Count        int        `json:"count,omitempty"`
	MaxIndex     int        `json:"maxIndex,omitempty"`
	Hand         []CardView `json:"hand,omitempty"`
	PeggingTotal int        `json:"peggingTotal,omitempty"`
}

// RequestView is a pending decision request as seen by one viewer.
type RequestView struct {
	RequestID    string          `json:"requestId"`
	PlayerID     string          `json:"playerId"`
	DecisionType DecisionType    `json:"decisionType"`
	RequestData  RequestDataView `json:"requestData"`
	Required     bool            `json:"required"`
	Timestamp    time.Time       `json:"timestamp"`
	ExpiresAt    *time.Time      `json:"expiresAt,omitempty"`
}

// GameView is the state filtered for one viewer.
type GameView struct {
	ID                      string            `json:"id"`
	Rules                   Rules             `json:"rules"`
	Players                 []PlayerView      `json:"players"`
	Deck                    []CardView        `json:"deck"`
	Crib                    []CardView        `json:"crib"`
	TurnCard                *Card             `json:"turnCard"`
	CurrentPhase            Phase             `json:"currentPhase"`
	PeggingStack            []Card            `json:"peggingStack"`
	PeggingTotal            int               `json:"peggingTotal"`
	PeggingGoPlayers        []string          `json:"peggingGoPlayers"`
	PeggingLastCardPlayer   string            `json:"peggingLastCardPlayer"`
	PeggingTurn             string            `json:"peggingTurn"`
	PlayedCards             []PlayedCard      `json:"playedCards"`
	PendingDecisionRequests []RequestView     `json:"pendingDecisionRequests"`
	DealerSelections        []DealerSelection `json:"dealerSelections"`
	CountedPlayers          []string          `json:"countedPlayers"`
	CribCounted             bool              `json:"cribCounted"`
	SnapshotID              int64             `json:"snapshotId"`
	RoundNumber             int               `json:"roundNumber"`
	WinnerID                string            `json:"winnerId"`
}

// EventView is an event filtered for one viewer.
type EventView struct {
	Phase       Phase                `json:"phase"`
	ActionType  ActionType           `json:"actionType"`
	PlayerID    *string              `json:"playerId"`
	Cards       []CardView           `json:"cards"`
	ScoreChange int                  `json:"scoreChange"`
	Breakdown   []ScoreBreakdownItem `json:"breakdown,omitempty"`
	Round       int                  `json:"round"`
	Timestamp   time.Time            `json:"timestamp"`
	SnapshotID  int64                `json:"snapshotId"`
}

// SnapshotView is the per-viewer unit handed to agents and transports.
type SnapshotView struct {
	GameState               GameView      `json:"gameState"`
	GameEvent               EventView     `json:"gameEvent"`
	PendingDecisionRequests []RequestView `json:"pendingDecisionRequests"`
}

// cribRevealed reports whether crib cards of the current round are public.
func cribRevealed(s GameState) bool {
	return s.CurrentPhase == PhaseCounting || (s.CurrentPhase == PhaseEnd && s.CribCounted)
}

// RedactState returns the state as seen by viewerID. Other players' hands,
// the deck and the crib before counting are concealed.
func RedactState(s GameState, viewerID string) GameView {
	s = s.Clone()
	v := GameView{
		ID:                    s.ID,
		Rules:                 s.Rules,
		Deck:                  cardViews(s.Deck, false),
		Crib:                  cardViews(s.Crib, cribRevealed(s)),
		TurnCard:              s.TurnCard,
		CurrentPhase:          s.CurrentPhase,
		PeggingStack:          s.PeggingStack,
		PeggingTotal:          s.PeggingTotal,
		PeggingGoPlayers:      s.PeggingGoPlayers,
		PeggingLastCardPlayer: s.PeggingLastCardPlayer,
		PeggingTurn:           s.PeggingTurn,
		PlayedCards:           s.PlayedCards,
		DealerSelections:      s.DealerSelections,
		CountedPlayers:        s.CountedPlayers,
		CribCounted:           s.CribCounted,
		SnapshotID:            s.SnapshotID,
		RoundNumber:           s.RoundNumber,
		WinnerID:              s.WinnerID,
	}
	for _, p := range s.Players {
		own := viewerID != Spectator && p.ID == viewerID
		v.Players = append(v.Players, PlayerView{
			ID:           p.ID,
			Name:         p.Name,
			Hand:         cardViews(p.Hand, own),
			PeggingHand:  cardViews(p.PeggingHand, own),
			Score:        p.Score,
			PegPositions: p.PegPositions,
			IsDealer:     p.IsDealer,
		})
	}
	v.PendingDecisionRequests = RedactRequests(s.PendingDecisionRequests, viewerID)
	return v
}

// RedactRequests conceals payload cards of requests addressed to other players.
func RedactRequests(reqs []DecisionRequest, viewerID string) []RequestView {
	if reqs == nil {
		return nil
	}
	out := make([]RequestView, len(reqs))
	for i, r := range reqs {
		own := viewerID != Spectator && r.PlayerID == viewerID
		out[i] = RequestView{
			RequestID:    r.RequestID,
			PlayerID:     r.PlayerID,
			DecisionType: r.DecisionType,
			RequestData: RequestDataView{
				Count:        r.RequestData.Count,
				MaxIndex:     r.RequestData.MaxIndex,
				Hand:         cardViews(r.RequestData.Hand, own),
				PeggingTotal: r.RequestData.PeggingTotal,
			},
			Required:  r.Required,
			Timestamp: r.Timestamp,
		}
		if r.ExpiresAt != nil {
			t := *r.ExpiresAt
			out[i].ExpiresAt = &t
		}
	}
	return out
}

// RedactEvent filters an event's cards for viewerID given the current state.
// Deal events are private to the recipient. Discards are private to the
// discarder and auto-crib cards to nobody, until the round reaches counting.
func RedactEvent(e GameEvent, s GameState, viewerID string) EventView {
	e = cloneEvent(e)
	own := viewerID != Spectator && e.Actor() == viewerID
	revealed := e.Round < s.RoundNumber || (e.Round == s.RoundNumber && cribRevealed(s))

	visible := true
	switch e.ActionType {
	case ActionDeal:
		visible = own
	case ActionDiscard:
		visible = own || revealed
	case ActionAutoCribCard:
		visible = revealed
	}
	return EventView{
		Phase:       e.Phase,
		ActionType:  e.ActionType,
		PlayerID:    e.PlayerID,
		Cards:       cardViews(e.Cards, visible),
		ScoreChange: e.ScoreChange,
		Breakdown:   e.Breakdown,
		Round:       e.Round,
		Timestamp:   e.Timestamp,
		SnapshotID:  e.SnapshotID,
	}
}

// RedactSnapshot filters a whole snapshot for viewerID.
func RedactSnapshot(snap Snapshot, viewerID string) SnapshotView {
	return SnapshotView{
		GameState:               RedactState(snap.GameState, viewerID),
		GameEvent:               RedactEvent(snap.GameEvent, snap.GameState, viewerID),
		PendingDecisionRequests: RedactRequests(snap.PendingDecisionRequests, viewerID),
	}
}

// RedactedState is RedactState over the live game.
func (g *Game) RedactedState(viewerID string) GameView {
	return RedactState(g.state, viewerID)
}

// RedactedEvent is RedactEvent against the live game state.
func (g *Game) RedactedEvent(e GameEvent, viewerID string) EventView {
	return RedactEvent(e, g.state, viewerID)
}
