package domain

import (
	"fmt"
	"time"
)

// DecisionType enumerates the decisions a player can be asked to make.
type DecisionType string

const (
	DecisionSelectDealerCard  DecisionType = "SELECT_DEALER_CARD"
	DecisionDiscard           DecisionType = "DISCARD"
	DecisionCutDeck           DecisionType = "CUT_DECK"
	DecisionPlayCard          DecisionType = "PLAY_CARD"
	DecisionReadyForGameStart DecisionType = "READY_FOR_GAME_START"
	DecisionReadyForCounting  DecisionType = "READY_FOR_COUNTING"
	DecisionReadyForNextRound DecisionType = "READY_FOR_NEXT_ROUND"
)

// IsAcknowledgement reports whether the decision is a readiness signal with no choice.
func (t DecisionType) IsAcknowledgement() bool {
	switch t {
	case DecisionReadyForGameStart, DecisionReadyForCounting, DecisionReadyForNextRound:
		return true
	}
	return false
}

// RequestData is the decision-specific payload shown to the deciding player.
type RequestData struct {
	Count        int    `json:"count,omitempty"`
	MaxIndex     int    `json:"maxIndex,omitempty"`
	Hand         []Card `json:"hand,omitempty"`
	PeggingTotal int    `json:"peggingTotal,omitempty"`
}

// DecisionRequest is an outstanding prompt for one player. Its presence in
// the state means the corresponding action has not happened yet.
type DecisionRequest struct {
	RequestID    string       `json:"requestId"`
	PlayerID     string       `json:"playerId"`
	DecisionType DecisionType `json:"decisionType"`
	RequestData  RequestData  `json:"requestData"`
	Required     bool         `json:"required"`
	Timestamp    time.Time    `json:"timestamp"`
	ExpiresAt    *time.Time   `json:"expiresAt,omitempty"`
}

func cloneRequest(r DecisionRequest) DecisionRequest {
	out := r
	out.RequestData.Hand = cloneCards(r.RequestData.Hand)
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		out.ExpiresAt = &t
	}
	return out
}

func cloneRequests(in []DecisionRequest) []DecisionRequest {
	if in == nil {
		return nil
	}
	out := make([]DecisionRequest, len(in))
	for i, r := range in {
		out[i] = cloneRequest(r)
	}
	return out
}

// RequestDecision registers a pending request. At most one request may be
// outstanding per (player, decision type); a zero ttl means no expiry.
func (g *Game) RequestDecision(playerID string, t DecisionType, data RequestData, ttl time.Duration) (DecisionRequest, error) {
	if g.IsOver() {
		return DecisionRequest{}, ErrGameOver
	}
	if _, ok := g.state.Player(playerID); !ok {
		return DecisionRequest{}, fmt.Errorf("request %s for %q: %w", t, playerID, ErrUnknownPlayer)
	}
	if _, ok := g.PendingRequest(playerID, t); ok {
		return DecisionRequest{}, fmt.Errorf("request %s for %q: %w", t, playerID, ErrDuplicateRequest)
	}

	now := g.now()
	req := DecisionRequest{
		RequestID:    g.newID(),
		PlayerID:     playerID,
		DecisionType: t,
		RequestData:  data,
		Required:     true,
		Timestamp:    now,
	}
	req.RequestData.Hand = cloneCards(data.Hand)
	if ttl > 0 {
		expires := now.Add(ttl)
		req.ExpiresAt = &expires
	}
	g.state.PendingDecisionRequests = append(g.state.PendingDecisionRequests, req)
	g.record(waitingAction(t), playerID, nil, 0, nil)
	return cloneRequest(req), nil
}

// PendingRequest returns the outstanding request for the player and type.
func (g *Game) PendingRequest(playerID string, t DecisionType) (DecisionRequest, bool) {
	for _, r := range g.state.PendingDecisionRequests {
		if r.PlayerID == playerID && r.DecisionType == t {
			return cloneRequest(r), true
		}
	}
	return DecisionRequest{}, false
}

// PendingRequests returns every outstanding request.
func (g *Game) PendingRequests() []DecisionRequest {
	return cloneRequests(g.state.PendingDecisionRequests)
}

// Acknowledge resolves a readiness request for the player.
func (g *Game) Acknowledge(playerID string, t DecisionType) error {
	if g.IsOver() {
		return ErrGameOver
	}
	if !t.IsAcknowledgement() {
		return fmt.Errorf("acknowledge %s: %w", t, ErrWrongPhase)
	}
	if !g.removeRequest(playerID, t) {
		return fmt.Errorf("acknowledge %s for %q: %w", t, playerID, ErrNoPendingRequest)
	}
	g.state.Acknowledged = append(g.state.Acknowledged, Acknowledgement{PlayerID: playerID, Type: t})
	g.record(ActionReady, playerID, nil, 0, nil)
	return nil
}

// HasAcknowledged reports whether the player completed the readiness point.
func (g *Game) HasAcknowledged(playerID string, t DecisionType) bool {
	for _, a := range g.state.Acknowledged {
		if a.PlayerID == playerID && a.Type == t {
			return true
		}
	}
	return false
}

func (g *Game) removeRequest(playerID string, t DecisionType) bool {
	reqs := g.state.PendingDecisionRequests
	for i, r := range reqs {
		if r.PlayerID == playerID && r.DecisionType == t {
			g.state.PendingDecisionRequests = append(reqs[:i:i], reqs[i+1:]...)
			return true
		}
	}
	return false
}

func (g *Game) clearRequests() {
	g.state.PendingDecisionRequests = nil
}
