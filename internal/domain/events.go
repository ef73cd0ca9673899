package domain

import "time"

// ActionType enumerates the kinds of entries in the event log.
type ActionType string

const (
	ActionBeginPhase        ActionType = "BEGIN_PHASE"
	ActionSelectDealerCard  ActionType = "SELECT_DEALER_CARD"
	ActionDealerSelected    ActionType = "DEALER_SELECTED"
	ActionStartRound        ActionType = "START_ROUND"
	ActionAutoCribCard      ActionType = "AUTO_CRIB_CARD"
	ActionDeal              ActionType = "DEAL"
	ActionDiscard           ActionType = "DISCARD"
	ActionCut               ActionType = "CUT"
	ActionTurnCard          ActionType = "TURN_CARD"
	ActionScoreHeels        ActionType = "SCORE_HEELS"
	ActionPlayCard          ActionType = "PLAY_CARD"
	ActionGo                ActionType = "GO"
	ActionLastCard          ActionType = "LAST_CARD"
	ActionResetPeggingRound ActionType = "RESET_PEGGING_ROUND"
	ActionScoreHand         ActionType = "SCORE_HAND"
	ActionScoreCrib         ActionType = "SCORE_CRIB"
	ActionReady             ActionType = "READY"
	ActionEndRound          ActionType = "END_ROUND"
	ActionWin               ActionType = "WIN"

	ActionWaitingForDealerCard     ActionType = "WAITING_FOR_SELECT_DEALER_CARD"
	ActionWaitingForDiscard        ActionType = "WAITING_FOR_DISCARD"
	ActionWaitingForCut            ActionType = "WAITING_FOR_CUT_DECK"
	ActionWaitingForPlayCard       ActionType = "WAITING_FOR_PLAY_CARD"
	ActionWaitingForReadyGameStart ActionType = "WAITING_FOR_READY_FOR_GAME_START"
	ActionWaitingForReadyCounting  ActionType = "WAITING_FOR_READY_FOR_COUNTING"
	ActionWaitingForReadyNextRound ActionType = "WAITING_FOR_READY_FOR_NEXT_ROUND"
)

// waitingAction maps a decision type to its WAITING_FOR_* action.
func waitingAction(t DecisionType) ActionType {
	return ActionType("WAITING_FOR_" + string(t))
}

// GameEvent is an immutable entry of the authoritative history.
type GameEvent struct {
	Phase       Phase                `json:"phase"`
	ActionType  ActionType           `json:"actionType"`
	PlayerID    *string              `json:"playerId"`
	Cards       []Card               `json:"cards"`
	ScoreChange int                  `json:"scoreChange"`
	Breakdown   []ScoreBreakdownItem `json:"breakdown,omitempty"`
	Round       int                  `json:"round"`
	Timestamp   time.Time            `json:"timestamp"`
	SnapshotID  int64                `json:"snapshotId"`
}

// Actor returns the acting player id, or "" for system events.
func (e GameEvent) Actor() string {
	if e.PlayerID == nil {
		return ""
	}
	return *e.PlayerID
}

// Snapshot is the unit broadcast to observers after every mutation.
type Snapshot struct {
	GameState               GameState         `json:"gameState"`
	GameEvent               GameEvent         `json:"gameEvent"`
	PendingDecisionRequests []DecisionRequest `json:"pendingDecisionRequests"`
}

func cloneEvent(e GameEvent) GameEvent {
	out := e
	if e.PlayerID != nil {
		id := *e.PlayerID
		out.PlayerID = &id
	}
	out.Cards = cloneCards(e.Cards)
	if e.Breakdown != nil {
		out.Breakdown = make([]ScoreBreakdownItem, len(e.Breakdown))
		for i, it := range e.Breakdown {
			it.Cards = cloneCards(it.Cards)
			out.Breakdown[i] = it
		}
	}
	return out
}
