package internal

// GamePhase describes the current strategic stage of a game.
type GamePhase int

const (
	// PhaseOpening indicates nobody is past the first street.
	PhaseOpening GamePhase = iota
	// PhaseMid indicates the leader is on the second street.
	PhaseMid
	// PhaseEnd indicates someone is close enough to peg out.
	PhaseEnd
)

const (
	midThreshold = 61
	endThreshold = 100
)

// DetectPhase infers the phase from the leading score.
func DetectPhase(myScore, bestOpponentScore int) GamePhase {
	lead := myScore
	if bestOpponentScore > lead {
		lead = bestOpponentScore
	}
	switch {
	case lead >= endThreshold:
		return PhaseEnd
	case lead >= midThreshold:
		return PhaseMid
	default:
		return PhaseOpening
	}
}

// PhaseWeights tune how a strategy values the parts of a decision.
type PhaseWeights struct {
	// HandWeight scales the expected value of the kept hand.
	HandWeight float64
	// CribWeight scales the crib estimate; it is added for the dealer and
	// subtracted otherwise.
	CribWeight float64
	// PeggingWeight scales immediate pegging points.
	PeggingWeight float64
	// OpeningPenalty is charged for leaving a count of 5 or 21.
	OpeningPenalty float64
	// PairPenalty is charged for a play an unseen card could pair.
	PairPenalty float64
}

// BotTuning holds one set of weights per phase.
type BotTuning struct {
	Opening PhaseWeights
	Mid     PhaseWeights
	End     PhaseWeights
}

// ForPhase returns the weights for the phase.
func (t BotTuning) ForPhase(p GamePhase) PhaseWeights {
	switch p {
	case PhaseOpening:
		return t.Opening
	case PhaseEnd:
		return t.End
	default:
		return t.Mid
	}
}
