package bot

import botinternal "cribbage/internal/bot/internal"

// DefaultTuning trades hand value against pegging as the board fills up.
var DefaultTuning = botinternal.BotTuning{
	Opening: botinternal.PhaseWeights{
		HandWeight:     1.0,
		CribWeight:     1.0,
		PeggingWeight:  1.0,
		OpeningPenalty: 1.5,
		PairPenalty:    0.8,
	},
	Mid: botinternal.PhaseWeights{
		HandWeight:     1.0,
		CribWeight:     0.9,
		PeggingWeight:  1.2,
		OpeningPenalty: 1.5,
		PairPenalty:    1.0,
	},
	End: botinternal.PhaseWeights{
		HandWeight:     0.8,
		CribWeight:     0.6,
		PeggingWeight:  2.0,
		OpeningPenalty: 2.5,
		PairPenalty:    1.5,
	},
}
