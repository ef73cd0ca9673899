package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby match.
	RpcQuickMatch = "cribbage_quick_match"
	// RpcStats returns the caller's lifetime results.
	RpcStats = "cribbage_stats"

	// MatchNameCribbage is the authoritative match handler name registered with Nakama.
	MatchNameCribbage = "cribbage_match"

	// SessionCollection holds checkpointed session documents, keyed by game id.
	SessionCollection = "cribbage_sessions"
	// StatsCollection holds one lifetime record per user.
	StatsCollection = "cribbage_stats"
	statsKey        = "lifetime"

	identitiesPath = "data/bot_identities.json"
	gameConfigPath = "data/game_config.json"

	// tickRate is match loop ticks per second.
	tickRate = 5
)

// Match params.
const (
	ParamPlayerCount  = "player_count"
	ParamResumeGameID = "resume_game_id"
	// MetaSeatToken is the join metadata key carrying a seat token.
	MetaSeatToken = "seat_token"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame int64 = 1
	OpDecision  int64 = 2

	// Server -> Client events
	OpMatchState int64 = 101
	OpSnapshot   int64 = 102 // send privately
	OpRejected   int64 = 103 // send privately
	OpGameEnded  int64 = 104
	OpSeatToken  int64 = 105 // send privately
	OpError      int64 = 106
)
