package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"

	"cribbage/internal/app"
	"cribbage/internal/bot"
	"cribbage/internal/config"
	"cribbage/internal/domain"
	"cribbage/internal/ports"
)

const (
	eventBuffer     = 64
	maxDrainPerTick = 256
)

// matchHandler hosts one cribbage table. Nakama serializes the Match*
// callbacks; the game itself runs on a separate goroutine and talks to the
// loop only through the broker and the event channel.
type matchHandler struct {
	sessions ports.SessionStore
	stats    ports.StatsPort
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{
		sessions: NewNakamaSessionStore(nk),
		stats:    NewNakamaStatsAdapter(nk),
	}, nil
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	cfg := config.GetGameConfig()
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if err := config.ApplyVars(&cfg, env); err != nil {
			logger.Warn("MatchInit: Ignoring runtime env overrides: %v", err)
			cfg = config.GetGameConfig()
		}
	}

	players := clampPlayers(intParam(params, ParamPlayerCount, cfg.Players))
	var resume *domain.Game
	if id, _ := params[ParamResumeGameID].(string); id != "" {
		game, err := app.NewService(mh.sessions).ResumeGame(ctx, id)
		if err != nil {
			logger.Error("MatchInit: Failed to resume game %s: %v", id, err)
			return nil, 0, ""
		}
		if game.IsOver() {
			logger.Error("MatchInit: Game %s is already over", id)
			return nil, 0, ""
		}
		resume = game
		players = len(game.Roster())
	}

	state := newMatchState(players, cfg)
	if matchID, ok := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string); ok && matchID != "" {
		state.GameID = matchID
	} else {
		state.GameID = uuid.NewString()
	}
	if resume != nil {
		state.Resume = resume
		state.GameID = resume.ID()
		for i, p := range resume.Roster() {
			state.Seats[i] = p.ID
			state.Names[p.ID] = p.Name
		}
	}
	if cfg.SeatTokenSecret != "" {
		state.Tokens = app.NewSeatTokens(cfg.SeatTokenSecret, "", cfg.SeatTokenTTL())
	} else {
		logger.Warn("MatchInit: No seat token secret configured, reconnects are not verified.")
	}

	label, err := labelFor(state).marshal()
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	allowed, reason := matchState.admit(presence.GetUserId(), metadata[MetaSeatToken])
	if !allowed {
		logger.Debug("MatchJoinAttempt: Refused %s: %s", presence.GetUserId(), reason)
	}
	return matchState, allowed, reason
}

// admit decides whether userID may join. Seated players reclaiming their seat
// during a game must present a valid seat token when tokens are enabled.
func (ms *MatchState) admit(userID, token string) (bool, string) {
	if ms.SeatOf(userID) >= 0 {
		if ms.run == nil || ms.Tokens == nil {
			return true, ""
		}
		owner, err := ms.Tokens.Verify(token, ms.GameID)
		if err != nil || owner != userID {
			return false, "invalid seat token"
		}
		return true, ""
	}
	if ms.Resume != nil {
		return false, "seats are reserved for the resumed game"
	}
	if ms.run != nil {
		return true, "" // spectator
	}
	if ms.GetOpenSeatsCount() > 0 {
		return true, ""
	}
	for _, seat := range ms.Seats {
		if isBotUserId(seat) {
			return true, ""
		}
	}
	return false, "Match full"
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p
		if matchState.Names[userID] == "" {
			matchState.Names[userID] = p.GetUsername()
		}

		if matchState.SeatOf(userID) >= 0 {
			if matchState.run != nil {
				logger.Info("MatchJoin: User %s reconnected to game %s", userID, matchState.GameID)
				mh.resend(matchState, dispatcher, logger, userID, p)
			}
			continue
		}
		if matchState.run != nil {
			mh.resend(matchState, dispatcher, logger, domain.Spectator, p)
			continue
		}
		if seat := matchState.takeSeat(userID); seat < 0 {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", userID)
		} else {
			logger.Debug("MatchJoin: User %s took seat %d", userID, seat)
		}
	}

	// Ensure owner seat is assigned to a connected human player only.
	if matchState.reassignOwner() && matchState.OwnerSeat >= 0 {
		logger.Debug("MatchJoin: Owner set to human seat %d.", matchState.OwnerSeat)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)
	return matchState
}

// takeSeat puts userID in the first empty seat, or replaces a bot while in the lobby.
func (ms *MatchState) takeSeat(userID string) int {
	for i, seat := range ms.Seats {
		if seat == "" {
			ms.Seats[i] = userID
			return i
		}
	}
	for i, seat := range ms.Seats {
		if isBotUserId(seat) {
			delete(ms.Bots, seat)
			delete(ms.Names, seat)
			ms.Seats[i] = userID
			return i
		}
	}
	return -1
}

// MatchLeave is called when one or more players leave the match. During a
// game the seat is kept for a reconnect; the decision timeout hands the
// absent player's turns to the fallback bot.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)
		seat := matchState.SeatOf(userID)
		if seat < 0 {
			continue
		}
		if matchState.run == nil && matchState.Resume == nil {
			matchState.Seats[seat] = ""
			logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, seat)
		} else {
			logger.Info("MatchLeave: User %s left seat %d, holding it for a reconnect.", userID, seat)
		}
	}

	if len(matchState.Presences) == 0 || (matchState.run == nil && shouldTerminateNoHumans(matchState.Seats)) {
		logger.Info("MatchLeave: Terminating match with no humans.")
		matchState.stop()
		return nil
	}

	matchState.reassignOwner()
	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(matchState, dispatcher, logger, msg.GetUserId())
		case OpDecision:
			mh.handleDecision(matchState, dispatcher, logger, msg.GetUserId(), msg.GetData())
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.Config.BotsEnabled {
		mh.processBots(matchState, dispatcher, logger)
	}

	mh.drain(matchState, dispatcher, logger, maxDrainPerTick)
	mh.checkDone(matchState, dispatcher, logger)
	return matchState
}

// processBots fills the lobby with bots when one human has waited long enough.
func (mh *matchHandler) processBots(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.run != nil || state.Resume != nil {
		return
	}
	if state.GetHumanPlayerCount() != 1 || state.GetOpenSeatsCount() == 0 {
		state.LastSinglePlayerTick = 0
		return
	}
	if state.LastSinglePlayerTick == 0 {
		state.LastSinglePlayerTick = state.Tick
		logger.Debug("processBots: Single player detected, starting auto-fill timer.")
	}
	if state.Tick-state.LastSinglePlayerTick < int64(state.Config.BotAutoFillDelaySeconds*tickRate) {
		return
	}

	level, err := bot.ParseBotLevel(state.Config.BotLevel)
	if err != nil {
		logger.Warn("processBots: %v, using greedy bots", err)
		level = bot.BotLevelGreedy
	}
	lo, hi := state.Config.BotDelay()
	taken := make(map[string]bool, len(state.Seats))
	for _, id := range state.Seats {
		taken[id] = true
	}

	added := false
	for i, seat := range state.Seats {
		if seat != "" {
			continue
		}
		identity := bot.Default().Pick(taken)
		agent, err := bot.Spawn(identity, level, lo, hi)
		if err != nil {
			logger.Error("processBots: Failed to create bot agent for %s: %v", identity.UserID, err)
			continue
		}
		taken[identity.UserID] = true
		state.Seats[i] = identity.UserID
		state.Names[identity.UserID] = agent.Name
		state.Bots[identity.UserID] = agent
		logger.Info("processBots: Added bot %s (%s) to seat %d", agent.Name, identity.UserID, i)
		added = true
	}
	state.LastSinglePlayerTick = 0
	if added {
		mh.updateLabel(state, dispatcher, logger)
		mh.broadcastMatchState(state, dispatcher, logger)
	}
}

func (mh *matchHandler) handleStartGame(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string) {
	senderSeat := state.SeatOf(senderID)
	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	if state.run != nil {
		mh.sendError(state, dispatcher, logger, senderID, 409, app.ErrNotInLobby.Error())
		return
	}
	if senderSeat < 0 || senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		mh.sendError(state, dispatcher, logger, senderID, 403, app.ErrNotOwner.Error())
		return
	}

	game := state.Resume
	if game == nil {
		var err error
		game, err = app.NewService(mh.sessions).StartGame(state.GameID, state.seatList())
		if err != nil {
			logger.Warn("StartGame: Cannot start: %v", err)
			mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
			return
		}
	}

	if err := mh.startRun(state, logger, game); err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, 500, err.Error())
		return
	}
	state.Resume = nil
	mh.issueSeatTokens(state, dispatcher, logger)
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastMatchState(state, dispatcher, logger)
	logger.Info("StartGame: Game %s started with %d players.", game.ID(), len(game.PlayerIDs()))
}

// startRun wires agents and sinks around game and drives it on a new goroutine.
func (mh *matchHandler) startRun(state *MatchState, logger runtime.Logger, game *domain.Game) error {
	cfg := state.Config
	level, err := bot.ParseBotLevel(cfg.BotLevel)
	if err != nil {
		level = bot.BotLevelGreedy
	}
	lo, hi := cfg.BotDelay()

	run := &gameRun{
		broker: app.NewBroker(),
		events: make(chan app.Event, eventBuffer),
		done:   make(chan runResult, 1),
	}
	// The broker goes first so a request is known before any client sees it.
	sinks := []ports.SnapshotSink{run.broker, app.NewPublisher(run.events)}
	if mh.stats != nil {
		sinks = append(sinks, app.NewStatsRecorder(mh.stats, logger, isBotUserId))
	}

	agents := make(map[string]app.Agent, len(game.PlayerIDs()))
	for _, id := range game.PlayerIDs() {
		if !isBotUserId(id) {
			agents[id] = app.NewRemoteAgent(run.broker)
			continue
		}
		agent, ok := state.Bots[id]
		if !ok {
			agent, err = bot.Spawn(bot.Identity{UserID: id, DisplayName: state.Names[id]}, level, lo, hi)
			if err != nil {
				return err
			}
			state.Bots[id] = agent
		}
		agents[id] = agent
		sinks = append(sinks, agent)
	}

	opts := []app.OrchestratorOption{
		app.WithLogger(logger),
		app.WithSinks(sinks...),
		app.WithDecisionTimeout(cfg.DecisionTimeout()),
		app.WithFallback(bot.NewAgent("", "fallback", &bot.GreedyBot{})),
		app.WithMaxInvalidAttempts(cfg.MaxInvalidAttempts),
	}
	if cfg.CheckpointSessions && mh.sessions != nil {
		opts = append(opts, app.WithCheckpoint(mh.sessions))
	}
	o, err := app.NewOrchestrator(game, agents, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	run.cancel = cancel
	go func() {
		winner, err := o.Run(ctx)
		run.done <- runResult{winner: winner, err: err}
	}()
	state.run = run
	state.GameID = game.ID()
	clear(state.Latest)
	return nil
}

// handleDecision forwards a client's answer to the broker. The sender's
// presence decides whose answer it is, whatever the payload says.
func (mh *matchHandler) handleDecision(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string, data []byte) {
	if state.run == nil {
		mh.sendError(state, dispatcher, logger, senderID, 409, "no game running")
		return
	}
	var resp app.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		logger.Warn("handleDecision: Invalid response from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, "malformed decision")
		return
	}
	resp.PlayerID = senderID
	if outcome := state.run.broker.Submit(resp); outcome != app.OutcomeAccepted {
		logger.Debug("handleDecision: %s response %s from %s", outcome, resp.RequestID, senderID)
		mh.sendError(state, dispatcher, logger, senderID, 409, "stale response")
	}
}

// drain forwards up to limit queued game events; limit <= 0 drains everything.
func (mh *matchHandler) drain(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, limit int) {
	if state.run == nil {
		return
	}
	for n := 0; limit <= 0 || n < limit; n++ {
		select {
		case ev := <-state.run.events:
			mh.dispatchEvent(state, dispatcher, logger, ev)
		default:
			return
		}
	}
}

// checkDone returns the table to the lobby once the game goroutine exits.
func (mh *matchHandler) checkDone(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.run == nil {
		return
	}
	var res runResult
	select {
	case res = <-state.run.done:
	default:
		return
	}
	mh.drain(state, dispatcher, logger, 0)
	state.run.cancel()
	state.run = nil

	switch {
	case res.err == nil:
		logger.Info("Game %s won by %s", state.GameID, res.winner)
	case errors.Is(res.err, context.Canceled):
		logger.Info("Game %s stopped", state.GameID)
	default:
		logger.Error("Game %s aborted: %v", state.GameID, res.err)
		for id := range state.Presences {
			mh.sendError(state, dispatcher, logger, id, 500, "game aborted")
		}
	}

	state.GameID = uuid.NewString()
	for i, id := range state.Seats {
		if id != "" && !isBotUserId(id) {
			if _, connected := state.Presences[id]; !connected {
				state.Seats[i] = ""
			}
		}
	}
	state.reassignOwner()
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastMatchState(state, dispatcher, logger)
}

// dispatchEvent encodes one app event and sends it to its recipients.
func (mh *matchHandler) dispatchEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var opCode int64
	switch ev.Kind {
	case app.EventSnapshot:
		opCode = OpSnapshot
	case app.EventRejected:
		opCode = OpRejected
	case app.EventGameEnded:
		opCode = OpGameEnded
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := json.Marshal(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	if ev.Recipients == nil {
		dispatcher.BroadcastMessage(opCode, bytes, nil, nil, true)
		return
	}

	var recipients []runtime.Presence
	for _, uid := range ev.Recipients {
		if ev.Kind == app.EventSnapshot {
			state.Latest[uid] = bytes
		}
		if uid == domain.Spectator {
			recipients = append(recipients, state.spectators()...)
		} else if p, ok := state.Presences[uid]; ok {
			recipients = append(recipients, p)
		}
	}

	// Intended recipients who are not connected (bots, absent players) must
	// not turn this into a broadcast.
	if len(recipients) == 0 {
		return
	}
	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

// resend repeats the latest snapshot for viewer to one presence.
func (mh *matchHandler) resend(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, viewer string, p runtime.Presence) {
	bytes, ok := state.Latest[viewer]
	if !ok {
		return
	}
	if err := dispatcher.BroadcastMessage(OpSnapshot, bytes, []runtime.Presence{p}, nil, true); err != nil {
		logger.Warn("resend: Failed to send snapshot to %q: %v", viewer, err)
	}
}

// seatTokenMessage is the OpSeatToken payload.
type seatTokenMessage struct {
	GameID string `json:"game_id"`
	Token  string `json:"token"`
}

func (mh *matchHandler) issueSeatTokens(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Tokens == nil {
		return
	}
	for _, id := range state.Seats {
		p, ok := state.Presences[id]
		if !ok {
			continue
		}
		token, err := state.Tokens.Issue(id, state.GameID)
		if err != nil {
			logger.Error("issueSeatTokens: %v", err)
			continue
		}
		bytes, _ := json.Marshal(seatTokenMessage{GameID: state.GameID, Token: token})
		dispatcher.BroadcastMessage(OpSeatToken, bytes, []runtime.Presence{p}, nil, true)
	}
}

// seatView is one seat in the OpMatchState payload.
type seatView struct {
	Seat        int    `json:"seat"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	IsOwner     bool   `json:"is_owner"`
	IsBot       bool   `json:"is_bot"`
	Connected   bool   `json:"connected"`
}

// matchStateMessage is the OpMatchState payload.
type matchStateMessage struct {
	GameID    string     `json:"game_id"`
	Phase     string     `json:"phase"`
	OwnerSeat int        `json:"owner_seat"`
	Tick      int64      `json:"tick"`
	Seats     []seatView `json:"seats"`
}

func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	msg := matchStateMessage{
		GameID:    state.GameID,
		Phase:     labelFor(state).Phase,
		OwnerSeat: state.OwnerSeat,
		Tick:      state.Tick,
		Seats:     make([]seatView, 0, len(state.Seats)),
	}
	for i, userID := range state.Seats {
		if userID == "" {
			continue
		}
		_, connected := state.Presences[userID]
		msg.Seats = append(msg.Seats, seatView{
			Seat:        i,
			UserID:      userID,
			DisplayName: state.Names[userID],
			IsOwner:     i == state.OwnerSeat,
			IsBot:       isBotUserId(userID),
			Connected:   connected,
		})
	}
	bytes, err := json.Marshal(msg)
	if err != nil {
		logger.Error("broadcastMatchState: Failed to marshal: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpMatchState, bytes, nil, nil, true)
}

// errorMessage is the OpError payload.
type errorMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// sendError sends an OpError message to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	bytes, err := json.Marshal(errorMessage{Code: code, Message: message})
	if err != nil {
		logger.Error("Failed to marshal error message: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpError, bytes, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := labelFor(state).marshal()
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated, grace %d seconds", graceSeconds)
	if matchState, ok := state.(*MatchState); ok {
		matchState.stop()
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}

// stop cancels a running game. The last round checkpoint stays stored.
func (ms *MatchState) stop() {
	if ms.run != nil {
		ms.run.cancel()
	}
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func clampPlayers(n int) int {
	switch {
	case n < domain.MinPlayers:
		return domain.MinPlayers
	case n > domain.MaxPlayers:
		return domain.MaxPlayers
	default:
		return n
	}
}
