package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"cribbage/internal/domain"
	"cribbage/internal/logging"
	"cribbage/internal/ports"
)

var (
	ErrMissingAgent           = errors.New("no agent for player")
	ErrTooManyInvalidAttempts = errors.New("too many invalid answers")
)

// Orchestrator drives one game from its current phase to END, asking agents
// for decisions and publishing every snapshot to the configured sinks. Only
// the goroutine inside Run touches the game.
type Orchestrator struct {
	game       *domain.Game
	agents     map[string]Agent
	logger     runtime.Logger
	sinks      []ports.SnapshotSink
	timeout    time.Duration
	fallback   Agent
	maxInvalid int
	store      ports.SessionStore

	emitted int
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

func WithLogger(logger runtime.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithSinks(sinks ...ports.SnapshotSink) OrchestratorOption {
	return func(o *Orchestrator) { o.sinks = append(o.sinks, sinks...) }
}

// WithDecisionTimeout bounds each agent call. Zero disables the bound.
func WithDecisionTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithFallback sets the agent that answers timed out decisions and takes
// over after too many invalid answers.
func WithFallback(a Agent) OrchestratorOption {
	return func(o *Orchestrator) { o.fallback = a }
}

// WithMaxInvalidAttempts sets how many rejected answers one request tolerates.
// Zero means unlimited.
func WithMaxInvalidAttempts(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.maxInvalid = n }
}

// WithCheckpoint saves the session document after every round and at the end.
func WithCheckpoint(store ports.SessionStore) OrchestratorOption {
	return func(o *Orchestrator) { o.store = store }
}

// NewOrchestrator requires one agent per seated player.
func NewOrchestrator(game *domain.Game, agents map[string]Agent, opts ...OrchestratorOption) (*Orchestrator, error) {
	if game == nil {
		return nil, errors.New("orchestrator: game is nil")
	}
	o := &Orchestrator{
		game:       game,
		agents:     make(map[string]Agent, len(agents)),
		logger:     logging.Discard(),
		timeout:    DefaultDecisionTimeout,
		maxInvalid: DefaultMaxInvalidAttempts,
	}
	for _, opt := range opts {
		opt(o)
	}
	for _, id := range game.PlayerIDs() {
		a, ok := agents[id]
		if !ok || a == nil {
			return nil, fmt.Errorf("orchestrator: player %s: %w", id, ErrMissingAgent)
		}
		o.agents[id] = a
	}
	o.logger = o.logger.WithField("game_id", game.ID())
	return o, nil
}

// Game exposes the driven game. It must not be used while Run is active.
func (o *Orchestrator) Game() *domain.Game { return o.game }

// Run plays until the game ends and returns the winner. A resumed game picks
// up from whatever phase it was saved in; pending requests are re-asked.
func (o *Orchestrator) Run(ctx context.Context) (string, error) {
	o.logger.Info("Run: starting in phase %s, round %d", o.game.Phase(), o.game.RoundNumber())
	if o.emitted == 0 {
		// Observers of a resumed game only need the latest snapshot.
		o.emitted = o.game.EventCount() - 1
	}
	o.flush(ctx)

	for !o.game.IsOver() {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("run game %s: %w", o.game.ID(), err)
		}
		phase := o.game.Phase()
		var err error
		switch phase {
		case domain.PhaseDealerSelection:
			err = o.selectDealer(ctx)
		case domain.PhaseDealing:
			err = o.deal(ctx)
		case domain.PhaseDiscarding:
			err = o.discard(ctx)
		case domain.PhaseCutting:
			err = o.cut(ctx)
		case domain.PhasePegging:
			err = o.peg(ctx)
		case domain.PhaseCounting:
			err = o.count(ctx)
		default:
			err = fmt.Errorf("unexpected phase %s", phase)
		}
		if err != nil {
			o.logger.Error("Run: %s failed: %v", phase, err)
			return "", fmt.Errorf("run game %s: %s: %w", o.game.ID(), phase, err)
		}
		if next := o.game.Phase(); next != phase {
			o.logger.Debug("Run: %s -> %s", phase, next)
		}
	}

	winner := o.game.Winner()
	o.logger.Info("Run: game over after %d rounds, winner %s", o.game.RoundNumber(), winner)
	return winner, nil
}

// flush hands every snapshot not yet emitted to the sinks and checkpoints on
// round and game boundaries.
func (o *Orchestrator) flush(ctx context.Context) {
	snaps := o.game.SnapshotsSince(o.emitted)
	o.emitted = o.game.EventCount()
	checkpoint := false
	for _, snap := range snaps {
		for _, sink := range o.sinks {
			sink.OnSnapshot(ctx, snap)
		}
		switch snap.GameEvent.ActionType {
		case domain.ActionEndRound, domain.ActionWin:
			checkpoint = true
		}
	}
	if checkpoint {
		o.checkpoint(ctx)
	}
}

func (o *Orchestrator) checkpoint(ctx context.Context) {
	if o.store == nil {
		return
	}
	data, err := o.game.ToJSON()
	if err != nil {
		o.logger.Error("Checkpoint: encode failed: %v", err)
		return
	}
	if err := o.store.Save(ctx, o.game.ID(), data); err != nil {
		o.logger.Error("Checkpoint: save failed: %v", err)
		return
	}
	o.logger.Debug("Checkpoint: saved round %d (%d bytes)", o.game.RoundNumber(), len(data))
}

func (o *Orchestrator) reject(ctx context.Context, req domain.DecisionRequest, reason error) {
	o.logger.WithField("player_id", req.PlayerID).Warn("%s: rejected answer: %v", req.DecisionType, reason)
	for _, sink := range o.sinks {
		sink.OnRejected(ctx, req.PlayerID, req, reason)
	}
}

// request returns the pending request for the player and type, registering
// it first when absent. Resumed games keep their original request ids.
func (o *Orchestrator) request(playerID string, t domain.DecisionType, data domain.RequestData) (domain.DecisionRequest, error) {
	if req, ok := o.game.PendingRequest(playerID, t); ok {
		return req, nil
	}
	return o.game.RequestDecision(playerID, t, data, o.timeout)
}

func (o *Orchestrator) prompt(req domain.DecisionRequest, rejection error) Prompt {
	return Prompt{
		PlayerID:  req.PlayerID,
		View:      domain.RedactSnapshot(o.game.Snapshot(), req.PlayerID),
		Request:   req,
		Rejection: rejection,
	}
}

func (o *Orchestrator) acknowledgeAll(ctx context.Context, t domain.DecisionType) error {
	var items []decision
	for _, id := range o.game.PlayerIDs() {
		if o.game.HasAcknowledged(id, t) {
			continue
		}
		req, err := o.request(id, t, domain.RequestData{})
		if err != nil {
			return err
		}
		playerID := id
		items = append(items, decision{
			req: req,
			ask: func(ctx context.Context, a Agent, p Prompt) (answer, error) {
				return answer{}, a.Acknowledge(ctx, p)
			},
			apply: func(answer) error { return o.game.Acknowledge(playerID, t) },
		})
	}
	return o.collect(ctx, items)
}

func (o *Orchestrator) selectDealer(ctx context.Context) error {
	if err := o.acknowledgeAll(ctx, domain.DecisionReadyForGameStart); err != nil {
		return err
	}
	maxIndex := o.game.DeckSize() - 1
	var items []decision
	for _, id := range o.game.PlayerIDs() {
		if o.game.HasSelectedDealerCard(id) {
			continue
		}
		req, err := o.request(id, domain.DecisionSelectDealerCard, domain.RequestData{MaxIndex: maxIndex})
		if err != nil {
			return err
		}
		playerID := id
		items = append(items, decision{
			req: req,
			ask: func(ctx context.Context, a Agent, p Prompt) (answer, error) {
				idx, err := a.SelectDealerCard(ctx, p, maxIndex)
				return answer{index: idx}, err
			},
			apply: func(ans answer) error {
				_, err := o.game.SelectDealerCard(playerID, ans.index)
				return err
			},
		})
	}
	if err := o.collect(ctx, items); err != nil {
		return err
	}
	o.logger.Info("SelectDealer: %s deals first", o.game.DealerID())
	return nil
}

func (o *Orchestrator) deal(ctx context.Context) error {
	if !o.game.RoundStarted() {
		if err := o.game.StartRound(); err != nil {
			return err
		}
		o.flush(ctx)
	}
	if err := o.game.Deal(); err != nil {
		return err
	}
	o.flush(ctx)
	return nil
}

func (o *Orchestrator) discard(ctx context.Context) error {
	count := o.game.Rules().Discards
	var items []decision
	for _, id := range o.game.PlayerIDs() {
		if o.game.HasDiscarded(id) {
			continue
		}
		p, _ := o.game.Player(id)
		req, err := o.request(id, domain.DecisionDiscard, domain.RequestData{Count: count, Hand: p.Hand})
		if err != nil {
			return err
		}
		playerID := id
		items = append(items, decision{
			req: req,
			ask: func(ctx context.Context, a Agent, p Prompt) (answer, error) {
				cards, err := a.Discard(ctx, p, count)
				return answer{cards: cards}, err
			},
			apply: func(ans answer) error { return o.game.DiscardToCrib(playerID, ans.cards) },
		})
	}
	if err := o.collect(ctx, items); err != nil {
		return err
	}
	if err := o.game.CompleteCribPhase(); err != nil {
		return err
	}
	o.flush(ctx)
	return nil
}

func (o *Orchestrator) cut(ctx context.Context) error {
	cutter := o.game.CutterID()
	maxIndex := o.game.DeckSize() - 1
	req, err := o.request(cutter, domain.DecisionCutDeck, domain.RequestData{MaxIndex: maxIndex})
	if err != nil {
		return err
	}
	return o.collect(ctx, []decision{{
		req: req,
		ask: func(ctx context.Context, a Agent, p Prompt) (answer, error) {
			idx, err := a.CutDeck(ctx, p, maxIndex)
			return answer{index: idx}, err
		},
		apply: func(ans answer) error {
			card, err := o.game.CutDeck(cutter, ans.index)
			if err == nil {
				o.logger.Debug("CutDeck: %s turned %s", cutter, card)
			}
			return err
		},
	}})
}

func (o *Orchestrator) peg(ctx context.Context) error {
	if o.game.PeggingDone() {
		if err := o.game.EndPegging(); err != nil {
			return err
		}
		o.flush(ctx)
		return nil
	}
	turn := o.game.PeggingTurn()
	p, _ := o.game.Player(turn)
	req, err := o.request(turn, domain.DecisionPlayCard, domain.RequestData{
		PeggingTotal: o.game.PeggingTotal(),
		Hand:         p.PeggingHand,
	})
	if err != nil {
		return err
	}
	return o.collect(ctx, []decision{{
		req: req,
		ask: func(ctx context.Context, a Agent, p Prompt) (answer, error) {
			card, err := a.PlayCard(ctx, p)
			return answer{card: card}, err
		},
		apply: func(ans answer) error {
			credited, err := o.game.PlayCard(turn, ans.card)
			if err == nil && credited != "" {
				o.logger.Debug("PlayCard: count ended by %s", credited)
			}
			return err
		},
	}})
}

func (o *Orchestrator) count(ctx context.Context) error {
	if o.game.CribCounted() {
		if err := o.acknowledgeAll(ctx, domain.DecisionReadyForNextRound); err != nil {
			return err
		}
		if err := o.game.EndRound(); err != nil {
			return err
		}
		o.flush(ctx)
		return nil
	}

	if err := o.acknowledgeAll(ctx, domain.DecisionReadyForCounting); err != nil {
		return err
	}
	for _, id := range o.game.CountingOrder() {
		if o.game.HasCounted(id) {
			continue
		}
		score, err := o.game.ScoreHandFor(id)
		if err != nil {
			return err
		}
		o.logger.Debug("ScoreHand: %s scored %d", id, score.Points)
		o.flush(ctx)
		if o.game.IsOver() {
			return nil
		}
	}
	dealer := o.game.DealerID()
	score, err := o.game.ScoreCribFor(dealer)
	if err != nil {
		return err
	}
	o.logger.Debug("ScoreCrib: %s scored %d", dealer, score.Points)
	o.flush(ctx)
	return nil
}
