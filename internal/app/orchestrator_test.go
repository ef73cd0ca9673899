package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cribbage/internal/domain"
)

func TestRunPlaysToCompletion(t *testing.T) {
	for _, players := range []int{2, 3, 4} {
		g := newGame(t, players, uint64(players))
		sink := &recordingSink{}
		o, err := NewOrchestrator(g, agentsFor(g, firstChoiceAgent{}), WithSinks(sink))
		require.NoError(t, err)

		winner, err := o.Run(context.Background())
		require.NoError(t, err)

		p, ok := g.Player(winner)
		require.True(t, ok, "winner %q not seated", winner)
		assert.GreaterOrEqual(t, p.Score, domain.WinningScore)
		assert.Equal(t, domain.PhaseEnd, g.Phase())
		assert.Empty(t, g.PendingRequests())

		require.NotEmpty(t, sink.snapshots)
		assert.Equal(t, domain.ActionBeginPhase, sink.snapshots[0].GameEvent.ActionType)
		assert.Equal(t, domain.ActionWin, sink.snapshots[len(sink.snapshots)-1].GameEvent.ActionType)
		assert.Len(t, sink.snapshots, g.EventCount(), "one snapshot per event")
		for i := 1; i < len(sink.snapshots); i++ {
			assert.Greater(t, sink.snapshots[i].GameEvent.SnapshotID, sink.snapshots[i-1].GameEvent.SnapshotID)
		}
	}
}

func TestNewOrchestratorRequiresEveryAgent(t *testing.T) {
	g := newGame(t, 3, 1)
	agents := agentsFor(g, firstChoiceAgent{})
	delete(agents, "p2")

	_, err := NewOrchestrator(g, agents)
	assert.ErrorIs(t, err, ErrMissingAgent)
}

// stubbornDiscarder offers one card too many for the first bad discards.
type stubbornDiscarder struct {
	firstChoiceAgent
	bad   int
	calls int
	seen  []error
}

func (a *stubbornDiscarder) Discard(ctx context.Context, p Prompt, count int) ([]domain.Card, error) {
	a.calls++
	if p.Rejection != nil {
		a.seen = append(a.seen, p.Rejection)
	}
	if a.calls <= a.bad {
		return p.Request.RequestData.Hand[:count+1], nil
	}
	return p.Request.RequestData.Hand[:count], nil
}

func TestRejectedAnswerIsReportedAndReasked(t *testing.T) {
	g := newGame(t, 2, 5)
	sink := &recordingSink{}
	stubborn := &stubbornDiscarder{bad: 1}
	agents := agentsFor(g, firstChoiceAgent{})
	agents["p0"] = stubborn

	o, err := NewOrchestrator(g, agents, WithSinks(sink), WithMaxInvalidAttempts(3))
	require.NoError(t, err)
	_, err = o.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, sink.rejected)
	assert.ErrorIs(t, sink.rejected[0], domain.ErrDiscardCount)
	require.NotEmpty(t, stubborn.seen)
	assert.ErrorIs(t, stubborn.seen[0], domain.ErrDiscardCount)
}

func TestTooManyInvalidAnswersWithoutFallbackFails(t *testing.T) {
	g := newGame(t, 2, 5)
	agents := agentsFor(g, firstChoiceAgent{})
	agents["p1"] = &stubbornDiscarder{bad: 1000}

	o, err := NewOrchestrator(g, agents, WithMaxInvalidAttempts(2))
	require.NoError(t, err)
	_, err = o.Run(context.Background())
	assert.ErrorIs(t, err, ErrTooManyInvalidAttempts)
}

func TestFallbackTakesOverAfterInvalidAnswers(t *testing.T) {
	g := newGame(t, 2, 5)
	stubborn := &stubbornDiscarder{bad: 1000}
	agents := agentsFor(g, firstChoiceAgent{})
	agents["p1"] = stubborn

	o, err := NewOrchestrator(g, agents, WithMaxInvalidAttempts(2), WithFallback(firstChoiceAgent{}))
	require.NoError(t, err)
	_, err = o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2*g.RoundNumber(), stubborn.calls, "two attempts per round before the fallback answers")
}

// sleepyAgent never answers dealer selection on its own.
type sleepyAgent struct {
	firstChoiceAgent
	waited atomic.Int32
}

func (a *sleepyAgent) SelectDealerCard(ctx context.Context, p Prompt, maxIndex int) (int, error) {
	a.waited.Add(1)
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestTimedOutDecisionUsesFallback(t *testing.T) {
	g := newGame(t, 2, 9)
	sleepy := &sleepyAgent{}
	agents := agentsFor(g, firstChoiceAgent{})
	agents["p0"] = sleepy

	o, err := NewOrchestrator(g, agents,
		WithDecisionTimeout(20*time.Millisecond),
		WithFallback(firstChoiceAgent{}),
	)
	require.NoError(t, err)
	_, err = o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), sleepy.waited.Load())

	state := g.State()
	require.Len(t, state.DealerSelections, 2)
}

func TestTimedOutDecisionWithoutFallbackFails(t *testing.T) {
	g := newGame(t, 2, 9)
	agents := agentsFor(g, firstChoiceAgent{})
	agents["p0"] = &sleepyAgent{}

	o, err := NewOrchestrator(g, agents, WithDecisionTimeout(10*time.Millisecond))
	require.NoError(t, err)
	_, err = o.Run(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunStopsOnCancellation(t *testing.T) {
	g := newGame(t, 2, 9)
	agents := agentsFor(g, firstChoiceAgent{})
	agents["p1"] = &sleepyAgent{}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	o, err := NewOrchestrator(g, agents)
	require.NoError(t, err)
	_, err = o.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.Equal(t, domain.PhaseDealerSelection, g.Phase())
}

func TestCheckpointAndResume(t *testing.T) {
	g := newGame(t, 3, 4)
	store := newMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := &recordingSink{onSnap: func(s domain.Snapshot) {
		if s.GameEvent.ActionType == domain.ActionEndRound {
			cancel()
		}
	}}

	o, err := NewOrchestrator(g, agentsFor(g, firstChoiceAgent{}), WithSinks(sink), WithCheckpoint(store))
	require.NoError(t, err)
	_, err = o.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, store.saves)

	doc, err := store.Load(context.Background(), g.ID())
	require.NoError(t, err)
	restored, err := domain.FromJSON(doc)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseDealing, restored.Phase())
	assert.Equal(t, 1, restored.RoundNumber())

	resumedSink := &recordingSink{}
	o, err = NewOrchestrator(restored, agentsFor(restored, firstChoiceAgent{}), WithSinks(resumedSink), WithCheckpoint(store))
	require.NoError(t, err)
	winner, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, winner)

	require.NotEmpty(t, resumedSink.snapshots)
	assert.Equal(t, domain.ActionEndRound, resumedSink.snapshots[0].GameEvent.ActionType, "resume starts from the latest snapshot")

	final, err := store.Load(context.Background(), g.ID())
	require.NoError(t, err)
	ended, err := domain.FromJSON(final)
	require.NoError(t, err)
	assert.True(t, ended.IsOver())
	assert.Equal(t, winner, ended.Winner())
}

func TestRemotePlayerThroughBroker(t *testing.T) {
	g := newGame(t, 2, 3)
	broker := NewBroker()
	agents := agentsFor(g, firstChoiceAgent{})
	agents["p0"] = NewRemoteAgent(broker)

	stale := atomic.Int32{}
	done, stopped := make(chan struct{}), make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-done:
				return
			default:
			}
			for _, req := range broker.Pending("p0") {
				resp := answerFor(req)
				assert.Equal(t, OutcomeAccepted, broker.Submit(resp))
				if broker.Submit(resp) == OutcomeStale {
					stale.Add(1)
				}
			}
			time.Sleep(time.Millisecond)
		}
	}()

	o, err := NewOrchestrator(g, agents, WithSinks(broker))
	require.NoError(t, err)
	winner, err := o.Run(context.Background())
	close(done)
	<-stopped
	require.NoError(t, err)
	assert.NotEmpty(t, winner)
	assert.Positive(t, stale.Load(), "duplicate submissions must be stale")
}
