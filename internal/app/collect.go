package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"cribbage/internal/domain"
)

// answer carries whichever field the decision type needs.
type answer struct {
	index int
	cards []domain.Card
	card  *domain.Card
}

type decision struct {
	req domain.DecisionRequest
	// ask runs on a worker goroutine and must not touch the game.
	ask func(ctx context.Context, a Agent, p Prompt) (answer, error)
	// apply runs on the Run goroutine.
	apply func(answer) error
}

type result struct {
	slot int
	ans  answer
}

type verdict struct {
	err    error
	prompt Prompt
}

// collect asks every decision concurrently and applies the answers one at a
// time in arrival order. A rejected answer is reported and re-asked with the
// rejection attached; any other error stops the whole batch.
func (o *Orchestrator) collect(ctx context.Context, items []decision) error {
	if len(items) == 0 {
		return nil
	}
	o.flush(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, gctx := errgroup.WithContext(ctx)

	results := make(chan result, len(items))
	verdicts := make([]chan verdict, len(items))
	for i, it := range items {
		verdicts[i] = make(chan verdict, 1)
		agent := o.agents[it.req.PlayerID]
		prompt := o.prompt(it.req, nil)
		slot := i
		group.Go(func() error {
			return o.decide(gctx, slot, it, agent, prompt, results, verdicts[slot])
		})
	}

	var applyErr error
	for remaining := len(items); remaining > 0 && applyErr == nil; {
		select {
		case r := <-results:
			it := items[r.slot]
			err := it.apply(r.ans)
			switch {
			case err == nil:
				remaining--
				o.flush(ctx)
				verdicts[r.slot] <- verdict{}
			case domain.IsInvalidAction(err):
				o.reject(ctx, it.req, err)
				verdicts[r.slot] <- verdict{err: err, prompt: o.prompt(it.req, err)}
			default:
				applyErr = fmt.Errorf("%s for %s: %w", it.req.DecisionType, it.req.PlayerID, err)
			}
		case <-gctx.Done():
			applyErr = context.Cause(gctx)
		}
	}
	cancel()
	waitErr := group.Wait()

	if applyErr != nil && !errors.Is(applyErr, context.Canceled) {
		return applyErr
	}
	if waitErr != nil {
		return waitErr
	}
	return applyErr
}

// decide owns one decision until it is accepted: it asks the agent, hands the
// answer to the Run goroutine and waits for the verdict.
func (o *Orchestrator) decide(ctx context.Context, slot int, it decision, agent Agent, prompt Prompt, results chan<- result, verdicts <-chan verdict) error {
	rejected := 0
	fallback := false
	for {
		ans, err := o.ask(ctx, it, agent, prompt, fallback)
		if err != nil {
			return err
		}
		select {
		case results <- result{slot: slot, ans: ans}:
		case <-ctx.Done():
			return ctx.Err()
		}

		var v verdict
		select {
		case v = <-verdicts:
		case <-ctx.Done():
			return ctx.Err()
		}
		if v.err == nil {
			return nil
		}
		prompt = v.prompt
		rejected++
		if o.maxInvalid == 0 || rejected < o.maxInvalid {
			continue
		}
		if fallback || o.fallback == nil {
			return fmt.Errorf("%s for %s after %d attempts: %w", it.req.DecisionType, it.req.PlayerID, rejected, ErrTooManyInvalidAttempts)
		}
		o.logger.WithField("player_id", it.req.PlayerID).Warn("%s: %d invalid answers, handing over to fallback", it.req.DecisionType, rejected)
		agent, fallback, rejected = o.fallback, true, 0
	}
}

// ask calls the agent under the decision timeout. A timed out agent is
// replaced by the fallback for this one answer.
func (o *Orchestrator) ask(ctx context.Context, it decision, agent Agent, prompt Prompt, fallback bool) (answer, error) {
	actx, cancel := ctx, context.CancelFunc(func() {})
	if o.timeout > 0 && !fallback {
		actx, cancel = context.WithTimeout(ctx, o.timeout)
	}
	ans, err := it.ask(actx, agent, prompt)
	cancel()
	if err == nil {
		return ans, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil && o.fallback != nil && !fallback {
		o.logger.WithField("player_id", it.req.PlayerID).Warn("%s: no answer within %s, using fallback", it.req.DecisionType, o.timeout)
		ans, err = it.ask(ctx, o.fallback, prompt)
		if err == nil {
			return ans, nil
		}
	}
	return answer{}, fmt.Errorf("%s for %s: %w", it.req.DecisionType, it.req.PlayerID, err)
}
