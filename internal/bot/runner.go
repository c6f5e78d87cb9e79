package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// Runner drives an Engine against the wall clock, evaluating once per
// candle close. Stop requests take effect at the next tick boundary, never
// mid transition.
type Runner struct {
	engine *Engine

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewRunner wraps an engine in a candle-aligned trading loop.
func NewRunner(engine *Engine) *Runner {
	return &Runner{
		engine:   engine,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run reconciles against the exchange, then ticks at every candle close
// until the context is cancelled or Stop is called. The granularity is
// re-read each cycle so smart switching takes effect on the next wait.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)

	if err := r.engine.Reconcile(ctx); err != nil {
		return err
	}

	if r.engine.feed != nil {
		feedCtx, cancelFeed := context.WithCancel(ctx)
		defer cancelFeed()
		go r.engine.feed.Run(feedCtx)
	}

	if r.engine.logger != nil {
		r.engine.logger.Info("waiting %.0fs for next %s candle close",
			timeUntilNextCandle(r.engine.clk.Now(), r.engine.Granularity()).Seconds(),
			r.engine.Granularity())
	}

	for {
		wait := timeUntilNextCandle(r.engine.clk.Now(), r.engine.Granularity())
		timer := time.NewTimer(wait)

		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-r.stopChan:
			timer.Stop()
			if r.engine.logger != nil {
				r.engine.logger.Info("stop requested, ending trading loop")
			}
			return nil
		}

		// A tick runs to completion once started. Stop is honored between
		// ticks only.
		if _, err := r.engine.Tick(ctx); err != nil {
			if errors.Is(err, ErrHalted) {
				if r.engine.logger != nil {
					r.engine.logger.Error("halting: %v", err)
				}
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		select {
		case <-r.stopChan:
			if r.engine.logger != nil {
				r.engine.logger.Info("stop requested, ending trading loop")
			}
			return nil
		default:
		}
	}
}

// Stop requests a graceful stop. It returns immediately; the loop exits at
// the next tick boundary. Safe to call more than once.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
	})
}

// Done is closed when the trading loop has exited.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// timeUntilNextCandle returns the wait until the next candle boundary, with
// a small offset so the closed candle is visible when we fetch.
func timeUntilNextCandle(now time.Time, g types.Granularity) time.Duration {
	step := g.Duration()
	next := now.UTC().Truncate(step).Add(step)
	return next.Sub(now.UTC()) + 2*time.Second
}
