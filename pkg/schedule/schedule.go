// Package schedule runs a declarative list of timed effects on a single
// goroutine with one timer, so that stopping the run cancels every pending
// effect at once.
package schedule

import (
	"cmp"
	"context"
	"slices"
	"time"
)

// Step is an effect to run at a fixed offset from the start of the run.
type Step struct {
	At time.Duration
	Do func()
}

// Runner executes a schedule. The zero value is not usable; see Start.
type Runner struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Start launches steps in offset order (stable for equal offsets). The run
// ends after the last step, when ctx is cancelled, or when Stop is called.
func Start(ctx context.Context, steps []Step) *Runner {
	ctx, cancel := context.WithCancel(ctx)
	ordered := slices.Clone(steps)
	slices.SortStableFunc(ordered, func(a, b Step) int {
		return cmp.Compare(a.At, b.At)
	})

	r := &Runner{cancel: cancel, done: make(chan struct{})}
	go r.run(ctx, ordered)
	return r
}

func (r *Runner) run(ctx context.Context, steps []Step) {
	defer close(r.done)
	defer r.cancel()

	start := time.Now()
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for _, step := range steps {
		if wait := step.At - time.Since(start); wait > 0 {
			if timer == nil {
				timer = time.NewTimer(wait)
			} else {
				timer.Reset(wait)
			}
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			return
		}
		step.Do()
	}
}

// Stop cancels all pending steps and waits for the run goroutine to exit.
// After Stop returns no step runs. Stop must not be called from inside a step.
func (r *Runner) Stop() {
	r.cancel()
	<-r.done
}

// Done is closed once the run goroutine has exited.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Total is the offset of the last step.
func Total(steps []Step) time.Duration {
	var total time.Duration
	for _, s := range steps {
		total = max(total, s.At)
	}
	return total
}
