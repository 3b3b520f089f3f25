package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
)

// Strategy selects how the deadline is enforced for a run.
type Strategy string

const (
	// StrategyInterrupt evaluates the script on the calling goroutine and
	// interrupts the engine at its next safe point when the deadline fires.
	// Cancellation is cooperative: a single long-running native call is not
	// cut short, though tool-call waits are (they watch the run context).
	StrategyInterrupt Strategy = "interrupt"

	// StrategySupervisor evaluates the script on a dedicated worker
	// goroutine while the caller performs a bounded wait. On expiry the
	// engine is interrupted and the run context cancelled; if the worker is
	// stuck in an uninterruptible native call past a short grace period it
	// is abandoned. An abandoned worker can no longer invoke tools; the
	// interceptor refuses launches once the run context is cancelled.
	StrategySupervisor Strategy = "supervisor"
)

// supervisorGrace is how long the supervisor waits for an interrupted worker
// to reach a safe point before abandoning it.
const supervisorGrace = 250 * time.Millisecond

var (
	// errInterrupted is installed as the engine interrupt value.
	errInterrupted = errors.New("execution interrupted")

	// errAbandoned marks a worker that did not stop within the grace period.
	errAbandoned = errors.New("worker abandoned after deadline")
)

// governor arms the wall-clock deadline for one run and converts expiry into
// a cancellation outcome. Both strategies produce the same shape: disarm
// reports whether the deadline expired.
type governor struct {
	timer   *time.Timer
	stop    func() bool
	expired atomic.Bool
}

// armGovernor starts deadline supervision. When the timer fires (or the
// caller's context is cancelled) the run context is cancelled and the engine
// interrupted at its next safe point.
func armGovernor(runCtx context.Context, cancel context.CancelFunc, vm *goja.Runtime, timeout time.Duration) *governor {
	g := &governor{}
	if timeout > 0 {
		g.timer = time.AfterFunc(timeout, func() {
			g.expired.Store(true)
			cancel()
		})
	}
	g.stop = context.AfterFunc(runCtx, func() {
		vm.Interrupt(errInterrupted)
	})
	return g
}

// disarm stops supervision and reports whether the deadline expired. A
// pending engine interrupt is deliberately left in place: the VM is
// run-local and never reused, and an abandoned worker that resumes from a
// long native call must still stop at its next safe point.
func (g *governor) disarm() bool {
	if g.timer != nil {
		g.timer.Stop()
	}
	g.stop()
	return g.expired.Load()
}

// evaluate runs eval under the given strategy.
func (g *governor) evaluate(runCtx context.Context, strategy Strategy, eval func() (goja.Value, error)) (goja.Value, error) {
	if strategy != StrategySupervisor {
		return eval()
	}

	type outcome struct {
		val goja.Value
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		var out outcome
		defer func() {
			if r := recover(); r != nil {
				out = outcome{err: fmt.Errorf("internal executor fault: %v", r)}
			}
			done <- out
		}()
		out.val, out.err = eval()
	}()

	select {
	case out := <-done:
		return out.val, out.err
	case <-runCtx.Done():
	}

	// Deadline or cancellation: the engine interrupt is already scheduled;
	// give the worker a moment to reach a safe point.
	select {
	case out := <-done:
		return out.val, out.err
	case <-time.After(supervisorGrace):
		return nil, errAbandoned
	}
}
