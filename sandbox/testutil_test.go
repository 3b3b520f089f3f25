package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abshake96/ez-ptc/tool"
)

// mustTool builds a tool or fails the test.
func mustTool(t *testing.T, name, desc string, h tool.Handler, opts ...tool.Option) *tool.Tool {
	t.Helper()
	tl, err := tool.New(name, desc, h, opts...)
	if err != nil {
		t.Fatalf("tool.New(%q): %v", name, err)
	}
	return tl
}

// addHandler sums its integer arguments.
func addHandler(_ context.Context, args ...any) (any, error) {
	var sum int64
	for _, a := range args {
		n, ok := a.(int64)
		if !ok {
			return nil, fmt.Errorf("add: argument %v is not an integer", a)
		}
		sum += n
	}
	return sum, nil
}

// greetHandler accepts a single object argument with a "name" key.
func greetHandler(_ context.Context, args ...any) (any, error) {
	if len(args) != 1 {
		return nil, errors.New("greet: want one argument")
	}
	m, ok := args[0].(map[string]any)
	if !ok {
		return nil, errors.New("greet: want an object argument")
	}
	name, _ := m["name"].(string)
	return "hello " + name, nil
}

// failHandler always fails.
func failHandler(_ context.Context, _ ...any) (any, error) {
	return nil, errors.New("boom")
}

// slowHandler sleeps for the given duration, honoring cancellation, then
// returns its marker.
func slowHandler(d time.Duration, marker string) tool.Handler {
	return func(ctx context.Context, _ ...any) (any, error) {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return marker, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// countingHandler increments a counter on every invocation.
func countingHandler(count *atomic.Int64) tool.Handler {
	return func(ctx context.Context, _ ...any) (any, error) {
		count.Add(1)
		select {
		case <-time.After(10 * time.Millisecond):
		case <-ctx.Done():
		}
		return nil, ctx.Err()
	}
}

// testSet builds the standard test tool set.
func testSet(t *testing.T) *tool.Set {
	t.Helper()
	set, err := tool.NewSet(
		mustTool(t, "add", "Adds numbers", addHandler, tool.WithSignature("add(a, b)")),
		mustTool(t, "greet", "Greets by name", greetHandler),
		mustTool(t, "fail", "Always fails", failHandler),
		mustTool(t, "slow_a", "Slow tool A", slowHandler(150*time.Millisecond, "a")),
		mustTool(t, "slow_b", "Slow tool B", slowHandler(150*time.Millisecond, "b")),
	)
	if err != nil {
		t.Fatalf("tool.NewSet: %v", err)
	}
	return set
}

// newExecutor builds an executor or fails the test.
func newExecutor(t *testing.T, cfg Config) *Executor {
	t.Helper()
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

// mustExecute runs a script and fails the test on a harness error.
func mustExecute(t *testing.T, e *Executor, params Params) Result {
	t.Helper()
	res, err := e.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return res
}

// recordingLogger captures Logf output for assertions.
type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordingLogger) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}
