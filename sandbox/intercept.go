package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/abshake96/ez-ptc/tool"
)

// interceptor owns the run-local call trace and print buffer, and bridges
// script-side tool calls onto Go handlers. Every invocation is a future: a
// plain call launches and waits immediately, spawn hands the future to the
// script as a Handle. Records are appended in completion order.
type interceptor struct {
	ctx      context.Context
	maxCalls int

	mu      sync.Mutex
	stdout  bytes.Buffer
	records []CallRecord
	calls   int
}

func newInterceptor(ctx context.Context, maxCalls int) *interceptor {
	return &interceptor{ctx: ctx, maxCalls: maxCalls}
}

// pending is one in-flight tool invocation.
type pending struct {
	name string
	done chan struct{}
	val  any
	err  error
}

// wait blocks until the invocation completes or ctx is done. A context error
// here means the run deadline cut the wait short.
func (p *pending) wait(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		return nil, fmt.Errorf("tool %q: %w", p.name, ctx.Err())
	}
}

// launch starts a tool invocation on its own goroutine and returns the
// pending future. It refuses to start once the run context is cancelled, so
// a run that has reported a timeout can produce no further tool invocations.
func (i *interceptor) launch(t *tool.Tool, args []any) (*pending, error) {
	if err := i.ctx.Err(); err != nil {
		return nil, fmt.Errorf("tool %q not invoked: %w", t.Name(), err)
	}

	i.mu.Lock()
	if i.maxCalls > 0 && i.calls >= i.maxCalls {
		i.mu.Unlock()
		return nil, fmt.Errorf("%w: max tool calls (%d) exceeded", ErrLimitExceeded, i.maxCalls)
	}
	i.calls++
	i.mu.Unlock()

	// Snapshot arguments on the calling goroutine, before the script can
	// mutate the underlying objects.
	rec := CallRecord{Name: t.Name()}
	if len(args) == 1 {
		if m, ok := args[0].(map[string]any); ok {
			rec.Kwargs = deepCopyArgs(m)
		}
	}
	if rec.Kwargs == nil {
		rec.Args = deepCopySlice(args)
	}

	p := &pending{name: t.Name(), done: make(chan struct{})}
	handler := t.Handler()
	go func() {
		start := time.Now()
		val, err := invokeHandler(i.ctx, handler, args)
		rec.DurationMs = time.Since(start).Milliseconds()
		if err != nil {
			rec.Error = err.Error()
		} else {
			rec.Result = deepCopyValue(val)
		}
		p.val, p.err = val, err
		i.append(rec)
		close(p.done)
	}()
	return p, nil
}

// invokeHandler calls a handler, converting a panic into an error so a
// faulty tool cannot take down the harness.
func invokeHandler(ctx context.Context, h tool.Handler, args []any) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return h(ctx, args...)
}

func (i *interceptor) append(rec CallRecord) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.records = append(i.records, rec)
}

// print renders the arguments space-separated with a trailing newline into
// the run-local output buffer.
func (i *interceptor) print(args []goja.Value) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for n, arg := range args {
		if n > 0 {
			i.stdout.WriteByte(' ')
		}
		i.stdout.WriteString(displayValue(arg))
	}
	i.stdout.WriteByte('\n')
}

// snapshot returns the captured output and a copy of the records. Taken
// under the lock so a worker abandoned after a timeout cannot race the
// drain.
func (i *interceptor) snapshot() (string, []CallRecord) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stdout.String(), append([]CallRecord(nil), i.records...)
}

// displayValue formats a script value for print: strings verbatim, numbers
// and booleans plainly, objects and arrays as JSON.
func displayValue(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	switch ex := v.Export().(type) {
	case string:
		return ex
	case map[string]any, []any:
		if data, err := json.Marshal(ex); err == nil {
			return string(data)
		}
		return v.String()
	default:
		return v.String()
	}
}

// Handle is the script-visible future returned by spawn. With the
// uncapitalizing field mapper it appears in scripts as {wait(), done(),
// name()}.
type Handle struct {
	p   *pending
	ctx context.Context
}

// Wait blocks until the invocation completes and returns its result,
// throwing the tool's error into the script on failure.
func (h *Handle) Wait() (any, error) {
	return h.p.wait(h.ctx)
}

// Done reports whether the invocation has completed.
func (h *Handle) Done() bool {
	select {
	case <-h.p.done:
		return true
	default:
		return false
	}
}

// Name returns the tool name this handle belongs to.
func (h *Handle) Name() string {
	return h.p.name
}
