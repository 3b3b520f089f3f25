package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/abshake96/ez-ptc/tool"
)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second
)

// Config holds the configuration for an Executor.
type Config struct {
	// Tools is the fixed tool set exposed to scripts. Optional; nil means
	// no tools.
	Tools *tool.Set

	// Surface is the capability surface. Optional; nil means
	// DefaultSurface.
	Surface *Surface

	// ExtraModules adds embedder-provided module constructors to the
	// resolvable set. Names here may shadow built-in modules. A module is
	// still only loadable when the Surface allow-lists its name.
	ExtraModules map[string]ModuleFunc

	// DefaultTimeout is applied when Params.Timeout is zero.
	// Defaults to 30s.
	DefaultTimeout time.Duration

	// MaxToolCalls limits tool invocations per run. Zero means unlimited.
	MaxToolCalls int

	// Strategy selects the deadline enforcement strategy.
	// Defaults to StrategyInterrupt.
	Strategy Strategy

	// Logger is an optional logger for observability.
	Logger Logger
}

// Validate checks the configuration.
// Returns ErrConfiguration on invalid values.
func (c *Config) Validate() error {
	switch c.Strategy {
	case "", StrategyInterrupt, StrategySupervisor:
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrConfiguration, c.Strategy)
	}
	surface := c.Surface
	if surface == nil {
		surface = DefaultSurface()
	}
	return surface.validate(c.moduleTable())
}

// applyDefaults sets default values for optional fields.
func (c *Config) applyDefaults() {
	if c.Surface == nil {
		c.Surface = DefaultSurface()
	}
	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = DefaultTimeout
	}
	if c.Strategy == "" {
		c.Strategy = StrategyInterrupt
	}
}

// moduleTable merges the built-in module constructors with the embedder's
// extras. Extras shadow built-ins of the same name.
func (c *Config) moduleTable() map[string]ModuleFunc {
	table := builtinModules()
	for name, ctor := range c.ExtraModules {
		table[name] = ctor
	}
	return table
}

// Params specifies one script run.
type Params struct {
	// Code is the script source to execute.
	Code string

	// Timeout is the wall-clock deadline for this run.
	// If zero, the executor's default timeout is used.
	Timeout time.Duration

	// MaxToolCalls overrides the executor's limit for this run, capped by
	// the configured limit when one is set.
	MaxToolCalls int
}

// Executor runs untrusted scripts under the configured capability surface.
// Safe for concurrent use; every run gets a fresh namespace and run-local
// buffers, and discards all bindings when it ends.
type Executor struct {
	cfg     Config
	modules map[string]ModuleFunc
}

// New creates an Executor.
// Returns ErrConfiguration if the configuration is invalid.
func New(cfg Config) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &Executor{cfg: cfg, modules: cfg.moduleTable()}, nil
}

// Execute runs one script to completion, fault, or timeout.
//
// Capability denials, script faults, limit violations, and timeouts are
// folded into Result{Success: false} with a nil error; the returned error is
// non-nil only for defects in the harness or its configuration. No execution
// escapes this call: when it returns, the run is over (a supervisor-strategy
// worker abandoned mid-native-call can linger, but it can no longer invoke
// tools or alter the returned Result).
func (e *Executor) Execute(ctx context.Context, params Params) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := params.Timeout
	if timeout == 0 {
		timeout = e.cfg.DefaultTimeout
	}
	maxCalls := params.MaxToolCalls
	if e.cfg.MaxToolCalls > 0 && (maxCalls == 0 || maxCalls > e.cfg.MaxToolCalls) {
		maxCalls = e.cfg.MaxToolCalls
	}

	// Building: fresh VM and namespace for this run.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	vm := goja.New()
	icpt := newInterceptor(runCtx, maxCalls)
	ns := &namespace{
		ctx:     runCtx,
		vm:      vm,
		surface: e.cfg.Surface,
		tools:   e.cfg.Tools,
		icpt:    icpt,
		modules: e.modules,
	}
	if err := ns.build(); err != nil {
		return Result{}, err
	}

	// Running: arm the deadline and evaluate.
	start := time.Now()
	gov := armGovernor(runCtx, cancel, vm, timeout)
	value, evalErr := gov.evaluate(runCtx, e.cfg.Strategy, func() (goja.Value, error) {
		return vm.RunString(params.Code)
	})

	// Draining: disarm, snapshot run-local state.
	expired := gov.disarm()
	duration := time.Since(start).Milliseconds()
	stdout, records := icpt.snapshot()

	res := Result{
		Output:     stdout,
		ToolCalls:  records,
		Success:    true,
		DurationMs: duration,
	}

	if evalErr == nil {
		res.Value = exportValue(value)
	} else if err := e.fold(ctx, &res, evalErr, expired, timeout); err != nil {
		// A defect in the harness itself: never folded into a Result.
		return Result{}, err
	}

	if e.cfg.Logger != nil {
		e.cfg.Logger.Logf("executed %d tool calls in %dms (success=%v)",
			len(res.ToolCalls), duration, res.Success)
	}
	return res, nil
}

// fold classifies an evaluation error and records it on the Result, keeping
// any output captured before the fault. It returns the error itself when it
// is not one of the expected, script-attributable kinds.
func (e *Executor) fold(ctx context.Context, res *Result, evalErr error, expired bool, timeout time.Duration) error {
	res.Success = false

	if expired {
		res.Error = fmt.Sprintf("%v after %v", ErrTimeout, timeout)
		return nil
	}

	switch ee := evalErr.(type) {
	case *goja.InterruptedError:
		// Not expired, so the caller's context was cancelled.
		res.Error = fmt.Sprintf("execution cancelled: %v", context.Cause(ctx))
		return nil
	case *goja.CompilerSyntaxError:
		se := &ScriptError{Kind: "SyntaxError", Message: compilerMessage(ee), Stack: ee.Error()}
		res.Error = se.Error()
		res.ErrorOutput = se.Stack
		return nil
	case *goja.StackOverflowError:
		se := &ScriptError{Kind: "RangeError", Message: "maximum call stack size exceeded", Stack: ee.Error()}
		res.Error = se.Error()
		res.ErrorOutput = se.Stack
		return nil
	case *goja.Exception:
		if hostErr := hostError(ee); hostErr != nil {
			if errors.Is(hostErr, ErrCapabilityDenied) ||
				errors.Is(hostErr, ErrLimitExceeded) ||
				errors.Is(hostErr, context.Canceled) ||
				errors.Is(hostErr, context.DeadlineExceeded) {
				res.Error = hostErr.Error()
				return nil
			}
		}
		se := scriptError(ee)
		res.Error = se.Error()
		res.ErrorOutput = se.Stack
		return nil
	}

	if errors.Is(evalErr, errAbandoned) {
		// Only reachable when the run context was cancelled without the
		// timer having fired.
		res.Error = fmt.Sprintf("execution cancelled: %v", context.Cause(ctx))
		return nil
	}
	return evalErr
}

// hostError recovers the Go error a host binding threw into the script, if
// any.
func hostError(ex *goja.Exception) error {
	v := ex.Value()
	if v == nil {
		return nil
	}
	if err, ok := v.Export().(error); ok {
		return err
	}
	if obj, ok := v.(*goja.Object); ok {
		if inner := obj.Get("value"); inner != nil {
			if err, ok := inner.Export().(error); ok {
				return err
			}
		}
	}
	return nil
}

// scriptError builds a ScriptError from an uncaught script exception,
// preserving the complete exception and stack text.
func scriptError(ex *goja.Exception) *ScriptError {
	se := &ScriptError{Kind: "Error", Stack: ex.String()}
	v := ex.Value()
	if obj, ok := v.(*goja.Object); ok {
		if name := obj.Get("name"); name != nil && !goja.IsUndefined(name) {
			se.Kind = name.String()
		}
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			se.Message = msg.String()
		}
	}
	if se.Message == "" && v != nil {
		se.Message = v.String()
	}
	return se
}

// compilerMessage extracts the first line of a compiler error, which carries
// the position information.
func compilerMessage(err *goja.CompilerSyntaxError) string {
	msg := err.Error()
	if idx := strings.IndexByte(msg, '\n'); idx > 0 {
		return msg[:idx]
	}
	return msg
}

// exportValue converts the script's final value to a plain Go value, with
// undefined and null mapping to nil.
func exportValue(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}
