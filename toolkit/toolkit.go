package toolkit

import (
	"context"
	"fmt"

	"github.com/abshake96/ez-ptc/sandbox"
	"github.com/abshake96/ez-ptc/tool"
)

// Toolkit groups a tool set with a sandbox executor and renders the prompt
// surfaces. Build one with New; it is immutable and safe for concurrent use.
type Toolkit struct {
	set           *tool.Set
	exec          *sandbox.Executor
	surface       *sandbox.Surface
	preamble      string
	postamble     string
	chainingHints bool
}

// Option configures a Toolkit.
type Option func(*options)

type options struct {
	preamble      string
	postamble     string
	chainingHints bool
	sandbox       sandbox.Config
}

// WithPreamble overrides the default prompt preamble.
func WithPreamble(text string) Option {
	return func(o *options) { o.preamble = text }
}

// WithPostamble overrides the default prompt postamble.
func WithPostamble(text string) Option {
	return func(o *options) { o.postamble = text }
}

// WithChainingHints adds each tool's return-shape keys to the prompt so the
// model can chain results without guessing key names.
func WithChainingHints() Option {
	return func(o *options) { o.chainingHints = true }
}

// WithSandbox sets the sandbox configuration. Config.Tools is overwritten
// with the toolkit's set.
func WithSandbox(cfg sandbox.Config) Option {
	return func(o *options) { o.sandbox = cfg }
}

// New creates a Toolkit around the given tool set.
func New(set *tool.Set, opts ...Option) (*Toolkit, error) {
	if set == nil {
		return nil, fmt.Errorf("%w: tool set is required", sandbox.ErrConfiguration)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.sandbox.Tools = set
	if o.sandbox.Surface == nil {
		o.sandbox.Surface = sandbox.DefaultSurface()
	}
	exec, err := sandbox.New(o.sandbox)
	if err != nil {
		return nil, err
	}
	return &Toolkit{
		set:           set,
		exec:          exec,
		surface:       o.sandbox.Surface,
		preamble:      o.preamble,
		postamble:     o.postamble,
		chainingHints: o.chainingHints,
	}, nil
}

// Set returns the underlying tool set.
func (k *Toolkit) Set() *tool.Set { return k.set }

// Execute runs a script against the toolkit's sandbox.
func (k *Toolkit) Execute(ctx context.Context, code string) (sandbox.Result, error) {
	return k.exec.Execute(ctx, sandbox.Params{Code: code})
}

// Handler returns an adapter any framework can register as a code-execution
// tool: it accepts a script and returns the run's rendered result text.
// Expected failures (script faults, denials, timeouts) are reported in the
// returned text, not as an error.
func (k *Toolkit) Handler() func(ctx context.Context, code string) (string, error) {
	return func(ctx context.Context, code string) (string, error) {
		res, err := k.Execute(ctx, code)
		if err != nil {
			return "", err
		}
		return res.Text(), nil
	}
}
