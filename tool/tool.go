package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Errors returned by tool construction.
var (
	ErrInvalidTool   = errors.New("tool: invalid tool")
	ErrDuplicateTool = errors.New("tool: duplicate tool name")
)

// Handler is the function signature for tool handlers. Arguments are
// positional, matching how scripts call tools; values arrive as plain Go
// values (string, bool, int64, float64, []any, map[string]any).
//
// Contract:
// - Concurrency: handlers may be invoked from multiple goroutines at once.
// - Context: handlers must honor cancellation; the sandbox cancels ctx when
//   a run times out or is cancelled.
// - Ownership: args are caller-owned snapshots; the returned value must not
//   be mutated after return.
type Handler func(ctx context.Context, args ...any) (any, error)

// Tool is an immutable descriptor pairing a unique name with a handler and
// opaque schema metadata. Build one with [New]; a Tool is owned by exactly
// one Set and referenced, never copied, by a run.
type Tool struct {
	name         string
	title        string
	description  string
	signature    string
	inputSchema  map[string]any
	outputSchema map[string]any
	annotations  *mcp.ToolAnnotations
	handler      Handler
}

// Option configures optional Tool metadata.
type Option func(*Tool)

// WithTitle sets a human-readable display title.
func WithTitle(title string) Option {
	return func(t *Tool) { t.title = title }
}

// WithSignature sets the human-readable call signature shown in prompts,
// e.g. "get_weather(location)". Defaults to "name(...)".
func WithSignature(sig string) Option {
	return func(t *Tool) { t.signature = sig }
}

// WithInputSchema attaches a JSON Schema describing the tool's parameters.
// The sandbox treats it as opaque.
func WithInputSchema(schema map[string]any) Option {
	return func(t *Tool) { t.inputSchema = schema }
}

// WithOutputSchema attaches a JSON Schema describing the tool's return
// shape. Used by the toolkit for chaining hints.
func WithOutputSchema(schema map[string]any) Option {
	return func(t *Tool) { t.outputSchema = schema }
}

// WithAnnotations attaches MCP tool annotations.
func WithAnnotations(a *mcp.ToolAnnotations) Option {
	return func(t *Tool) { t.annotations = a }
}

// New creates a Tool. Name and handler are required.
func New(name, description string, handler Handler, opts ...Option) (*Tool, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTool)
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: handler is required for %q", ErrInvalidTool, name)
	}
	t := &Tool{
		name:        name,
		description: description,
		handler:     handler,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.signature == "" {
		t.signature = name + "(...)"
	}
	return t, nil
}

// Name returns the unique tool name.
func (t *Tool) Name() string { return t.name }

// Title returns the display title, falling back to the name.
func (t *Tool) Title() string {
	if t.title != "" {
		return t.title
	}
	return t.name
}

// Description returns the human-readable description.
func (t *Tool) Description() string { return t.description }

// Signature returns the human-readable call signature.
func (t *Tool) Signature() string { return t.signature }

// InputSchema returns the parameter schema, or nil.
func (t *Tool) InputSchema() map[string]any { return t.inputSchema }

// OutputSchema returns the return-shape schema, or nil.
func (t *Tool) OutputSchema() map[string]any { return t.outputSchema }

// Handler returns the underlying handler function.
func (t *Tool) Handler() Handler { return t.handler }

// MCP projects the descriptor into the MCP tool shape.
func (t *Tool) MCP() mcp.Tool {
	return mcp.Tool{
		Name:         t.name,
		Title:        t.title,
		Description:  t.description,
		InputSchema:  t.inputSchema,
		OutputSchema: t.outputSchema,
		Annotations:  t.annotations,
	}
}

// String implements fmt.Stringer.
func (t *Tool) String() string {
	return "Tool(" + t.name + ")"
}
