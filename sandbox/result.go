package sandbox

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// CallRecord captures one tool invocation made during a run: the tool name,
// the arguments, and the outcome. Records are appended in completion order,
// which under concurrent fan-out may differ from launch order.
type CallRecord struct {
	// Name is the tool name.
	Name string `json:"name"`

	// Args contains the positional arguments passed to the tool.
	Args []any `json:"args,omitempty"`

	// Kwargs is set instead of Args when the call's sole argument was an
	// object literal, mirroring keyword-style invocation.
	Kwargs map[string]any `json:"kwargs,omitempty"`

	// Result is the tool's return value on success.
	Result any `json:"result,omitempty"`

	// Error is the tool's error message on failure.
	Error string `json:"error,omitempty"`

	// DurationMs is the tool execution time in milliseconds.
	DurationMs int64 `json:"durationMs"`
}

// Result is the immutable outcome of one script run. Ownership transfers to
// the caller on return.
//
// Invariants: Success is false if and only if Error is non-empty. A timeout
// preserves any Output captured before expiry. ToolCalls reflects true
// completion order.
type Result struct {
	// Output is the captured print output.
	Output string `json:"output,omitempty"`

	// ErrorOutput is the captured fault/trace text, complete and literal,
	// so a calling LLM can self-correct on a subsequent attempt.
	ErrorOutput string `json:"errorOutput,omitempty"`

	// Value is the value of the script's final expression, if any.
	Value any `json:"value,omitempty"`

	// ToolCalls records all tool invocations in completion order.
	ToolCalls []CallRecord `json:"toolCalls,omitempty"`

	// Success reports whether execution completed without error.
	Success bool `json:"success"`

	// Error is the human-readable error summary when Success is false.
	Error string `json:"error,omitempty"`

	// DurationMs is the total run time in milliseconds.
	DurationMs int64 `json:"durationMs"`
}

// Text renders the result for returning to a calling LLM, optimized for
// token efficiency.
//
// On success: Output if non-empty, else a textual form of Value, else "".
// On failure: ErrorOutput if non-empty, else the error summary.
func (r Result) Text() string {
	if r.Success {
		if r.Output != "" {
			return r.Output
		}
		if r.Value != nil {
			return renderValue(r.Value)
		}
		return ""
	}
	if r.ErrorOutput != "" {
		return r.ErrorOutput
	}
	if r.Error != "" {
		return r.Error
	}
	return "unknown error"
}

// renderValue formats a value compactly: strings as-is, everything else as
// JSON, falling back to fmt for non-serializable values.
func renderValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", v)
}

// deepCopyArgs performs a deep copy of a keyword-args map, normalizing typed
// maps/slices into plain shapes (map[string]any, []any).
func deepCopyArgs(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	result := make(map[string]any, len(args))
	for k, v := range args {
		result[k] = deepCopyValue(v)
	}
	return result
}

// deepCopyValue recursively copies a value into plain JSON-native shapes.
func deepCopyValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case map[string]any:
		return deepCopyArgs(val)
	case []any:
		return deepCopySlice(val)
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = v
		}
		return out
	case map[string]int:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = v
		}
		return out
	case map[string]float64:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = v
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = v
		}
		return out
	case []int64:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = v
		}
		return out
	case []float64:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = v
		}
		return out
	case string, bool, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return val
	case json.Number:
		return val
	default:
		rv := reflect.ValueOf(val)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return nil
			}
			return deepCopyValue(rv.Elem().Interface())
		}
		if out, ok := deepCopyViaJSON(val); ok {
			return out
		}
		return val
	}
}

func deepCopySlice(s []any) []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = deepCopyValue(v)
	}
	return out
}

func deepCopyViaJSON(v any) (any, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}
