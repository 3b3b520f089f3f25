// Package tool defines the Tool descriptor and the immutable Set used by the
// sandbox to expose host functions to scripts.
//
// A [Tool] pairs a unique name with a handler function and opaque schema
// metadata. The sandbox only interprets the name and the handler; the
// parameter and return schemas are carried through for prompt rendering and
// provider integration (see the toolkit package).
//
// A [Set] is built once at setup time with [NewSet], is read-only afterwards,
// and may be shared by any number of concurrent runs.
//
// # Defining a tool
//
//	add, err := tool.New("add", "Adds two numbers", func(ctx context.Context, args ...any) (any, error) {
//	    a, _ := args[0].(int64)
//	    b, _ := args[1].(int64)
//	    return a + b, nil
//	}, tool.WithSignature("add(a, b)"))
//
// # MCP alignment
//
// Tool descriptors project into the MCP tool shape via [Tool.MCP], so a Set
// can be surfaced through any MCP-compatible host without re-declaring
// schemas.
package tool
