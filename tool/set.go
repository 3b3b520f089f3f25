package tool

import "fmt"

// Set is an ordered, name-unique, immutable collection of Tools. Build one
// with [NewSet]; it is safe for concurrent read-only use across runs.
type Set struct {
	tools  []*Tool
	byName map[string]*Tool
}

// NewSet creates a Set from the given tools. The registration order is
// preserved. Duplicate names and nil tools are construction errors.
func NewSet(tools ...*Tool) (*Set, error) {
	s := &Set{
		tools:  make([]*Tool, 0, len(tools)),
		byName: make(map[string]*Tool, len(tools)),
	}
	for _, t := range tools {
		if t == nil {
			return nil, fmt.Errorf("%w: nil tool", ErrInvalidTool)
		}
		if _, exists := s.byName[t.name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTool, t.name)
		}
		s.tools = append(s.tools, t)
		s.byName[t.name] = t
	}
	return s, nil
}

// MustSet is like NewSet but panics on error. Intended for fixed setups
// wired at program start.
func MustSet(tools ...*Tool) *Set {
	s, err := NewSet(tools...)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup returns the tool with the given name.
func (s *Set) Lookup(name string) (*Tool, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Names returns tool names in registration order.
func (s *Set) Names() []string {
	out := make([]string, len(s.tools))
	for i, t := range s.tools {
		out[i] = t.name
	}
	return out
}

// All returns the tools in registration order. The returned slice is a copy;
// the Tools themselves are shared and immutable.
func (s *Set) All() []*Tool {
	return append([]*Tool(nil), s.tools...)
}

// Len returns the number of tools in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tools)
}
