package toolkit

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const defaultPreamble = "You have access to the following tools as JavaScript functions. " +
	"They are already in scope - do NOT import or require them."

// Prompt renders the instruction block for LLM system prompts: the preamble,
// the tool listing with signatures and descriptions, and the postamble
// describing the execution environment.
func (k *Toolkit) Prompt() string {
	var b strings.Builder

	if k.preamble != "" {
		b.WriteString(k.preamble)
	} else {
		b.WriteString(defaultPreamble)
	}
	b.WriteString("\n\nAvailable tools:\n\n")

	for _, t := range k.set.All() {
		fmt.Fprintf(&b, "function %s\n", t.Signature())
		if desc := t.Description(); desc != "" {
			fmt.Fprintf(&b, "    // %s\n", desc)
		}
		if hint := k.returnHint(t.OutputSchema()); hint != "" {
			fmt.Fprintf(&b, "    // %s\n", hint)
		}
		b.WriteByte('\n')
	}

	if k.postamble != "" {
		b.WriteString(k.postamble)
	} else {
		b.WriteString(k.defaultPostamble())
	}
	return b.String()
}

// ToolListing renders one compact line per tool, shared by the prompt and
// the meta-tool description.
func (k *Toolkit) ToolListing() string {
	var lines []string
	for _, t := range k.set.All() {
		desc := t.Description()
		if desc == "" {
			desc = "No description"
		}
		line := fmt.Sprintf("- %s: %s", t.Signature(), desc)
		if hint := k.returnHint(t.OutputSchema()); hint != "" {
			line += " | " + hint
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// returnHint renders the return-shape keys of an output schema when chaining
// hints are enabled.
func (k *Toolkit) returnHint(schema map[string]any) string {
	if !k.chainingHints || schema == nil {
		return ""
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok || len(props) == 0 {
		return ""
	}
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return "returns keys: " + strings.Join(keys, ", ")
}

func (k *Toolkit) defaultPostamble() string {
	var lines []string
	lines = append(lines,
		"IMPORTANT: Combine ALL operations into a single code block.",
		"",
		"Write JavaScript in a ```js code block.",
		"")
	if k.chainingHints {
		lines = append(lines,
			"Chain results: store tool outputs in variables, pass them to subsequent calls or conditions.")
	} else {
		lines = append(lines,
			"Call all the tools you need and print() all results in a single code block.",
			"CAUTION: Do NOT assume the structure or key names of tool return values - print() raw results directly instead of accessing specific keys.")
	}
	lines = append(lines,
		"For parallel execution, spawn tool calls and gather the handles:",
		`    const results = gather(spawn("tool1", arg), spawn("tool2", arg));`,
		"")
	if len(k.surface.Prebound) > 0 {
		lines = append(lines, fmt.Sprintf(
			"Environment: %s are pre-bound. Other permitted modules are loaded with require(name): %s.",
			strings.Join(k.surface.Prebound, ", "),
			strings.Join(sortedCopy(k.surface.Modules), ", ")))
	} else if len(k.surface.Modules) > 0 {
		lines = append(lines, fmt.Sprintf(
			"Environment: permitted modules are loaded with require(name): %s.",
			strings.Join(sortedCopy(k.surface.Modules), ", ")))
	}
	lines = append(lines,
		"Restrictions: no file I/O, networking, or shell access; anything outside the permitted modules is denied.",
		"",
		"ALWAYS print() the final result you want to return.")
	return strings.Join(lines, "\n")
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

var (
	jsFencePattern      = regexp.MustCompile("(?s)```(?:js|javascript)\\s*\n(.*?)```")
	genericFencePattern = regexp.MustCompile("(?s)```\\s*\n(.*?)```")
)

// ExtractCode pulls the first fenced code block out of a markdown-formatted
// LLM response, preferring ```js / ```javascript fences over generic ones.
// Returns "" when the response contains no code block.
func ExtractCode(response string) string {
	if m := jsFencePattern.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := genericFencePattern.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
