// Package sandbox executes short, untrusted, LLM-generated JavaScript under a
// restricted capability surface: an additive allow-list of host builtins and
// loadable modules, a wall-clock deadline, captured output, and a structured
// tool-call trace.
//
// The package defines three main pieces:
//
//   - [Surface]: the capability surface: which host builtins are installed,
//     which modules require() may load, and which modules are pre-bound into
//     the namespace. The default is deny-all; capabilities are added, never
//     removed from a larger default.
//
//   - [Executor]: the entry point. It builds a fresh namespace per run from a
//     tool.Set and a Surface, arms a deadline, evaluates the script, and
//     folds every expected failure into a [Result].
//
//   - [Result]: the immutable outcome: captured output, the value of the
//     script's final expression, the ordered tool-call trace, and error text
//     complete enough for an LLM to self-correct on the next attempt.
//
// # Capability model
//
// Scripts run on an embedded ECMAScript engine (goja) that has no ambient
// I/O: a fresh runtime cannot touch the filesystem, the network, or the
// process. Every host capability a script can observe (print, sleep, spawn,
// gather, require, and the loadable modules) is injected explicitly and only
// when allow-listed. ECMAScript intrinsics (Object, Math, JSON, RegExp) are
// pure computation and are treated as part of the language, not as
// capabilities.
//
// This is a best-effort capability restriction, not a hardened boundary
// against an adversary exploiting engine internals.
//
// # Tool calls
//
// Each tool from the Set appears in the namespace as a function of the same
// name. Every invocation is recorded as a [CallRecord] in completion order.
// spawn starts a tool call on its own goroutine and returns a handle; gather
// waits for several handles at once, so N concurrent calls take roughly as
// long as the slowest one.
//
// # Failure semantics
//
// Capability denials, script faults, timeouts, and limit violations are
// expected outcomes: they are folded into Result{Success: false} and Execute
// returns a nil error. A non-nil error from Execute always means a defect in
// the harness or its configuration, never a fault in the script.
package sandbox
