// Package toolkit groups a tool set with a sandbox configuration and exposes
// the two integration modes an embedding LLM application needs.
//
// Prompt mode (framework-free): render the instruction block with
// [Toolkit.Prompt], inject it into the system prompt, let the model write a
// script, pull it out of the response with [ExtractCode], and run it
// with [Toolkit.Execute].
//
// Tool mode (native framework integration): register the kit as a single
// meta-tool. [Toolkit.MCPTool] returns the MCP descriptor and
// [Toolkit.Handler] the matching handler; the model passes a script in the
// tool's "code" argument and receives the run's rendered result text.
package toolkit
