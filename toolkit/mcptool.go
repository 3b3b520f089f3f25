package toolkit

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MetaToolName is the name of the meta-tool the kit registers as.
const MetaToolName = "run_script"

// MCPTool returns the MCP descriptor for the toolkit's meta-tool: a single
// tool taking a "code" string argument. Pair it with [Toolkit.Handler].
func (k *Toolkit) MCPTool() mcp.Tool {
	usage := "Call all the tools you need and print() all results in a single code block.\n" +
		"CAUTION: Do NOT assume the structure or key names of tool return values - print() raw results directly."
	if k.chainingHints {
		usage = "Store results in variables to chain between function calls. print() the final result."
	}

	description := fmt.Sprintf(
		"Execute JavaScript via the `code` argument. "+
			"Available functions inside the code (already in scope - do NOT require them):\n%s\n\n"+
			"IMPORTANT: Combine ALL operations into a SINGLE code block - do NOT make multiple separate calls.\n%s",
		k.ToolListing(), usage)

	return mcp.Tool{
		Name:        MetaToolName,
		Description: description,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "JavaScript code to execute. The listed functions are available as globals.",
				},
			},
			"required": []string{"code"},
		},
	}
}
