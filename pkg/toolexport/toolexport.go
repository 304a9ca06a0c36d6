// Package toolexport adapts an engine's exported tools to the tool calling
// formats of the Anthropic and OpenAI SDKs and dispatches model-issued calls
// back through the engine.
package toolexport

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/harun/toolgate/pkg/toolexecutor"
	"github.com/openai/openai-go"
)

// Tools is the set a caller may use, keyed by tool name
type Tools map[string]toolexecutor.ExportedTool

func (t Tools) sorted() []toolexecutor.ExportedTool {
	list := make([]toolexecutor.ExportedTool, 0, len(t))
	for _, tool := range t {
		list = append(list, tool)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Anthropic converts the tools to Messages API tool params, ordered by name
func (t Tools) Anthropic() []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(t))
	for _, tool := range t.sorted() {
		toolParam := anthropic.ToolParam{
			Name:        tool.Name,
			Description: anthropic.String(tool.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: tool.Parameters["properties"],
			},
		}
		if required, ok := tool.Parameters["required"].([]interface{}); ok {
			names := make([]string, 0, len(required))
			for _, r := range required {
				if name, ok := r.(string); ok {
					names = append(names, name)
				}
			}
			toolParam.InputSchema.Required = names
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return tools
}

// OpenAI converts the tools to Chat Completions function tools, ordered by name
func (t Tools) OpenAI() []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, 0, len(t))
	for _, tool := range t.sorted() {
		tools = append(tools, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  openai.FunctionParameters(tool.Parameters),
			},
		})
	}
	return tools
}

// Dispatch executes a model-issued call given its raw JSON arguments and
// returns the JSON-encoded result. Tools outside the set are rejected
// without reaching the engine.
func (t Tools) Dispatch(ctx context.Context, name string, rawArgs []byte) (string, error) {
	tool, ok := t[name]
	if !ok {
		return "", fmt.Errorf("tool not available: %s", name)
	}

	args := map[string]interface{}{}
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w", name, err)
		}
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		return "", err
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode result of %s: %w", name, err)
	}
	return string(encoded), nil
}

// AnthropicToolResult dispatches a tool_use block and wraps the outcome as
// the tool_result block to send back. Failures are reported to the model
// with is_error set rather than returned.
func (t Tools) AnthropicToolResult(ctx context.Context, toolUseID, name string, input json.RawMessage) anthropic.ContentBlockParamUnion {
	output, err := t.Dispatch(ctx, name, input)
	if err != nil {
		return anthropic.NewToolResultBlock(toolUseID, err.Error(), true)
	}
	return anthropic.NewToolResultBlock(toolUseID, output, false)
}

// OpenAIToolMessage dispatches a function tool call and wraps the outcome as
// the tool message to send back
func (t Tools) OpenAIToolMessage(ctx context.Context, call openai.ChatCompletionMessageToolCall) openai.ChatCompletionMessageParamUnion {
	output, err := t.Dispatch(ctx, call.Function.Name, []byte(call.Function.Arguments))
	if err != nil {
		output = fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return openai.ToolMessage(output, call.ID)
}
