package toolexport

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/harun/toolgate/pkg/toolexecutor"
	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTools(t *testing.T, caller toolexecutor.ExecutionContext) Tools {
	t.Helper()

	engine := toolexecutor.New(toolexecutor.DefaultOptions())
	require.NoError(t, engine.RegisterTool(toolexecutor.ToolDefinition{
		Name:        "greet",
		Description: "Greets someone",
		Parameters: []toolexecutor.ToolParameter{
			{Name: "name", Type: "string", Description: "Who to greet", Required: true},
			{Name: "excited", Type: "boolean", Description: "Add an exclamation mark"},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			greeting := "hello " + params["name"].(string)
			if excited, _ := params["excited"].(bool); excited {
				greeting += "!"
			}
			return map[string]string{"greeting": greeting}, nil
		},
	}))
	require.NoError(t, engine.RegisterTool(toolexecutor.ToolDefinition{
		Name:          "audit",
		Description:   "Reads the audit log",
		SecurityLevel: toolexecutor.LevelEnterprise,
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return []string{}, nil
		},
	}))
	require.NoError(t, engine.RegisterTool(toolexecutor.ToolDefinition{
		Name:        "fail",
		Description: "Always fails",
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return nil, errors.New("disk on fire")
		},
	}))

	return Tools(engine.ExportFor(caller))
}

var basic = toolexecutor.ExecutionContext{UserID: "alice", SecurityLevel: toolexecutor.LevelBasic}

func TestAnthropic(t *testing.T) {
	tools := newTestTools(t, basic).Anthropic()
	require.Len(t, tools, 2, "enterprise tool is hidden from basic callers")

	assert.Equal(t, "fail", tools[0].OfTool.Name)
	greet := tools[1].OfTool
	assert.Equal(t, "greet", greet.Name)
	assert.Equal(t, []string{"name"}, greet.InputSchema.Required)

	properties, ok := greet.InputSchema.Properties.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, properties, "excited")
}

func TestOpenAI(t *testing.T) {
	admin := toolexecutor.ExecutionContext{UserID: "root", Role: toolexecutor.RoleAdmin, SecurityLevel: toolexecutor.LevelBasic}
	tools := newTestTools(t, admin).OpenAI()
	require.Len(t, tools, 3)

	names := []string{tools[0].Function.Name, tools[1].Function.Name, tools[2].Function.Name}
	assert.Equal(t, []string{"audit", "fail", "greet"}, names)
	assert.Equal(t, "object", tools[2].Function.Parameters["type"])
}

func TestDispatch(t *testing.T) {
	tools := newTestTools(t, basic)
	ctx := context.Background()

	out, err := tools.Dispatch(ctx, "greet", []byte(`{"name":"bob","excited":true}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"greeting":"hello bob!"}`, out)

	_, err = tools.Dispatch(ctx, "audit", []byte(`{}`))
	assert.ErrorContains(t, err, "tool not available")

	_, err = tools.Dispatch(ctx, "greet", []byte(`{"name":`))
	assert.ErrorContains(t, err, "invalid arguments")

	_, err = tools.Dispatch(ctx, "greet", []byte(`{}`))
	assert.ErrorIs(t, err, toolexecutor.ErrValidation)

	_, err = tools.Dispatch(ctx, "fail", nil)
	assert.ErrorIs(t, err, toolexecutor.ErrHandler)
	assert.ErrorContains(t, err, "disk on fire")
}

func TestAnthropicToolResult(t *testing.T) {
	tools := newTestTools(t, basic)

	decode := func(t *testing.T, v interface{}) map[string]interface{} {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &out))
		return out
	}

	ok := decode(t, tools.AnthropicToolResult(context.Background(), "toolu_1", "greet", json.RawMessage(`{"name":"eve"}`)))
	assert.Equal(t, "tool_result", ok["type"])
	assert.Equal(t, "toolu_1", ok["tool_use_id"])
	assert.Equal(t, false, ok["is_error"])

	failed := decode(t, tools.AnthropicToolResult(context.Background(), "toolu_2", "fail", nil))
	assert.Equal(t, true, failed["is_error"])
}

func TestOpenAIToolMessage(t *testing.T) {
	tools := newTestTools(t, basic)

	msg := tools.OpenAIToolMessage(context.Background(), openai.ChatCompletionMessageToolCall{
		ID: "call_1",
		Function: openai.ChatCompletionMessageToolCallFunction{
			Name:      "greet",
			Arguments: `{"name":"zoe"}`,
		},
	})

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, "tool", out["role"])
	assert.Equal(t, "call_1", out["tool_call_id"])
	assert.JSONEq(t, `{"greeting":"hello zoe"}`, out["content"].(string))
}
