// Package toolexecutor registers tools and executes them for agents and API
// callers behind access control, rate limiting, schema validation and a
// per-tool timeout.
//
// Invariants:
//   - Tool names are unique and definitions are immutable once registered.
//   - Arguments are schema-validated before any handler runs.
//   - A caller below a tool's security level never reaches its handler unless
//     the caller's role is admin.
//   - ExecuteTool never panics and never returns a Go error; failures are
//     reported through ExecutionResult.
//
// Usage:
//
//	engine := toolexecutor.New(toolexecutor.DefaultOptions())
//	_ = engine.RegisterTool(toolexecutor.ToolDefinition{
//		Name:          "echo",
//		Description:   "Echo input",
//		Parameters:    []toolexecutor.ToolParameter{{Name: "text", Type: "string", Description: "text", Required: true}},
//		SecurityLevel: toolexecutor.LevelBasic,
//		RateLimit:     10,
//		Timeout:       time.Second,
//		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
//			return params["text"], nil
//		},
//	})
//	result := engine.ExecuteTool(ctx, "echo", map[string]interface{}{"text": "hi"}, toolexecutor.ExecutionContext{
//		UserID:        "u1",
//		SecurityLevel: toolexecutor.LevelBasic,
//		Role:          "user",
//	})
package toolexecutor
