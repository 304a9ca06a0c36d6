package toolexecutor

import "context"

// ExportedTool is a catalog entry in the calling convention agent SDKs expect:
// a description, a JSON Schema for the arguments and an execute function.
type ExportedTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`

	Execute func(ctx context.Context, args map[string]interface{}) (interface{}, error) `json:"-"`
}

// ExportFor exports every tool the caller may run, see ToolsFor.
// Execute goes through the full ExecuteTool pipeline as the caller and
// unwraps the result: the value on success, a *ToolError otherwise.
func (e *Engine) ExportFor(caller ExecutionContext) map[string]ExportedTool {
	exported := make(map[string]ExportedTool)

	for _, def := range e.ToolsFor(caller) {
		schema, ok := e.catalog.Schema(def.Name)
		if !ok {
			continue
		}
		name := def.Name
		exported[name] = ExportedTool{
			Name:        name,
			Description: def.Description,
			Parameters:  schema.Document(),
			Execute: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				result := e.ExecuteTool(ctx, name, args, caller)
				if !result.Success {
					return nil, result.Err()
				}
				return result.Result, nil
			},
		}
	}

	return exported
}
