package toolexecutor

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// TypedHandler is a tool body working on decoded arguments
type TypedHandler[Args any, Result any] func(ctx context.Context, args Args) (Result, error)

// NewTypedTool builds a ToolDefinition whose handler decodes the validated
// arguments into Args before calling fn. Args fields are matched by their
// json tags. The definition's Handler field is replaced.
func NewTypedTool[Args any, Result any](def ToolDefinition, fn TypedHandler[Args, Result]) ToolDefinition {
	if fn == nil {
		def.Handler = nil
		return def
	}

	toolName := def.Name
	def.Handler = func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		var args Args
		if err := DecodeArgs(params, &args); err != nil {
			return nil, fmt.Errorf("failed to decode arguments for %s: %w", toolName, err)
		}
		return fn(ctx, args)
	}

	return def
}

// DecodeArgs decodes validated tool arguments into a struct using json tags
func DecodeArgs(params map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: false,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(params)
}
