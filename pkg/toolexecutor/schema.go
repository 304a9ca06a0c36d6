package toolexecutor

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Validator compiles a tool's parameter contract into a Schema.
// The engine treats both as opaque: raw input in, validated args or field errors out.
type Validator interface {
	Compile(params []ToolParameter) (Schema, error)
}

// Schema validates raw arguments for one tool
type Schema interface {
	// Validate returns the validated arguments with defaults applied, or the
	// field-level violations.
	Validate(params map[string]interface{}) (map[string]interface{}, []FieldError)
	// Document returns the JSON Schema describing the arguments.
	Document() map[string]interface{}
}

var validParameterTypes = map[string]bool{
	"string": true, "number": true, "boolean": true,
	"object": true, "array": true, "integer": true,
}

// JSONSchemaValidator compiles parameter contracts to JSON Schema and validates
// with gojsonschema.
type JSONSchemaValidator struct{}

// NewJSONSchemaValidator creates the default validator
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{}
}

// Compile implements Validator
func (v *JSONSchemaValidator) Compile(params []ToolParameter) (Schema, error) {
	doc, err := objectSchema(params)
	if err != nil {
		return nil, err
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	defaults := make(map[string]interface{})
	for _, param := range params {
		if param.Default != nil {
			defaults[param.Name] = param.Default
		}
	}

	return &jsonSchema{schema: schema, doc: doc, defaults: defaults}, nil
}

type jsonSchema struct {
	schema   *gojsonschema.Schema
	doc      map[string]interface{}
	defaults map[string]interface{}
}

func (s *jsonSchema) Validate(params map[string]interface{}) (map[string]interface{}, []FieldError) {
	if params == nil {
		params = map[string]interface{}{}
	}

	result, err := s.schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return nil, []FieldError{{Field: "(root)", Description: err.Error()}}
	}

	if !result.Valid() {
		fields := make([]FieldError, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			fields = append(fields, FieldError{
				Field:       re.Field(),
				Description: re.Description(),
			})
		}
		return nil, fields
	}

	validated := make(map[string]interface{}, len(params)+len(s.defaults))
	for name, value := range s.defaults {
		validated[name] = deepCopyValue(value)
	}
	for name, value := range params {
		validated[name] = value
	}

	return validated, nil
}

// Document returns a copy; callers may mutate it freely
func (s *jsonSchema) Document() map[string]interface{} {
	return deepCopyValue(s.doc).(map[string]interface{})
}

// deepCopyValue copies the maps and slices JSON-shaped values are built from
func deepCopyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = deepCopyValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case []float64:
		return append([]float64(nil), val...)
	case []int:
		return append([]int(nil), val...)
	default:
		return v
	}
}

// objectSchema generates a JSON Schema object from tool parameters
func objectSchema(params []ToolParameter) (map[string]interface{}, error) {
	properties := make(map[string]interface{})
	required := []interface{}{}

	for _, param := range params {
		paramSchema, err := parameterSchema(param)
		if err != nil {
			return nil, err
		}
		if _, dup := properties[param.Name]; dup {
			return nil, fmt.Errorf("duplicate parameter %s", param.Name)
		}
		properties[param.Name] = paramSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	schemaMap := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
	}
	if len(required) > 0 {
		schemaMap["required"] = required
	}

	return schemaMap, nil
}

func parameterSchema(param ToolParameter) (map[string]interface{}, error) {
	if param.Name == "" {
		return nil, fmt.Errorf("parameter name cannot be empty")
	}
	if param.Type == "" {
		return nil, fmt.Errorf("parameter type cannot be empty for %s", param.Name)
	}
	if param.Description == "" {
		return nil, fmt.Errorf("parameter description cannot be empty for %s", param.Name)
	}
	if !validParameterTypes[param.Type] {
		return nil, fmt.Errorf("invalid parameter type %s for %s", param.Type, param.Name)
	}

	paramSchema := map[string]interface{}{
		"type":        param.Type,
		"description": param.Description,
	}

	if param.Default != nil {
		paramSchema["default"] = param.Default
	}
	if len(param.Enum) > 0 {
		paramSchema["enum"] = param.Enum
	}
	if param.Minimum != nil {
		paramSchema["minimum"] = *param.Minimum
	}
	if param.Maximum != nil {
		paramSchema["maximum"] = *param.Maximum
	}
	if param.MinLength != nil {
		paramSchema["minLength"] = *param.MinLength
	}
	if param.MaxLength != nil {
		paramSchema["maxLength"] = *param.MaxLength
	}
	if param.Pattern != "" {
		paramSchema["pattern"] = param.Pattern
	}

	switch param.Type {
	case "array":
		if param.Items != nil {
			items := *param.Items
			if items.Name == "" {
				items.Name = param.Name + "[]"
			}
			if items.Description == "" {
				items.Description = param.Description
			}
			itemSchema, err := parameterSchema(items)
			if err != nil {
				return nil, err
			}
			paramSchema["items"] = itemSchema
		}
	case "object":
		if len(param.Properties) > 0 {
			nested, err := objectSchema(param.Properties)
			if err != nil {
				return nil, fmt.Errorf("invalid properties for %s: %w", param.Name, err)
			}
			paramSchema["properties"] = nested["properties"]
			paramSchema["additionalProperties"] = false
			if req, ok := nested["required"]; ok {
				paramSchema["required"] = req
			}
		}
	}

	return paramSchema, nil
}
