package toolexecutor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrFloat(f float64) *float64 { return &f }

func ptrInt(i int) *int { return &i }

func TestJSONSchemaValidator_Bounds(t *testing.T) {
	schema, err := NewJSONSchemaValidator().Compile([]ToolParameter{
		{Name: "mode", Type: "string", Description: "mode", Enum: []interface{}{"fast", "slow"}, Required: true},
		{Name: "count", Type: "integer", Description: "count", Minimum: ptrFloat(1), Maximum: ptrFloat(10)},
		{Name: "label", Type: "string", Description: "label", MinLength: ptrInt(2), MaxLength: ptrInt(5), Pattern: "^[a-z]+$"},
		{Name: "tags", Type: "array", Description: "tags", Items: &ToolParameter{Type: "string"}},
		{Name: "target", Type: "object", Description: "target", Properties: []ToolParameter{
			{Name: "host", Type: "string", Description: "host", Required: true},
			{Name: "port", Type: "integer", Description: "port"},
		}},
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		params map[string]interface{}
		field  string
	}{
		{"valid", map[string]interface{}{"mode": "fast", "count": 3, "label": "abc", "tags": []interface{}{"x"}, "target": map[string]interface{}{"host": "h", "port": 80}}, ""},
		{"enum violation", map[string]interface{}{"mode": "medium"}, "mode"},
		{"below minimum", map[string]interface{}{"mode": "fast", "count": 0}, "count"},
		{"above maximum", map[string]interface{}{"mode": "fast", "count": 11}, "count"},
		{"too short", map[string]interface{}{"mode": "fast", "label": "a"}, "label"},
		{"pattern mismatch", map[string]interface{}{"mode": "fast", "label": "AB"}, "label"},
		{"bad array item", map[string]interface{}{"mode": "fast", "tags": []interface{}{1}}, "tags"},
		{"nested required", map[string]interface{}{"mode": "fast", "target": map[string]interface{}{"port": 1}}, "target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validated, fields := schema.Validate(tt.params)
			if tt.field == "" {
				assert.Empty(t, fields)
				assert.Equal(t, tt.params, validated)
				return
			}
			require.NotEmpty(t, fields)
			assert.Nil(t, validated)
			assert.Contains(t, fields[0].Field, tt.field)
			assert.NotEmpty(t, fields[0].Description)
		})
	}
}

func TestJSONSchemaValidator_NilParams(t *testing.T) {
	schema, err := NewJSONSchemaValidator().Compile(nil)
	require.NoError(t, err)

	validated, fields := schema.Validate(nil)
	assert.Empty(t, fields)
	assert.Equal(t, map[string]interface{}{}, validated)
}

func TestJSONSchemaValidator_CompileErrors(t *testing.T) {
	v := NewJSONSchemaValidator()

	_, err := v.Compile([]ToolParameter{{Name: "a", Type: "string", Description: "a"}, {Name: "a", Type: "string", Description: "b"}})
	assert.ErrorContains(t, err, "duplicate parameter")

	_, err = v.Compile([]ToolParameter{{Name: "list", Type: "array", Description: "list", Items: &ToolParameter{Type: "tuple"}}})
	assert.ErrorContains(t, err, "invalid parameter type")
}

func TestJSONSchemaValidator_DefaultsAreNotShared(t *testing.T) {
	schema, err := NewJSONSchemaValidator().Compile([]ToolParameter{
		{Name: "tags", Type: "array", Description: "tags", Default: []interface{}{"a"}},
		{Name: "opts", Type: "object", Description: "opts", Default: map[string]interface{}{"verbose": false}},
	})
	require.NoError(t, err)

	first, fields := schema.Validate(nil)
	require.Empty(t, fields)
	first["tags"] = append(first["tags"].([]interface{}), "b")
	first["tags"].([]interface{})[0] = "mutated"
	first["opts"].(map[string]interface{})["verbose"] = true

	second, fields := schema.Validate(nil)
	require.Empty(t, fields)
	assert.Equal(t, []interface{}{"a"}, second["tags"])
	assert.Equal(t, map[string]interface{}{"verbose": false}, second["opts"])

	doc := schema.Document()
	doc["properties"].(map[string]interface{})["tags"] = nil
	assert.NotNil(t, schema.Document()["properties"].(map[string]interface{})["tags"])
}
