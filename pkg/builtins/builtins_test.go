package builtins

import (
	"context"
	"testing"
	"time"

	"github.com/harun/toolgate/pkg/toolexecutor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *toolexecutor.Engine {
	t.Helper()
	engine := toolexecutor.New(toolexecutor.DefaultOptions())
	require.NoError(t, RegisterAll(engine))
	return engine
}

func caller(level toolexecutor.SecurityLevel) toolexecutor.ExecutionContext {
	return toolexecutor.ExecutionContext{UserID: "tester", SecurityLevel: level}
}

func TestRegisterAll(t *testing.T) {
	engine := newEngine(t)

	names := engine.Catalog().Names()
	assert.Equal(t, []string{"current_time", "echo", "sleep", "sum"}, names)

	err := RegisterAll(engine)
	assert.ErrorContains(t, err, "failed to register tool echo")

	assert.Error(t, RegisterAll(nil))
}

func TestEcho(t *testing.T) {
	result := newEngine(t).ExecuteTool(context.Background(), "echo",
		map[string]interface{}{"message": "hi"}, caller(toolexecutor.LevelBasic))

	require.True(t, result.Success, result.Error)
	assert.Equal(t, map[string]interface{}{"message": "hi"}, result.Result)
}

func TestCurrentTime(t *testing.T) {
	engine := newEngine(t)

	tests := []struct {
		name     string
		params   map[string]interface{}
		timezone string
		wantErr  bool
	}{
		{"default utc", nil, "UTC", false},
		{"named zone", map[string]interface{}{"timezone": "Asia/Tokyo"}, "Asia/Tokyo", false},
		{"unknown zone", map[string]interface{}{"timezone": "Mars/Olympus"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.ExecuteTool(context.Background(), "current_time", tt.params, caller(toolexecutor.LevelBasic))
			if tt.wantErr {
				assert.False(t, result.Success)
				assert.Equal(t, toolexecutor.KindHandler, result.ErrorKind)
				return
			}

			require.True(t, result.Success, result.Error)
			out := result.Result.(map[string]interface{})
			assert.Equal(t, tt.timezone, out["timezone"])
			_, err := time.Parse(time.RFC3339, out["time"].(string))
			assert.NoError(t, err)
		})
	}
}

func TestSleep(t *testing.T) {
	engine := newEngine(t)

	t.Run("requires enhanced access", func(t *testing.T) {
		result := engine.ExecuteTool(context.Background(), "sleep",
			map[string]interface{}{"ms": 1}, caller(toolexecutor.LevelBasic))
		assert.Equal(t, toolexecutor.KindAuthorization, result.ErrorKind)
	})

	t.Run("sleeps", func(t *testing.T) {
		result := engine.ExecuteTool(context.Background(), "sleep",
			map[string]interface{}{"ms": 5}, caller(toolexecutor.LevelEnhanced))
		require.True(t, result.Success, result.Error)
		assert.GreaterOrEqual(t, result.Duration, 5*time.Millisecond)
	})

	t.Run("rejects out of range", func(t *testing.T) {
		result := engine.ExecuteTool(context.Background(), "sleep",
			map[string]interface{}{"ms": -1}, caller(toolexecutor.LevelEnhanced))
		assert.Equal(t, toolexecutor.KindValidation, result.ErrorKind)
	})

	t.Run("caller cancellation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		result := engine.ExecuteTool(ctx, "sleep",
			map[string]interface{}{"ms": 5000}, caller(toolexecutor.LevelEnterprise))
		assert.False(t, result.Success)
		assert.Equal(t, toolexecutor.KindTimeout, result.ErrorKind)
		assert.Less(t, result.Duration, time.Second)
	})
}

func TestSum(t *testing.T) {
	engine := newEngine(t)

	result := engine.ExecuteTool(context.Background(), "sum",
		map[string]interface{}{"numbers": []interface{}{1, 2.5, 3}}, caller(toolexecutor.LevelBasic))
	require.True(t, result.Success, result.Error)
	assert.Equal(t, sumResult{Sum: 6.5, Count: 3}, result.Result)

	result = engine.ExecuteTool(context.Background(), "sum",
		map[string]interface{}{"numbers": []interface{}{"one"}}, caller(toolexecutor.LevelBasic))
	assert.Equal(t, toolexecutor.KindValidation, result.ErrorKind)
}
