package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolsList(t *testing.T) {
	cfg := writeConfig(t, "")

	t.Run("table hides tools above the caller level", func(t *testing.T) {
		out, err := runCLI(t, "--config", cfg, "tools", "list")
		require.NoError(t, err)

		assert.Contains(t, out, "echo")
		assert.Contains(t, out, "current_time")
		assert.NotContains(t, out, "sleep")
	})

	t.Run("json with category filter", func(t *testing.T) {
		out, err := runCLI(t, "--config", cfg, "tools", "list", "--json", "--category", "data")
		require.NoError(t, err)

		var listed []map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &listed))
		require.Len(t, listed, 1)
		assert.Equal(t, "sum", listed[0]["name"])
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := runCLI(t, "--config", cfg, "tools", "list", "--category", "magic")
		assert.ErrorContains(t, err, "invalid category")
	})
}

func TestToolsExec(t *testing.T) {
	cfg := writeConfig(t, "")

	t.Run("success", func(t *testing.T) {
		out, err := runCLI(t, "--config", cfg, "tools", "exec", "sum", "--args", `{"numbers":[1,2,3]}`)
		require.NoError(t, err)

		var view executionView
		require.NoError(t, json.Unmarshal([]byte(out), &view))
		assert.True(t, view.Success)
		assert.Equal(t, "tester", view.User)
		assert.NotEmpty(t, view.ExecutionID)
		assert.Equal(t, map[string]interface{}{"sum": 6.0, "count": 3.0}, view.Result)
	})

	t.Run("authorization failure exits with error", func(t *testing.T) {
		_, err := runCLI(t, "--config", cfg, "tools", "exec", "sleep", "--args", `{"ms":1}`)
		assert.ErrorContains(t, err, "access denied to tool 'sleep'")
	})

	t.Run("user override", func(t *testing.T) {
		out, err := runCLI(t, "--config", cfg, "--user", "dave", "tools", "exec", "echo", "--args", `{"message":"x"}`)
		require.NoError(t, err)
		assert.Contains(t, out, `"user_id": "dave"`)
	})

	t.Run("bad args json", func(t *testing.T) {
		_, err := runCLI(t, "--config", cfg, "tools", "exec", "echo", "--args", `{`)
		assert.ErrorContains(t, err, "invalid --args JSON")
	})
}

func TestToolsExecRepeatHitsRateLimit(t *testing.T) {
	cfg := writeConfig(t, `, "engine": {"default_rate_limit": 2}`)

	out, err := runCLI(t, "--config", cfg, "tools", "exec", "echo", "--args", `{"message":"x"}`, "--repeat", "3")
	assert.ErrorContains(t, err, "rate limit exceeded for tool 'echo': 2 calls per minute")

	dec := json.NewDecoder(strings.NewReader(out))
	var kinds []string
	for dec.More() {
		var view executionView
		require.NoError(t, dec.Decode(&view))
		kinds = append(kinds, view.ErrorKind)
	}
	assert.Equal(t, []string{"", "", "rate_limit"}, kinds)
}

func TestToolsExport(t *testing.T) {
	cfg := writeConfig(t, "")

	for _, format := range []string{"anthropic", "openai", "schema"} {
		t.Run(format, func(t *testing.T) {
			out, err := runCLI(t, "--config", cfg, "tools", "export", "--format", format)
			require.NoError(t, err)
			assert.Contains(t, out, "current_time")
			assert.NotContains(t, out, `"sleep"`)
		})
	}

	_, err := runCLI(t, "--config", cfg, "tools", "export", "--format", "yaml")
	assert.ErrorContains(t, err, "unknown export format")
}

func TestHistoryAndStats(t *testing.T) {
	cfg := writeConfig(t, "")

	_, err := runCLI(t, "--config", cfg, "tools", "exec", "echo", "--args", `{"message":"one"}`)
	require.NoError(t, err)
	_, err = runCLI(t, "--config", cfg, "tools", "exec", "missing")
	require.Error(t, err)

	out, err := runCLI(t, "--config", cfg, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "echo")
	assert.Contains(t, out, "not_found")

	out, err = runCLI(t, "--config", cfg, "history", "--tool", "echo")
	require.NoError(t, err)
	assert.NotContains(t, out, "not_found")

	out, err = runCLI(t, "--config", cfg, "stats")
	require.NoError(t, err)
	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, map[string]interface{}{"echo": 1.0, "missing": 1.0}, stats["archived_executions"])
	engine := stats["engine"].(map[string]interface{})
	assert.Equal(t, 4.0, engine["total_tools"])

	out, err = runCLI(t, "--config", cfg, "stats", "--prometheus")
	require.NoError(t, err)
	assert.Contains(t, out, "tools_registered 4")
}

func TestHistoryRequiresArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolgate.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"logging": {"level": "error", "pretty": false}}`), 0644))

	_, err := runCLI(t, "--config", path, "history")
	assert.ErrorContains(t, err, "execution archive is disabled")
}

func TestAuditTrail(t *testing.T) {
	auditPath := filepath.Join(t.TempDir(), "audit.jsonl")
	cfg := writeConfig(t, `, "audit": {"path": "`+filepath.ToSlash(auditPath)+`"}`)

	_, err := runCLI(t, "--config", cfg, "tools", "exec", "sleep", "--args", `{"ms":1}`)
	require.Error(t, err)

	data, err := os.ReadFile(auditPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"action":"execute:sleep"`)
	assert.Contains(t, string(data), `"status":"denied"`)
}

func TestToolsExecMixedCaseSecurityLevel(t *testing.T) {
	cfg := writeConfig(t, `, "caller": {"user_id": "tester", "security_level": "Enterprise"}`)

	out, err := runCLI(t, "--config", cfg, "tools", "exec", "echo", "--args", `{"message":"x"}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"success": true`)

	_, err = runCLI(t, "--config", cfg, "tools", "exec", "sleep", "--args", `{"ms":1}`)
	require.NoError(t, err)
}

func TestToolsListHonoursPolicy(t *testing.T) {
	cfg := writeConfig(t, `, "policy": {"deny": ["echo"]}`)

	out, err := runCLI(t, "--config", cfg, "tools", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "echo")
	assert.Contains(t, out, "current_time")

	out, err = runCLI(t, "--config", cfg, "tools", "export", "--format", "schema")
	require.NoError(t, err)
	assert.NotContains(t, out, `"echo"`)
}
