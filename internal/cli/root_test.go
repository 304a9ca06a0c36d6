package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes a fresh command tree and returns stdout
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	cmd.SetArgs(args)

	stdout := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	return stdout.String(), err
}

// writeConfig writes a config enabling the archive under a temp dir
func writeConfig(t *testing.T, extra string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "toolgate.json")
	body := `{
		"logging": {"level": "error", "pretty": false},
		"archive": {"enabled": true, "path": "` + filepath.ToSlash(filepath.Join(dir, "executions.db")) + `"},
		"caller": {"user_id": "tester", "security_level": "basic"}` + extra + `
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRootCommand(t *testing.T) {
	t.Run("version flag", func(t *testing.T) {
		out, err := runCLI(t, "--version")
		require.NoError(t, err)

		assert.Contains(t, out, "toolgate version")
		assert.Contains(t, out, GetVersion())
	})

	t.Run("help flag", func(t *testing.T) {
		out, err := runCLI(t, "--help")
		require.NoError(t, err)

		assert.Contains(t, out, "toolgate")
		assert.Contains(t, out, "rate limits")
	})

	t.Run("global flags", func(t *testing.T) {
		cmd := NewRootCmd()

		for _, name := range []string{"config", "log-level", "user"} {
			flag := cmd.PersistentFlags().Lookup(name)
			require.NotNil(t, flag, name)
			assert.Equal(t, "", flag.DefValue)
		}
	})
}

func TestGetVersion(t *testing.T) {
	assert.True(t, strings.HasPrefix(GetVersion(), "0."))
}

func TestConfigure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "toolgate.json")

	out, err := runCLI(t, "--config", path, "--user", "carol", "configure", "--level", "enhanced", "--archive")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var saved map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &saved))
	caller := saved["caller"].(map[string]interface{})
	assert.Equal(t, "carol", caller["user_id"])
	assert.Equal(t, "enhanced", caller["security_level"])

	_, err = runCLI(t, "--config", path, "configure", "--level", "root")
	assert.ErrorContains(t, err, "caller.security_level")
}
