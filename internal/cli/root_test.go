package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "framesynth", cmd.Use)
	assert.Contains(t, cmd.Long, "accessor markers")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"analyze", "validate", "members", "trace", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestAnalyzeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	analyzeCmd, _, err := cmd.Find([]string{"analyze"})
	require.NoError(t, err)

	dbFlag := analyzeCmd.Flags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)

	strictFlag := analyzeCmd.Flags().Lookup("strict")
	require.NotNil(t, strictFlag)
	assert.Equal(t, "false", strictFlag.DefValue)
}

func TestRoot_InvalidFormat(t *testing.T) {
	_, err := execute(t, NewRootCommand(), "validate", "--format", "xml", groupedProgram)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRoot_MissingConfigFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := execute(t, NewRootCommand(), "validate", "--config", missing, groupedProgram)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRoot_ConfigFailPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framesynth.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis:\n  on_missing_schema: fail\n"), 0644))

	out, err := execute(t, NewRootCommand(), "analyze", "--config", path, groupedProgram)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 diagnostic(s) reported")
	assert.Contains(t, out, "E202")
}

func TestRoot_Validate(t *testing.T) {
	out, err := execute(t, NewRootCommand(), "validate", groupedProgram)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Program valid (3 call(s))")
}
