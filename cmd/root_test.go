package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flarewatch/pkg/errors"
)

// execute runs the CLI in an isolated home directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeIn(t, t.TempDir(), args...)
}

// executeIn runs the CLI with HOME set to home.
func executeIn(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv("FLAREWATCH_CONFIG", "")
	t.Setenv("FLAREWATCH_USE_KEYRING", "false")

	cmd := NewRootCommand()
	b := bytes.NewBufferString("")
	cmd.SetOut(b)
	cmd.SetErr(b)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return b.String(), err
}

func TestRootCommand(t *testing.T) {
	output, err := execute(t)
	assert.NoError(t, err)
	assert.Contains(t, output, "flarewatch")
	assert.Contains(t, output, "grace period")
}

func TestRootCommandHelp(t *testing.T) {
	output, err := execute(t, "--help")
	assert.NoError(t, err)

	assert.Contains(t, output, "Available Commands:")
	for _, name := range []string{"analyze", "fetch", "credentials", "config", "version"} {
		assert.Contains(t, output, name)
	}
}

func TestInvalidCommand(t *testing.T) {
	_, err := execute(t, "invalid-command")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestVersionCommand(t *testing.T) {
	output, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, output, "flarewatch version dev")
}

func TestInvalidConfigurationFromEnvironment(t *testing.T) {
	t.Setenv("FLAREWATCH_REPORT_FORMAT", "xml")

	_, err := execute(t, "config", "show")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetErrorCode(err))
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, err := execute(t, "--config", "/nonexistent/flarewatch.yaml", "config", "show")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigNotFound, errors.GetErrorCode(err))
}
