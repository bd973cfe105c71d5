package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/Makepad-fr/todomvc/internal/config"
)

func TestInteractiveWithoutFileIsNop(t *testing.T) {
	log, err := New(config.LoggingConfig{Verbose: true}, true)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.ErrorLevel))
}

func TestLevels(t *testing.T) {
	quiet, err := New(config.LoggingConfig{}, false)
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, quiet.Core().Enabled(zapcore.WarnLevel))

	verbose, err := New(config.LoggingConfig{Verbose: true}, false)
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "todo.log")

	log, err := New(config.LoggingConfig{File: path, Verbose: true}, true)
	require.NoError(t, err)
	log.Debug("hello from test")
	require.NoError(t, log.Sync())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "hello from test")
}
