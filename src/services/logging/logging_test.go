package logging_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"chatkit/src/services/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := logging.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := logging.ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWriterAndComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := logging.New(logging.Options{Level: "warn", Writer: &buf})
	require.NoError(t, err)
	defer closer.Close()

	log := logging.WithComponent(logger, "chat")
	log.Info("hidden")
	log.Warn("persist failed", "key", "chatkit-data")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "component=chat")
	assert.Contains(t, out, "key=chatkit-data")
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chatkit.log")
	logger, closer, err := logging.New(logging.Options{File: path})
	require.NoError(t, err)
	logger.Info("started")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=started")
}
