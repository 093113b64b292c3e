package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/preschool-ops-api/pkg/config"
)

func TestNewTeesIntoLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	l, err := New(&config.Config{
		Env: config.EnvProduction,
		Log: config.LogConfig{Level: "warn", FilePath: path, MaxSizeMB: 1},
	})
	require.NoError(t, err)

	l.Info("dropped below level")
	l.Warn("backfill school failed", zap.String("school_id", "sunrise"))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"school_id":"sunrise"`)
	assert.Contains(t, string(body), `"timestamp"`)
	assert.NotContains(t, string(body), "dropped below level")
}

func TestNewFallsBackOnBadLevel(t *testing.T) {
	l, err := New(&config.Config{Log: config.LogConfig{Level: "chatty", Format: "console"}})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
}
