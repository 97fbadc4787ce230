package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DonovanMods/profile-mod-manager/internal/logging"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zerolog.Level
	}{
		{-1, zerolog.WarnLevel},
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{5, zerolog.TraceLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, logging.Level(tt.verbosity))
	}
}

func TestSetup_WritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "pmm.log")

	closer := logging.Setup(1, path, true)
	logger := logging.Get("test")
	logger.Info().Str("profile", "Farm1").Msg("switched")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), `"profile":"Farm1"`)

	logging.Setup(0, "", true)
}

func TestSetup_NoFile(t *testing.T) {
	closer := logging.Setup(0, "", true)
	assert.NoError(t, closer.Close())
}
