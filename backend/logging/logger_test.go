package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zerolog.Level
	}{
		{-1, zerolog.WarnLevel},
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{5, zerolog.DebugLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForVerbosity(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = FormatJSON
	cfg.Level = zerolog.InfoLevel
	cfg.Out = &buf

	log := New(cfg)
	log.Debug().Msg("hidden")
	log.Info().Str("k", "v").Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "v", entry["k"])
	assert.Equal(t, "info", entry["level"])
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = FormatJSON
	cfg.Level = zerolog.DebugLevel
	cfg.Out = &buf

	ctx := WithContext(context.Background(), New(cfg))
	ctx = WithComponent(ctx, "tracker")
	FromContext(ctx).Debug().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "tracker", entry["component"])
}

func TestFromContext_NoLoggerIsDisabled(t *testing.T) {
	log := FromContext(context.Background())
	require.NotNil(t, log)
	assert.Equal(t, zerolog.Disabled, log.GetLevel())
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat("console"))
	assert.True(t, ValidFormat("json"))
	assert.False(t, ValidFormat("xml"))
}
