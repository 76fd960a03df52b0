package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestFanoutRespectsLevels(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	h := fanout{
		slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}
	logger := slog.New(h).With("service", "medicenter")

	logger.Info("booked", "appointment_id", "MC0001-S001-20250115-A001")
	logger.Warn("sms notification failed")

	assert.Equal(t, 2, bytes.Count(debugBuf.Bytes(), []byte("\n")))
	assert.Equal(t, 1, bytes.Count(warnBuf.Bytes(), []byte("\n")))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.SplitN(debugBuf.Bytes(), []byte("\n"), 2)[0], &rec))
	assert.Equal(t, "medicenter", rec["service"])
	assert.Equal(t, "MC0001-S001-20250115-A001", rec["appointment_id"])

	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug-1))
}
