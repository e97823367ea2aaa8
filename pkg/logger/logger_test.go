package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dlmm-orders/pkg/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "line: %s", line)
		out = append(out, entry)
	}
	return out
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "development", LogLevel: "warn", LogFormat: "json"}, &buf)

	log.Debug("hidden")
	log.Info("hidden too")
	log.Warn("visible")
	log.Error("also visible")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "visible", lines[0]["message"])
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "development", lines[0]["env"])
	assert.Equal(t, "error", lines[1]["level"])
}

func TestFieldDerivation(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&config.Config{Env: "staging", LogLevel: "debug"}, &buf)

	base.WithComponent("oracle").
		WithFields(map[string]interface{}{"symbol": "SOL/USD", "attempt": 2}).
		WithError(errors.New("boom")).
		Info("endpoint failed")

	base.Info("plain")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "oracle", lines[0]["component"])
	assert.Equal(t, "SOL/USD", lines[0]["symbol"])
	assert.Equal(t, float64(2), lines[0]["attempt"])
	assert.Equal(t, "boom", lines[0]["error"])

	// derived fields must not leak into the parent
	_, leaked := lines[1]["component"]
	assert.False(t, leaked)
}

func TestFormattedMethods(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "development", LogLevel: "debug"}, &buf)

	log.Infof("loaded %d orders", 3)
	log.Warnf("skipping %s", "ord-1")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "loaded 3 orders", lines[0]["message"])
	assert.Equal(t, "skipping ord-1", lines[1]["message"])
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "development", LogLevel: "info", LogFormat: "console"}, &buf)

	log.WithField("pair", "SOL/USDC").Info("order placed")

	out := buf.String()
	assert.Contains(t, out, "order placed")
	assert.Contains(t, out, "SOL/USDC")
	assert.False(t, json.Valid([]byte(strings.TrimSpace(out))))
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.NotPanics(t, func() {
		log.WithField("k", "v").Error("nothing")
	})
}
