package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseLevel(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelWarn, Format: "text", Output: &buf})
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, nil, "warn message")
	logger.Error(ctx, errors.New("boom"), "error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
	assert.Contains(t, out, "boom")
}

func TestLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Format: "json", Output: &buf})

	logger.WithComponent("batch").
		With("run_id", "r-1").
		Info(context.Background(), "Job finished", "job", "wifi", "bytes", 42)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Job finished", record["msg"])
	assert.Equal(t, "batch", record["component"])
	assert.Equal(t, "r-1", record["run_id"])
	assert.Equal(t, "wifi", record["job"])
	assert.Equal(t, float64(42), record["bytes"])
}

func TestWithDoesNotLeakFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&LoggerConfig{Level: LevelInfo, Format: "text", Output: &buf})

	_ = base.With("child", "yes")
	base.Info(context.Background(), "parent")

	assert.NotContains(t, buf.String(), "child=yes")
}

func TestNopLogger(t *testing.T) {
	logger := NewNop()
	assert.NotPanics(t, func() {
		logger.Error(context.Background(), errors.New("x"), "dropped")
	})
}

func TestSanitizeForLog(t *testing.T) {
	assert.Equal(t, "https://example.com", SanitizeForLog("https://example.com"))
	assert.Equal(t, "[REDACTED]", SanitizeForLog("otpauth://totp/x?secret=JBSWY3DP"))
	assert.Equal(t, "[REDACTED]", SanitizeForLog("api_key=abc"))

	long := strings.Repeat("a", maxLoggedPayload+10)
	sanitized := SanitizeForLog(long)
	assert.True(t, strings.HasSuffix(sanitized, "...[TRUNCATED]"))
	assert.Len(t, sanitized, maxLoggedPayload+len("...[TRUNCATED]"))
}

func TestSanitizeParams(t *testing.T) {
	params := map[string]string{
		"ssid":     "home",
		"password": "hunter2",
		"pwd":      "123",
		"secret":   "JBSW",
	}

	got := SanitizeParams(params)
	assert.Equal(t, "home", got["ssid"])
	assert.Equal(t, "[REDACTED]", got["password"])
	assert.Equal(t, "[REDACTED]", got["pwd"])
	assert.Equal(t, "[REDACTED]", got["secret"])
	assert.Equal(t, "hunter2", params["password"], "input must not be modified")
}

func TestPerfLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Format: "text", Output: &buf})
	ctx := context.Background()

	perf := logger.StartOperation("generate")
	perf.End(ctx, "template", "url")
	assert.Contains(t, buf.String(), "operation=generate")
	assert.Contains(t, buf.String(), "duration_ms=")

	buf.Reset()
	StartOperation(logger, "render").EndWithError(ctx, errors.New("bad colour"))
	assert.Contains(t, buf.String(), "Operation failed")
	assert.Contains(t, buf.String(), "bad colour")
}
