package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	err := MissingParameter("wifi-wpa", "ssid")

	assert.Contains(t, err.Error(), "[ERR_MISSING_PARAMETER]")
	assert.Contains(t, err.Error(), `"ssid"`)
	assert.Contains(t, err.Error(), "wifi-wpa")
	assert.Equal(t, "ssid", err.Context["parameter"])
	assert.Equal(t, "wifi-wpa", err.Context["template"])
}

func TestErrorStringWithCause(t *testing.T) {
	cause := fmt.Errorf("capacity exceeded")
	err := Encoding("data too long", cause)

	assert.Equal(t, "[ERR_ENCODING] data too long: capacity exceeded", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestIsMatchesKind(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"unknown template", UnknownTemplate("nope"), ErrUnknownTemplate},
		{"missing parameter", MissingParameter("sms", "number"), ErrMissingParameter},
		{"invalid parameter", InvalidParameter("json", "json", fmt.Errorf("bad")), ErrInvalidParameter},
		{"source selection", InvalidSourceSelection("both"), ErrInvalidSourceSelection},
		{"rejected", PayloadRejected("script-uri", "script-uri", "scheme", "javascript:"), ErrPayloadRejected},
		{"encoding", Encoding("x", nil), ErrEncoding},
		{"render config", RenderConfig("box_size", "x"), ErrRenderConfig},
		{"config", Config("x", nil), ErrConfig},
		{"io", IO("x", nil), ErrIO},
		{"manifest", Manifest("x", nil), ErrManifest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, errors.Is(tc.err, tc.sentinel))

			wrapped := fmt.Errorf("outer: %w", tc.err)
			assert.True(t, errors.Is(wrapped, tc.sentinel))
		})
	}

	assert.False(t, errors.Is(UnknownTemplate("x"), ErrMissingParameter))
}

func TestKindOfAndPredicates(t *testing.T) {
	rejected := PayloadRejected("script-tag", "markup-injection", "tag", "<script")

	assert.Equal(t, KindPayloadRejected, KindOf(rejected))
	assert.Equal(t, Kind(""), KindOf(fmt.Errorf("plain")))
	assert.True(t, IsRejection(rejected))
	assert.True(t, IsRejection(fmt.Errorf("wrapped: %w", rejected)))
	assert.False(t, IsRejection(Encoding("x", nil)))

	assert.True(t, IsCallerError(MissingParameter("a", "b")))
	assert.False(t, IsCallerError(IO("x", nil)))
	assert.False(t, IsCallerError(rejected))
}

func TestContextString(t *testing.T) {
	err := New(KindIO, ErrCodeIO, "write failed").
		WithContext("path", "out.png").
		WithContext("bytes", 12)

	assert.Equal(t, "bytes=12 path=out.png", err.ContextString())
	assert.Empty(t, New(KindIO, ErrCodeIO, "x").ContextString())
}

type recordingLogger struct {
	warns  []string
	errors []string
	fields [][]interface{}
}

func (r *recordingLogger) Error(_ context.Context, _ error, msg string, fields ...interface{}) {
	r.errors = append(r.errors, msg)
	r.fields = append(r.fields, fields)
}

func (r *recordingLogger) Warn(_ context.Context, _ error, msg string, fields ...interface{}) {
	r.warns = append(r.warns, msg)
	r.fields = append(r.fields, fields)
}

func TestHandlerLevels(t *testing.T) {
	ctx := context.Background()
	logger := &recordingLogger{}
	handler := NewHandler(logger)

	handler.Handle(ctx, nil)
	handler.Handle(ctx, PayloadRejected("script-uri", "script-uri", "scheme", "javascript:"))
	handler.Handle(ctx, UnknownTemplate("nope"))
	handler.Handle(ctx, IO("disk full", nil))
	handler.Handle(ctx, fmt.Errorf("untyped"))

	require.Len(t, logger.warns, 2)
	require.Len(t, logger.errors, 2)
	assert.Equal(t, "Payload rejected", logger.warns[0])
	assert.Equal(t, "Invalid request", logger.warns[1])
	assert.Equal(t, "Generation failed", logger.errors[0])
	assert.Equal(t, "Unexpected error", logger.errors[1])
	assert.Contains(t, logger.fields[0], "rule")
}

func TestHandlerFieldOrder(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want []interface{}
	}{
		{
			name: "rejection",
			err:  PayloadRejected("script-uri", "script-uri", "scheme", "javascript:"),
			want: []interface{}{
				"kind", string(KindPayloadRejected), "code", ErrCodePayloadRejected,
				"category", "script-uri", "match", "javascript:", "rule", "script-uri",
			},
		},
		{
			name: "io",
			err:  IO("disk full", nil).WithContext("path", "out.png").WithContext("bytes", 12),
			want: []interface{}{
				"kind", string(KindIO), "code", ErrCodeIO,
				"bytes", 12, "path", "out.png",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				logger := &recordingLogger{}
				NewHandler(logger).Handle(context.Background(), tt.err)
				require.Len(t, logger.fields, 1)
				assert.Equal(t, tt.want, logger.fields[0])
			}
		})
	}
}

func TestHandlerNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		NewHandler(nil).Handle(context.Background(), IO("x", nil))
	})
}
