package errors

import (
	"context"
	"errors"
)

// Logger is the subset of logging.Logger the Handler needs.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// Handler logs errors at a level that matches their kind: rejections and
// caller mistakes are warnings, everything else is an error.
type Handler struct {
	logger Logger
}

// NewHandler creates a new error handler.
func NewHandler(logger Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle logs err. A nil error or nil logger is a no-op.
func (h *Handler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var e *Error
	if !errors.As(err, &e) {
		h.logger.Error(ctx, err, "Unexpected error")
		return
	}

	fields := []interface{}{"kind", string(e.Kind), "code", e.Code}
	for _, k := range e.contextKeys() {
		fields = append(fields, k, e.Context[k])
	}

	switch {
	case e.Kind == KindPayloadRejected:
		h.logger.Warn(ctx, err, "Payload rejected", fields...)
	case IsCallerError(err):
		h.logger.Warn(ctx, err, "Invalid request", fields...)
	default:
		h.logger.Error(ctx, err, "Generation failed", fields...)
	}
}
