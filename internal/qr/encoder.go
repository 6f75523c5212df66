package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/conneroisu/virsqr/internal/errors"
)

// Encoder turns data into a module matrix.
type Encoder interface {
	Encode(data string, level Level) (Matrix, error)
}

// EncoderFunc adapts a function to Encoder.
type EncoderFunc func(data string, level Level) (Matrix, error)

// Encode calls f.
func (f EncoderFunc) Encode(data string, level Level) (Matrix, error) {
	return f(data, level)
}

// Option configures a SkipEncoder.
type Option func(*SkipEncoder)

// WithVersion forces a symbol version between 1 and 40. Zero picks the
// smallest version that fits.
func WithVersion(version int) Option {
	return func(e *SkipEncoder) {
		e.version = version
	}
}

// SkipEncoder encodes with github.com/skip2/go-qrcode.
type SkipEncoder struct {
	version int
}

// NewEncoder creates an encoder.
func NewEncoder(opts ...Option) *SkipEncoder {
	e := &SkipEncoder{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Version returns the forced version, or 0 when automatic.
func (e *SkipEncoder) Version() int { return e.version }

// Encode implements Encoder.
func (e *SkipEncoder) Encode(data string, level Level) (Matrix, error) {
	if data == "" {
		return nil, errors.Encoding("cannot encode empty data", nil)
	}
	if e.version < 0 || e.version > 40 {
		return nil, errors.Encoding(fmt.Sprintf("version %d out of range 1-40", e.version), nil).
			WithContext("version", e.version)
	}

	recovery, err := level.recovery()
	if err != nil {
		return nil, errors.Encoding("invalid error correction level", err)
	}

	var code *qrcode.QRCode
	if e.version > 0 {
		code, err = qrcode.NewWithForcedVersion(data, e.version, recovery)
	} else {
		code, err = qrcode.New(data, recovery)
	}
	if err != nil {
		return nil, errors.Encoding("data does not fit in a QR symbol", err).
			WithContext("bytes", len(data)).
			WithContext("level", level.String())
	}

	code.DisableBorder = true
	m, err := NewMatrix(code.Bitmap())
	if err != nil {
		return nil, errors.Encoding("encoder produced a malformed matrix", err)
	}
	return m, nil
}
