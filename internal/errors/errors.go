// Package errors defines the typed errors returned by every virsqr component.
//
// Each failure carries a Kind that callers can test with errors.Is against
// the exported sentinels, a stable Code for machine consumption, and a
// Context map naming the template, parameter or rule involved.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind categorises an error.
type Kind string

const (
	KindUnknownTemplate        Kind = "unknown_template"
	KindMissingParameter       Kind = "missing_parameter"
	KindInvalidParameter       Kind = "invalid_parameter"
	KindInvalidSourceSelection Kind = "invalid_source_selection"
	KindPayloadRejected        Kind = "payload_rejected"
	KindEncoding               Kind = "encoding"
	KindRenderConfig           Kind = "render_config"
	KindConfig                 Kind = "config"
	KindIO                     Kind = "io"
	KindManifest               Kind = "manifest"
)

// Error codes.
const (
	ErrCodeUnknownTemplate  = "ERR_UNKNOWN_TEMPLATE"
	ErrCodeMissingParameter = "ERR_MISSING_PARAMETER"
	ErrCodeInvalidParameter = "ERR_INVALID_PARAMETER"
	ErrCodeInvalidSource    = "ERR_INVALID_SOURCE"
	ErrCodePayloadRejected  = "ERR_PAYLOAD_REJECTED"
	ErrCodeEncoding         = "ERR_ENCODING"
	ErrCodeRenderConfig     = "ERR_RENDER_CONFIG"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeIO               = "ERR_IO"
	ErrCodeManifestInvalid  = "ERR_MANIFEST_INVALID"
)

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrUnknownTemplate        = &Error{Kind: KindUnknownTemplate}
	ErrMissingParameter       = &Error{Kind: KindMissingParameter}
	ErrInvalidParameter       = &Error{Kind: KindInvalidParameter}
	ErrInvalidSourceSelection = &Error{Kind: KindInvalidSourceSelection}
	ErrPayloadRejected        = &Error{Kind: KindPayloadRejected}
	ErrEncoding               = &Error{Kind: KindEncoding}
	ErrRenderConfig           = &Error{Kind: KindRenderConfig}
	ErrConfig                 = &Error{Kind: KindConfig}
	ErrIO                     = &Error{Kind: KindIO}
	ErrManifest               = &Error{Kind: KindManifest}
)

// Error is the structured error type shared by all packages.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target has the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}

	return false
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithCause sets the underlying cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause

	return e
}

// ContextString returns the context as sorted key=value pairs.
func (e *Error) ContextString() string {
	if len(e.Context) == 0 {
		return ""
	}

	keys := e.contextKeys()
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, e.Context[k]))
	}

	return strings.Join(pairs, " ")
}

func (e *Error) contextKeys() []string {
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// New creates an error of the given kind.
func New(kind Kind, code, message string) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// UnknownTemplate reports a template name that is not in the catalog.
func UnknownTemplate(name string) *Error {
	return New(KindUnknownTemplate, ErrCodeUnknownTemplate, "unknown template: "+name).
		WithContext("template", name)
}

// MissingParameter reports a required parameter with no value.
func MissingParameter(template, param string) *Error {
	return New(
		KindMissingParameter,
		ErrCodeMissingParameter,
		fmt.Sprintf("missing required parameter %q for template %s", param, template),
	).WithContext("template", template).WithContext("parameter", param)
}

// InvalidParameter reports a parameter value a filter could not accept.
func InvalidParameter(template, param string, cause error) *Error {
	return New(
		KindInvalidParameter,
		ErrCodeInvalidParameter,
		fmt.Sprintf("invalid value for parameter %q of template %s", param, template),
	).WithContext("template", template).WithContext("parameter", param).WithCause(cause)
}

// InvalidSourceSelection reports a request that names both or neither of
// a template and raw data.
func InvalidSourceSelection(message string) *Error {
	return New(KindInvalidSourceSelection, ErrCodeInvalidSource, message)
}

// PayloadRejected reports a payload that matched an exploit-indicator rule.
func PayloadRejected(rule, category, reason, match string) *Error {
	return New(
		KindPayloadRejected,
		ErrCodePayloadRejected,
		fmt.Sprintf("payload rejected by rule %s (%s): %s", rule, category, reason),
	).WithContext("rule", rule).WithContext("category", category).WithContext("match", match)
}

// Encoding wraps a failure of the QR encoder.
func Encoding(message string, cause error) *Error {
	return New(KindEncoding, ErrCodeEncoding, message).WithCause(cause)
}

// RenderConfig reports an invalid rendering configuration.
func RenderConfig(field, message string) *Error {
	return New(KindRenderConfig, ErrCodeRenderConfig, message).WithContext("field", field)
}

// Config reports an invalid application configuration.
func Config(message string, cause error) *Error {
	return New(KindConfig, ErrCodeConfigInvalid, message).WithCause(cause)
}

// IO wraps a filesystem failure.
func IO(message string, cause error) *Error {
	return New(KindIO, ErrCodeIO, message).WithCause(cause)
}

// Manifest reports an invalid batch manifest.
func Manifest(message string, cause error) *Error {
	return New(KindManifest, ErrCodeManifestInvalid, message).WithCause(cause)
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return ""
}

// IsRejection reports whether err is a routine payload rejection rather
// than an unexpected failure.
func IsRejection(err error) bool {
	return KindOf(err) == KindPayloadRejected
}

// IsCallerError reports whether err was caused by caller input (bad
// template, parameters, source selection or render settings).
func IsCallerError(err error) bool {
	switch KindOf(err) {
	case KindUnknownTemplate, KindMissingParameter, KindInvalidParameter,
		KindInvalidSourceSelection, KindRenderConfig, KindConfig, KindManifest:
		return true
	default:
		return false
	}
}
