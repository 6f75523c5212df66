// Package generator turns a template or raw data into a rendered QR code.
// It resolves the payload, screens it, encodes it and renders the matrix,
// in that order, stopping at the first error.
package generator

import (
	"github.com/conneroisu/virsqr/internal/errors"
	"github.com/conneroisu/virsqr/internal/qr"
	"github.com/conneroisu/virsqr/internal/registry"
	"github.com/conneroisu/virsqr/internal/renderer"
	"github.com/conneroisu/virsqr/internal/validation"
)

// Source selects where the payload comes from. Exactly one of a template or
// raw data must be set.
type Source struct {
	Template string
	Params   map[string]string
	Data     string

	hasTemplate bool
	hasData     bool
}

// FromTemplate selects a registry template and its parameters.
func FromTemplate(name string, params map[string]string) Source {
	return Source{Template: name, Params: params, hasTemplate: true}
}

// FromRaw selects raw data.
func FromRaw(data string) Source {
	return Source{Data: data, hasData: true}
}

// Combine merges two sources. Set fields are kept from both, so combining a
// template source with a raw source yields a source that fails selection.
func Combine(a, b Source) Source {
	out := a
	if b.hasTemplate {
		out.Template, out.Params, out.hasTemplate = b.Template, b.Params, true
	}
	if b.hasData {
		out.Data, out.hasData = b.Data, true
	}
	return out
}

func (s Source) check() error {
	switch {
	case s.hasTemplate && s.hasData:
		return errors.InvalidSourceSelection("provide either a template or raw data, not both")
	case !s.hasTemplate && !s.hasData:
		return errors.InvalidSourceSelection("provide a template or raw data")
	}
	return nil
}

// Request is one generation.
type Request struct {
	Source Source
	Level  qr.Level
	Render renderer.Config
	Format renderer.Format
}

// NewRequest returns a request for src with the default level, render
// configuration and raster format.
func NewRequest(src Source) Request {
	return Request{
		Source: src,
		Level:  qr.DefaultLevel,
		Render: renderer.DefaultConfig(),
		Format: renderer.FormatRaster,
	}
}

// Generator holds the collaborators of the pipeline. It has no mutable
// state and is safe for concurrent use.
type Generator struct {
	encoder   qr.Encoder
	registry  *registry.TemplateRegistry
	validator *validation.Validator
}

// Option configures a Generator.
type Option func(*Generator)

// WithEncoder replaces the skip2 encoder.
func WithEncoder(e qr.Encoder) Option {
	return func(g *Generator) { g.encoder = e }
}

// WithRegistry replaces the built-in template catalog.
func WithRegistry(r *registry.TemplateRegistry) Option {
	return func(g *Generator) { g.registry = r }
}

// WithValidator replaces the default payload rules.
func WithValidator(v *validation.Validator) Option {
	return func(g *Generator) { g.validator = v }
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		encoder:   qr.NewEncoder(),
		registry:  registry.Default(),
		validator: validation.New(validation.DefaultRules()...),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// With returns a copy of g with opts applied.
func (g *Generator) With(opts ...Option) *Generator {
	clone := *g
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// Resolve returns the payload src selects without screening it.
func (g *Generator) Resolve(src Source) (string, error) {
	if err := src.check(); err != nil {
		return "", err
	}
	if src.hasData {
		return src.Data, nil
	}
	return g.registry.Resolve(src.Template, src.Params)
}

// Check resolves src and screens the payload. The error is non-nil for
// resolution failures and for rejected payloads.
func (g *Generator) Check(src Source) (string, validation.Verdict, error) {
	payload, err := g.Resolve(src)
	if err != nil {
		return "", validation.Verdict{}, err
	}
	verdict := g.validator.Validate(payload)
	return payload, verdict, verdict.Err()
}

// Matrix resolves, screens and encodes src.
func (g *Generator) Matrix(src Source, level qr.Level) (qr.Matrix, error) {
	payload, _, err := g.Check(src)
	if err != nil {
		return nil, err
	}
	return g.encoder.Encode(payload, level)
}

// Generate runs the whole pipeline for req.
func (g *Generator) Generate(req Request) (*renderer.Output, error) {
	if err := req.Render.Check(req.Format); err != nil {
		return nil, err
	}
	m, err := g.Matrix(req.Source, req.Level)
	if err != nil {
		return nil, err
	}
	return renderer.Render(m, req.Render, req.Format)
}

var defaultGenerator = New()

// Generate runs req through a Generator with the default collaborators.
func Generate(req Request) (*renderer.Output, error) {
	return defaultGenerator.Generate(req)
}
