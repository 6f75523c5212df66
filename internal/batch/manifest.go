// Package batch generates many codes from one manifest. Manifests are YAML
// or JSON, checked against a JSON schema, and their jobs run in parallel.
package batch

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/virsqr/internal/config"
	"github.com/conneroisu/virsqr/internal/errors"
	"github.com/conneroisu/virsqr/internal/generator"
	"github.com/conneroisu/virsqr/internal/validation"
)

//go:embed manifest.schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// ManifestExtensions are the accepted manifest file extensions.
var ManifestExtensions = []string{".yml", ".yaml", ".json"}

// Manifest is a list of jobs with shared render defaults.
type Manifest struct {
	// OutputDir is resolved against the manifest's directory when relative.
	OutputDir string `yaml:"output_dir"`
	Defaults  Render `yaml:"defaults"`
	Jobs      []Job  `yaml:"jobs"`

	// Path is the file the manifest was loaded from, if any.
	Path string `yaml:"-"`
}

// Job is one code to generate. Exactly one of Template or Data is set.
type Job struct {
	Name     string  `yaml:"name"`
	Template string  `yaml:"template"`
	Params   Params  `yaml:"params"`
	Data     *string `yaml:"data"`
	Output   string  `yaml:"output"`
	Render   Render  `yaml:"render"`
}

// Source converts the job's payload selection.
func (j Job) Source() generator.Source {
	var src generator.Source
	if j.Template != "" {
		src = generator.Combine(src, generator.FromTemplate(j.Template, j.Params))
	}
	if j.Data != nil {
		src = generator.Combine(src, generator.FromRaw(*j.Data))
	}
	return src
}

// Render holds optional render settings. Empty strings, zero numbers and
// nil pointers are unset.
type Render struct {
	Format          string  `yaml:"format"`
	ErrorCorrection string  `yaml:"error_correction"`
	BoxSize         int     `yaml:"box_size"`
	Border          *int    `yaml:"border"`
	FillColor       string  `yaml:"fill_color"`
	BackColor       string  `yaml:"back_color"`
	Logo            string  `yaml:"logo"`
	LogoCoverage    float64 `yaml:"logo_coverage"`
	Version         int     `yaml:"version"`
	Invert          *bool   `yaml:"invert"`
}

// RenderFromConfig lifts the configured render settings into a base layer.
func RenderFromConfig(c config.RenderConfig) Render {
	border := c.Border
	return Render{
		ErrorCorrection: c.ErrorCorrection,
		BoxSize:         c.BoxSize,
		Border:          &border,
		FillColor:       c.FillColor,
		BackColor:       c.BackColor,
		LogoCoverage:    c.LogoCoverage,
		Version:         c.Version,
	}
}

// Merge returns r with every field set in over replaced.
func (r Render) Merge(over Render) Render {
	if over.Format != "" {
		r.Format = over.Format
	}
	if over.ErrorCorrection != "" {
		r.ErrorCorrection = over.ErrorCorrection
	}
	if over.BoxSize != 0 {
		r.BoxSize = over.BoxSize
	}
	if over.Border != nil {
		r.Border = over.Border
	}
	if over.FillColor != "" {
		r.FillColor = over.FillColor
	}
	if over.BackColor != "" {
		r.BackColor = over.BackColor
	}
	if over.Logo != "" {
		r.Logo = over.Logo
	}
	if over.LogoCoverage != 0 {
		r.LogoCoverage = over.LogoCoverage
	}
	if over.Version != 0 {
		r.Version = over.Version
	}
	if over.Invert != nil {
		r.Invert = over.Invert
	}
	return r
}

// Params are template parameters. Scalar values are kept as written, so
// `digits: 8` and `hidden: true` work without quoting.
type Params map[string]string

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Params) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: params must be a mapping", node.Line)
	}

	out := make(Params, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: param %q must be a scalar", value.Line, key.Value)
		}
		out[key.Value] = value.Value
	}
	*p = out
	return nil
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	if err := validation.ValidateInputPath(path, ManifestExtensions); err != nil {
		return nil, errors.Manifest("invalid manifest path", err).WithContext("path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO("failed to read manifest", err).WithContext("path", path)
	}

	m, err := Parse(data)
	if err != nil {
		if typed, ok := err.(*errors.Error); ok {
			typed.WithContext("path", path)
		}
		return nil, err
	}
	m.Path = path
	return m, nil
}

// Parse decodes a YAML or JSON manifest and checks it against the schema.
func Parse(data []byte) (*Manifest, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Manifest("manifest is not valid YAML or JSON", err)
	}
	if doc == nil {
		return nil, errors.Manifest("manifest is empty", nil)
	}

	if problems, err := validateSchema(doc); err != nil {
		return nil, errors.Manifest("manifest could not be checked", err)
	} else if len(problems) > 0 {
		return nil, errors.Manifest(fmt.Sprintf("manifest does not match the schema: %s", problems[0]), nil).
			WithContext("errors", problems)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Manifest("manifest could not be decoded", err)
	}
	return &m, nil
}

func validateSchema(doc interface{}) ([]string, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling manifest schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	errs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = desc.String()
	}
	return errs, nil
}
