package registry

import (
	"fmt"

	"github.com/conneroisu/virsqr/internal/errors"
)

// Template is a named, parameterised payload format. Templates are
// immutable once registered.
type Template struct {
	Name        string
	Description string
	Category    string
	Pattern     string
	Required    []string
	Optional    []Param
	// Escape names the default escaper for placeholders without one.
	Escape string

	compiled *pattern
}

// Param is an optional parameter and its fallback value.
type Param struct {
	Name    string
	Default string
}

// ParameterInfo describes a template parameter for listings.
type ParameterInfo struct {
	Name     string `json:"name" yaml:"name"`
	Optional bool   `json:"optional" yaml:"optional"`
	Default  string `json:"default,omitempty" yaml:"default,omitempty"`
}

// Parameters lists required parameters followed by optional ones, each in
// declared order.
func (t *Template) Parameters() []ParameterInfo {
	out := make([]ParameterInfo, 0, len(t.Required)+len(t.Optional))
	for _, name := range t.Required {
		out = append(out, ParameterInfo{Name: name})
	}
	for _, p := range t.Optional {
		out = append(out, ParameterInfo{Name: p.Name, Optional: true, Default: p.Default})
	}
	return out
}

// OptionalNames returns the optional parameter names in declared order.
func (t *Template) OptionalNames() []string {
	out := make([]string, len(t.Optional))
	for i, p := range t.Optional {
		out[i] = p.Name
	}
	return out
}

func (t *Template) compile() error {
	if t.Name == "" {
		return fmt.Errorf("template has no name")
	}
	escape := t.Escape
	if escape == "" {
		escape = "raw"
	}

	compiled, err := compilePattern(t.Pattern, escape)
	if err != nil {
		return fmt.Errorf("template %s: %w", t.Name, err)
	}

	declared := make(map[string]bool, len(t.Required)+len(t.Optional))
	for _, name := range t.Required {
		if declared[name] {
			return fmt.Errorf("template %s: parameter %q declared twice", t.Name, name)
		}
		declared[name] = true
	}
	for _, p := range t.Optional {
		if declared[p.Name] {
			return fmt.Errorf("template %s: parameter %q declared twice", t.Name, p.Name)
		}
		declared[p.Name] = true
	}
	for _, name := range compiled.params() {
		if !declared[name] {
			return fmt.Errorf("template %s: pattern uses undeclared parameter %q", t.Name, name)
		}
	}

	t.compiled = compiled
	return nil
}

// Resolve substitutes params into the template. Every required parameter
// must be present and non-empty; unknown parameters are ignored.
func (t *Template) Resolve(params map[string]string) (string, error) {
	var missing []string
	for _, name := range t.Required {
		if params[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", errors.MissingParameter(t.Name, missing[0]).
			WithContext("missing", missing)
	}

	defaults := make(map[string]string, len(t.Optional))
	for _, p := range t.Optional {
		defaults[p.Name] = p.Default
	}

	s := &scope{
		template: t.Name,
		value: func(name string) string {
			if v := params[name]; v != "" {
				return v
			}
			return defaults[name]
		},
	}

	return t.compiled.render(s)
}
