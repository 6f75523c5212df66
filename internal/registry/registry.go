// Package registry holds the catalog of payload templates and resolves a
// template plus parameters into the data string that gets encoded.
package registry

import (
	"fmt"
	"sort"

	"github.com/conneroisu/virsqr/internal/errors"
)

// TemplateRegistry indexes templates by name. It is built once and is
// read-only afterwards, so concurrent lookups need no locking.
type TemplateRegistry struct {
	templates map[string]*Template
	sorted    []*Template
}

// NewTemplateRegistry compiles and registers templates.
func NewTemplateRegistry(templates ...*Template) (*TemplateRegistry, error) {
	r := &TemplateRegistry{
		templates: make(map[string]*Template, len(templates)),
	}

	for _, t := range templates {
		if err := t.compile(); err != nil {
			return nil, err
		}
		if _, exists := r.templates[t.Name]; exists {
			return nil, fmt.Errorf("duplicate template %s", t.Name)
		}
		r.templates[t.Name] = t
		r.sorted = append(r.sorted, t)
	}

	sort.Slice(r.sorted, func(i, j int) bool {
		return r.sorted[i].Name < r.sorted[j].Name
	})

	return r, nil
}

// MustNewTemplateRegistry is NewTemplateRegistry that panics on error.
func MustNewTemplateRegistry(templates ...*Template) *TemplateRegistry {
	r, err := NewTemplateRegistry(templates...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get retrieves a template by name
func (r *TemplateRegistry) Get(name string) (*Template, bool) {
	t, ok := r.templates[name]
	return t, ok
}

// List returns all templates sorted by name. Callers must not modify them.
func (r *TemplateRegistry) List() []*Template {
	out := make([]*Template, len(r.sorted))
	copy(out, r.sorted)
	return out
}

// Count returns the number of registered templates
func (r *TemplateRegistry) Count() int {
	return len(r.sorted)
}

// ByCategory returns the templates in category, sorted by name.
func (r *TemplateRegistry) ByCategory(category string) []*Template {
	var out []*Template
	for _, t := range r.sorted {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// Categories returns the distinct categories, sorted.
func (r *TemplateRegistry) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range r.sorted {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Resolve builds the payload for the named template.
func (r *TemplateRegistry) Resolve(name string, params map[string]string) (string, error) {
	t, ok := r.templates[name]
	if !ok {
		return "", errors.UnknownTemplate(name)
	}
	return t.Resolve(params)
}

var defaultRegistry = MustNewTemplateRegistry(catalog()...)

// Default returns the built-in catalog.
func Default() *TemplateRegistry { return defaultRegistry }

// List returns the built-in templates sorted by name.
func List() []*Template { return defaultRegistry.List() }

// Get looks up a built-in template.
func Get(name string) (*Template, bool) { return defaultRegistry.Get(name) }

// Resolve builds a payload from a built-in template.
func Resolve(name string, params map[string]string) (string, error) {
	return defaultRegistry.Resolve(name, params)
}
