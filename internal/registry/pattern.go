package registry

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/conneroisu/virsqr/internal/errors"
)

// A pattern is a compiled payload format. The language is substitution
// only:
//
//	text        literal text; \ escapes the next character
//	{name}      parameter through the template's default escaper
//	{name|f|g}  parameter through filters f then g
//	{?a,b}      form-encoded query of the non-empty parameters, '?' prefixed
//	{&a,b}      the same, '&' prefixed
//	[...]       emitted only when every placeholder inside is non-empty
type pattern struct {
	source string
	nodes  []node
}

// scope is the evaluation environment for one Resolve call.
type scope struct {
	template string
	value    func(name string) string
}

type node interface {
	// eval appends the node's output to b. complete is false when a
	// placeholder in the node resolved empty.
	eval(s *scope, b *strings.Builder) (complete bool, err error)
	params() []string
}

type literal string

func (l literal) eval(_ *scope, b *strings.Builder) (bool, error) {
	b.WriteString(string(l))
	return true, nil
}

func (l literal) params() []string { return nil }

type placeholder struct {
	name    string
	filters []filter
}

func (p *placeholder) eval(s *scope, b *strings.Builder) (bool, error) {
	v := s.value(p.name)
	if v == "" {
		return false, nil
	}

	for _, f := range p.filters {
		var err error
		if v, err = f.apply(v); err != nil {
			return false, errors.InvalidParameter(s.template, p.name, err).
				WithContext("filter", f.name)
		}
	}

	b.WriteString(v)
	return v != "", nil
}

func (p *placeholder) params() []string { return []string{p.name} }

type queryExpansion struct {
	prefix string
	names  []string
}

func (q *queryExpansion) eval(s *scope, b *strings.Builder) (bool, error) {
	first := true
	for _, name := range q.names {
		v := s.value(name)
		if v == "" {
			continue
		}
		if first {
			b.WriteString(q.prefix)
			first = false
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v))
	}

	return true, nil
}

func (q *queryExpansion) params() []string { return q.names }

type optional struct {
	nodes []node
}

func (o *optional) eval(s *scope, b *strings.Builder) (bool, error) {
	var inner strings.Builder
	for _, n := range o.nodes {
		complete, err := n.eval(s, &inner)
		if err != nil {
			return false, err
		}
		if !complete {
			return true, nil
		}
	}

	b.WriteString(inner.String())
	return true, nil
}

func (o *optional) params() []string {
	var out []string
	for _, n := range o.nodes {
		out = append(out, n.params()...)
	}
	return out
}

func (p *pattern) render(s *scope) (string, error) {
	var b strings.Builder
	for _, n := range p.nodes {
		if _, err := n.eval(s, &b); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// params returns every parameter the pattern references, in order of
// appearance, without duplicates.
func (p *pattern) params() []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range p.nodes {
		for _, name := range n.params() {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// compilePattern parses src. defaultEscaper is appended to every
// placeholder whose filter chain has no escaper.
func compilePattern(src, defaultEscaper string) (*pattern, error) {
	esc, ok := filters[defaultEscaper]
	if !ok || !esc.escaper {
		return nil, fmt.Errorf("unknown default escaper %q", defaultEscaper)
	}

	c := &compiler{src: src, escaper: esc}
	nodes, err := c.sequence(false)
	if err != nil {
		return nil, err
	}

	return &pattern{source: src, nodes: nodes}, nil
}

type compiler struct {
	src     string
	pos     int
	escaper filter
}

func (c *compiler) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("pattern %q at offset %d: %s", c.src, c.pos, fmt.Sprintf(format, args...))
}

func (c *compiler) sequence(inOptional bool) ([]node, error) {
	var nodes []node
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			nodes = append(nodes, literal(text.String()))
			text.Reset()
		}
	}

	for c.pos < len(c.src) {
		ch := c.src[c.pos]
		switch ch {
		case '\\':
			if c.pos+1 >= len(c.src) {
				return nil, c.errorf("dangling escape")
			}
			text.WriteByte(c.src[c.pos+1])
			c.pos += 2

		case '{':
			flush()
			n, err := c.placeholder()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)

		case '[':
			flush()
			c.pos++
			inner, err := c.sequence(true)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &optional{nodes: inner})

		case ']':
			if !inOptional {
				return nil, c.errorf("unmatched ']'")
			}
			c.pos++
			flush()
			return nodes, nil

		case '}':
			return nil, c.errorf("unmatched '}'")

		default:
			text.WriteByte(ch)
			c.pos++
		}
	}

	if inOptional {
		return nil, c.errorf("unterminated optional segment")
	}

	flush()
	return nodes, nil
}

func (c *compiler) placeholder() (node, error) {
	start := c.pos + 1
	end := strings.IndexByte(c.src[start:], '}')
	if end < 0 {
		return nil, c.errorf("unterminated placeholder")
	}
	body := c.src[start : start+end]
	c.pos = start + end + 1

	if body == "" {
		return nil, c.errorf("empty placeholder")
	}

	if body[0] == '?' || body[0] == '&' {
		names := strings.Split(body[1:], ",")
		for _, name := range names {
			if !validParamName(name) {
				return nil, c.errorf("invalid parameter name %q in query expansion", name)
			}
		}
		return &queryExpansion{prefix: body[:1], names: names}, nil
	}

	parts := strings.Split(body, "|")
	if !validParamName(parts[0]) {
		return nil, c.errorf("invalid parameter name %q", parts[0])
	}

	p := &placeholder{name: parts[0]}
	escaped := false
	for _, name := range parts[1:] {
		f, ok := filters[name]
		if !ok {
			return nil, c.errorf("unknown filter %q", name)
		}
		if escaped {
			return nil, c.errorf("filter %q follows an escaper", name)
		}
		escaped = f.escaper
		p.filters = append(p.filters, f)
	}
	if !escaped {
		p.filters = append(p.filters, c.escaper)
	}

	return p, nil
}

func validParamName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if !('a' <= ch && ch <= 'z' || '0' <= ch && ch <= '9' || ch == '_') {
			return false
		}
	}
	return true
}

// escapeLiteral quotes s so it compiles to exactly itself.
func escapeLiteral(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '{', '}', '[', ']':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
