// Package validation screens payloads for exploit indicators before they are
// encoded, and checks the filesystem paths the CLI writes to.
//
// The payload screen is a best-effort filter. It catches the common shapes of
// script injection, markup injection and shell one-liners, it does not prove
// a payload safe.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/conneroisu/virsqr/internal/errors"
)

// MaxPayloadLength is the largest payload, in bytes, the default rules accept.
const MaxPayloadLength = 4096

// EICAR is the industry-standard antivirus self-test string. It is always
// allowed.
const EICAR = `X5O!P%@AP[4\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*`

// Rule is a single exploit indicator. Match receives the normalised payload,
// then the same form with line breaks and tabs dropped (or only the raw
// payload when Raw is set), and returns the offending text.
type Rule struct {
	Name        string
	Category    string
	Description string
	Raw         bool
	Match       func(payload string) (string, bool)
}

// Verdict is the outcome of screening one payload. The zero value is not
// meaningful; use Allowed to test it.
type Verdict struct {
	Allowed  bool
	Rule     string
	Category string
	Reason   string
	Match    string
}

// Err returns nil for an allowed payload and a PayloadRejected error
// otherwise.
func (v Verdict) Err() error {
	if v.Allowed {
		return nil
	}

	return errors.PayloadRejected(v.Rule, v.Category, v.Reason, v.Match)
}

// String renders the verdict for terminal output.
func (v Verdict) String() string {
	if v.Allowed {
		return "allowed"
	}

	return fmt.Sprintf("rejected: %s [%s] %s (matched %q)", v.Rule, v.Category, v.Reason, v.Match)
}

// Validator evaluates rules in order. It is immutable and safe for
// concurrent use.
type Validator struct {
	rules  []Rule
	benign map[string]struct{}
}

// New creates a validator over rules. Known benign payloads are allowed
// before any rule runs.
func New(rules ...Rule) *Validator {
	copied := make([]Rule, len(rules))
	copy(copied, rules)

	return &Validator{
		rules:  copied,
		benign: map[string]struct{}{EICAR: {}},
	}
}

// Rules returns a copy of the validator's rules in evaluation order.
func (v *Validator) Rules() []Rule {
	out := make([]Rule, len(v.rules))
	copy(out, v.rules)
	return out
}

// Validate screens data. The empty string is allowed.
func (v *Validator) Validate(data string) Verdict {
	if data == "" {
		return Verdict{Allowed: true}
	}
	if _, ok := v.benign[data]; ok {
		return Verdict{Allowed: true}
	}

	forms := []string{Normalize(data)}
	if compact := normalize(data, true); compact != forms[0] {
		forms = append(forms, compact)
	}

	for _, rule := range v.rules {
		inputs := forms
		if rule.Raw {
			inputs = []string{data}
		}
		for _, input := range inputs {
			if match, ok := rule.Match(input); ok {
				return Verdict{
					Rule:     rule.Name,
					Category: rule.Category,
					Reason:   rule.Description,
					Match:    match,
				}
			}
		}
	}

	return Verdict{Allowed: true}
}

var defaultValidator = New(DefaultRules()...)

// Validate screens data with the default rules.
func Validate(data string) Verdict {
	return defaultValidator.Validate(data)
}

// fold case-folds s. Casers are not safe for concurrent use.
func fold(s string) string { return cases.Fold().String(s) }

// Normalize maps data to the form rules match against: NFKC, every
// whitespace rune replaced by a space, other control and format characters
// removed, case folded.
func Normalize(data string) string {
	return normalize(data, false)
}

// normalize is Normalize, optionally dropping tab, CR and LF the way URL
// parsers do so that "java\tscript:" still reads as a scheme.
func normalize(data string, dropBreaks bool) string {
	composed := norm.NFKC.String(data)

	mapped := strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			if dropBreaks {
				return -1
			}
			return ' '
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r) || unicode.Is(unicode.Cf, r):
			return -1
		}
		return r
	}, composed)

	return fold(mapped)
}

// RegexRule builds a case-insensitive rule from a regular expression. It
// panics if pattern does not compile.
func RegexRule(name, category, description, pattern string) Rule {
	re := regexp.MustCompile(`(?i)` + pattern)

	return Rule{
		Name:        name,
		Category:    category,
		Description: description,
		Match: func(s string) (string, bool) {
			m := re.FindString(s)
			return m, m != ""
		},
	}
}

// SubstringRule builds a case-insensitive rule matching any of needles. The
// reported match is the text as it appears in the input.
func SubstringRule(name, category, description string, needles ...string) Rule {
	quoted := make([]string, len(needles))
	for i, n := range needles {
		quoted[i] = regexp.QuoteMeta(fold(n))
	}
	re := regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`)

	return Rule{
		Name:        name,
		Category:    category,
		Description: description,
		Match: func(s string) (string, bool) {
			loc := re.FindStringIndex(s)
			if loc == nil {
				return "", false
			}
			return s[loc[0]:loc[1]], true
		},
	}
}

// MaxLengthRule rejects payloads longer than limit bytes.
func MaxLengthRule(limit int) Rule {
	return Rule{
		Name:        "max-length",
		Category:    "oversize",
		Description: fmt.Sprintf("payload exceeds %d bytes", limit),
		Raw:         true,
		Match: func(s string) (string, bool) {
			if len(s) > limit {
				return fmt.Sprintf("%d bytes", len(s)), true
			}
			return "", false
		},
	}
}

// domEvents lists handler names recognised after query and argument
// separators, where a generic on* prefix would catch ordinary parameters.
const domEvents = `(?:abort|animation[a-z]+|auxclick|beforeunload|blur|change|click|contextmenu|` +
	`copy|cut|dblclick|drag[a-z]*|drop|error|focus[a-z]*|hashchange|input|invalid|` +
	`key(?:down|press|up)|load|message|mouse[a-z]+|paste|pointer[a-z]+|popstate|` +
	`reset|resize|scroll|select|submit|toggle|touch[a-z]+|transition[a-z]+|unload|wheel)`

// DefaultRules returns the built-in rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		MaxLengthRule(MaxPayloadLength),
		RegexRule("script-uri", "script-uri",
			"script URI scheme",
			`\b(?:java|vb|live)script\s*:`),
		RegexRule("data-html-uri", "script-uri",
			"data URI carrying active content",
			`\bdata\s*:\s*(?:text/html|application/xhtml|image/svg\+xml)`),
		RegexRule("script-tag", "markup-injection",
			"script tag",
			`<\s*script\b`),
		RegexRule("active-markup-tag", "markup-injection",
			"active HTML element",
			`<\s*(?:iframe|object|embed|svg|img|meta|link|base|form)\b`),
		RegexRule("event-handler", "event-handler",
			"inline event handler attribute",
			`(?:^|[\s"'/<;])on[a-z]+\s*=|[&?,(]on`+domEvents+`\s*=`),
		SubstringRule("css-expression", "xss",
			"CSS script binding",
			"expression(", "-moz-binding"),
		RegexRule("dom-sink", "xss",
			"DOM injection sink",
			`document\s*\.\s*(?:cookie|write)|\beval\s*\(|string\s*\.\s*fromcharcode`),
		RegexRule("shell-binary", "command-injection",
			"shell interpreter reference",
			`\b(?:cmd|powershell)\.exe\b|/bin/(?:ba)?sh\b`),
		RegexRule("sensitive-path", "path-disclosure",
			"sensitive system file",
			`/etc/(?:passwd|shadow)\b`),
		RegexRule("destructive-command", "command-injection",
			"recursive forced delete",
			`\brm\s+-[a-z]*(?:rf|fr)[a-z]*\b`),
		RegexRule("pipe-to-shell", "command-injection",
			"download piped into a shell",
			`\b(?:curl|wget)\s+[^|\n]*\|\s*(?:sudo\s+)?(?:ba)?sh\b`),
	}
}
