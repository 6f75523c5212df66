package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// filter transforms or escapes a placeholder value. Escapers adapt a value
// to the payload syntax; a placeholder chain without one gets the
// template's default escaper appended.
type filter struct {
	name    string
	escaper bool
	apply   func(string) (string, error)
}

// Casers carry state, so each call gets its own.
func upper(s string) string { return cases.Upper(language.Und).String(s) }

func lower(s string) string { return cases.Lower(language.Und).String(s) }

var filters = map[string]filter{
	// transforms
	"upper":     transform("upper", upper),
	"lower":     transform("lower", lower),
	"trimat":    transform("trimat", func(s string) string { return strings.TrimLeft(s, "@") }),
	"trimplus":  transform("trimplus", func(s string) string { return strings.TrimLeft(s, "+") }),
	"trimslash": transform("trimslash", func(s string) string { return strings.TrimLeft(s, "/") }),
	"trimquery": transform("trimquery", func(s string) string { return strings.TrimLeft(s, "?") }),
	"appid":     transform("appid", appID),
	"flag":      transform("flag", flag),
	"https":     {name: "https", apply: func(s string) (string, error) { return ensureScheme(s, "https") }},
	"http":      {name: "http", apply: func(s string) (string, error) { return ensureScheme(s, "http") }},
	"json":      {name: "json", apply: minifyJSON},
	"tel":       {name: "tel", apply: telNumber},

	// escapers
	"raw":    escaper("raw", func(s string) string { return s }),
	"path":   escaper("path", pathEscape),
	"query":  escaper("query", url.QueryEscape),
	"wifi":   escaper("wifi", backslashEscaper(`\`, `;`, `,`, `:`, `"`)),
	"mecard": escaper("mecard", backslashEscaper(`\`, `;`, `:`, `,`)),
	"vcard":  escaper("vcard", textValueEscape),
	"ical":   escaper("ical", textValueEscape),
	"line":   escaper("line", stripLineBreaks),
	"mailto": escaper("mailto", mailtoAddressEscape),
	"md":     escaper("md", backslashEscaper(`\`, `[`, `]`)),
	"mdurl":  escaper("mdurl", markdownURLEscape),
}

func transform(name string, fn func(string) string) filter {
	return filter{name: name, apply: func(s string) (string, error) { return fn(s), nil }}
}

func escaper(name string, fn func(string) string) filter {
	return filter{name: name, escaper: true, apply: func(s string) (string, error) { return fn(s), nil }}
}

// FilterNames returns the names of all filters usable in patterns.
func FilterNames() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func appID(s string) string {
	return strings.TrimPrefix(lower(s), "id")
}

func flag(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return "true"
	default:
		return ""
	}
}

// ensureScheme forces raw onto scheme, replacing any scheme it already has.
func ensureScheme(raw, scheme string) (string, error) {
	var result string
	switch {
	case strings.Contains(raw, "://"):
		result = scheme + raw[strings.Index(raw, "://"):]
	case strings.HasPrefix(raw, "//"):
		result = scheme + ":" + raw
	default:
		result = scheme + "://" + raw
	}

	u, err := url.Parse(result)
	if err != nil {
		return "", fmt.Errorf("not a valid URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL %q has no host", raw)
	}

	return result, nil
}

func minifyJSON(s string) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return "", fmt.Errorf("malformed JSON: %w", err)
	}
	return buf.String(), nil
}

// telNumber drops whitespace from a phone number and rejects anything other
// than digits, a leading '+' and the separators - . ( ).
func telNumber(s string) (string, error) {
	n := strings.Join(strings.Fields(s), "")
	digits := 0
	for i, r := range n {
		switch {
		case '0' <= r && r <= '9':
			digits++
		case r == '-' || r == '.' || r == '(' || r == ')':
		case r == '+' && i == 0:
		default:
			return "", fmt.Errorf("phone number contains %q", r)
		}
	}
	if digits == 0 {
		return "", fmt.Errorf("phone number %q has no digits", s)
	}
	return n, nil
}

const upperHex = "0123456789ABCDEF"

// pathEscape percent-encodes every byte outside the unreserved set, keeping
// '/' so multi-segment values stay readable.
func pathEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || c == '/' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
		c == '-' || c == '_' || c == '.' || c == '~'
}

func backslashEscaper(specials ...string) func(string) string {
	pairs := make([]string, 0, len(specials)*2)
	for _, s := range specials {
		pairs = append(pairs, s, `\`+s)
	}
	r := strings.NewReplacer(pairs...)
	return r.Replace
}

var textValueReplacer = strings.NewReplacer(
	`\`, `\\`,
	`;`, `\;`,
	`,`, `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", "",
)

// textValueEscape escapes a vCard or iCalendar TEXT value.
func textValueEscape(s string) string {
	return textValueReplacer.Replace(s)
}

var lineBreakStripper = strings.NewReplacer("\r", "", "\n", "")

func stripLineBreaks(s string) string {
	return lineBreakStripper.Replace(s)
}

var mailtoAddressReplacer = strings.NewReplacer(
	"%", "%25",
	"?", "%3F",
	"#", "%23",
	"&", "%26",
	" ", "%20",
	"\r", "",
	"\n", "",
)

// mailtoAddressEscape keeps an address inside the mailto path so it cannot
// open the header section.
func mailtoAddressEscape(s string) string {
	return mailtoAddressReplacer.Replace(s)
}

var markdownURLReplacer = strings.NewReplacer(
	"(", "%28",
	")", "%29",
	" ", "%20",
	"\r", "",
	"\n", "",
)

func markdownURLEscape(s string) string {
	return markdownURLReplacer.Replace(s)
}
