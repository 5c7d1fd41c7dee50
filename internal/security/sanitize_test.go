package security

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitize_StripsShellMetacharacters(t *testing.T) {
	t.Parallel()

	input := `rm; cat & echo | $(whoami) ` + "`id`" + ` {a} [b] <c> 'd' "e"`
	got := Sanitize(input)

	for _, r := range shellMetaChars {
		if strings.ContainsRune(got, r) {
			t.Errorf("sanitized output still contains %q: %q", r, got)
		}
	}
}

func TestSanitize_DropsEscapeSequences(t *testing.T) {
	t.Parallel()

	// The backslash and the character following it are dropped in full.
	if got := Sanitize(`foo\nbar`); got != "foobar" {
		t.Errorf("Sanitize(foo\\nbar) = %q, want %q", got, "foobar")
	}
	if got := Sanitize(`trailing\`); got != "trailing" {
		t.Errorf("Sanitize(trailing\\) = %q, want %q", got, "trailing")
	}
}

func TestSanitize_WhitespaceHandling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"tab becomes space", "a\tb", "a b"},
		{"crlf removed", "a\r\nb", "ab"},
		{"runs collapsed", "a   b  \t c", "a b c"},
		{"trimmed", "  status  ", "status"},
		{"nul removed", "sta\x00tus", "status"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"status",
		"get item abc",
		`unlock; cat /etc/passwd`,
		"a\tb\r\nc",
		`back\slash`,
	}
	for _, in := range inputs {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Errorf("Sanitize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestSanitize_IsLossyNotRejecting(t *testing.T) {
	t.Parallel()

	// A password containing a semicolon is narrowed, not rejected.
	// Callers routing secrets through here must know content is altered.
	if got := Sanitize("p;ss&word"); got != "pssword" {
		t.Errorf("Sanitize(p;ss&word) = %q, want %q", got, "pssword")
	}
}

func TestValidateArg(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		arg     string
		wantErr bool
	}{
		{"plain", "item-name", false},
		{"shell chars are inert under argv", "a;b|c&d$(e)", false},
		{"empty", "", false},
		{"nul", "a\x00b", true},
		{"cr", "a\rb", true},
		{"lf", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateArg(tt.arg)
			if tt.wantErr && !errors.Is(err, ErrControlBytes) {
				t.Errorf("ValidateArg(%q) = %v, want ErrControlBytes", tt.arg, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateArg(%q) = %v, want nil", tt.arg, err)
			}
		})
	}
}

func TestSanitizeParams(t *testing.T) {
	t.Parallel()

	input := map[string]any{
		"name":     `<script>alert("x")</script>`,
		"'quoted'": "a&b",
		"count":    3,
		"active":   true,
		"nothing":  nil,
		"tags":     []any{"<b>", "plain", 7},
		"nested": map[string]any{
			"email": `"user"@example.com`,
		},
	}

	got, ok := SanitizeParams(input).(map[string]any)
	if !ok {
		t.Fatalf("SanitizeParams returned %T, want map[string]any", SanitizeParams(input))
	}

	if got["name"] != "scriptalert(x)/script" {
		t.Errorf("name = %q", got["name"])
	}
	if _, ok := got["quoted"]; !ok {
		t.Error("expected sanitized key 'quoted' to be present")
	}
	if got["quoted"] != "ab" {
		t.Errorf("quoted = %q", got["quoted"])
	}
	if got["count"] != 3 || got["active"] != true {
		t.Errorf("scalars altered: count=%v active=%v", got["count"], got["active"])
	}
	if got["nothing"] != nil {
		t.Errorf("nil altered: %v", got["nothing"])
	}

	tags := got["tags"].([]any)
	if tags[0] != "b" || tags[1] != "plain" || tags[2] != 7 {
		t.Errorf("tags = %v", tags)
	}

	nested := got["nested"].(map[string]any)
	if nested["email"] != "user@example.com" {
		t.Errorf("nested email = %q", nested["email"])
	}
}

func TestSanitizeParams_Scalars(t *testing.T) {
	t.Parallel()

	if got := SanitizeParams(nil); got != nil {
		t.Errorf("SanitizeParams(nil) = %v", got)
	}
	if got := SanitizeParams(42.5); got != 42.5 {
		t.Errorf("SanitizeParams(42.5) = %v", got)
	}
	if got := SanitizeParams(`a<b>"c"'d'&e`); got != "abcde" {
		t.Errorf("SanitizeParams(string) = %v", got)
	}
}
