// Package security provides the sanitization, redaction, and audit
// primitives that sit between untrusted tool arguments and the two
// execution surfaces (vault CLI subprocess, organization API).
package security

import (
	"errors"
	"fmt"
	"strings"
)

// shellMetaChars are characters that could change the structural
// interpretation of a command string if it ever reached a shell.
// Sanitize removes them outright rather than escaping them.
const shellMetaChars = ";&|`$(){}[]<>'\""

// controlBytes are bytes that can corrupt argument boundaries or enable
// log injection even under argv-based execution.
const controlBytes = "\x00\r\n"

// ErrControlBytes is returned by ValidateArg for arguments containing
// NUL, CR, or LF.
var ErrControlBytes = errors.New("argument contains control bytes")

// Sanitize narrows a free-text command string so it cannot alter the
// shape of a command. It removes NUL bytes, shell metacharacters, and
// backslash escape sequences (the backslash and the character following
// it), drops CR/LF, maps tabs to spaces, collapses whitespace runs to a
// single space, and trims the result.
//
// The transform is lossy and non-reversible: disallowed characters are
// silently removed, not rejected. Callers that need the original value
// preserved byte-for-byte must not route it through here.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	skipNext := false
	for _, r := range s {
		if skipNext {
			skipNext = false
			continue
		}
		switch {
		case r == '\\':
			// Drop the escape sequence in full.
			skipNext = true
		case r == 0, r == '\r', r == '\n':
		case r == '\t':
			b.WriteByte(' ')
		case strings.ContainsRune(shellMetaChars, r):
		default:
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// ValidateArg rejects argument values that contain structural control
// bytes (NUL, CR, LF). Under argv-based execution shell metacharacters
// are inert, so this is the only class of bytes that must never reach a
// subprocess inside a single argument. Unlike Sanitize, this check never
// modifies the value: a dangerous argument is an error, not a narrowing.
func ValidateArg(s string) error {
	if strings.ContainsAny(s, controlBytes) {
		return fmt.Errorf("%w: %q", ErrControlBytes, truncate(s, 64))
	}
	return nil
}

// markupChars are characters stripped from strings embedded in API
// request bodies. This targets markup and quote injection into a
// JSON-over-HTTP context and is deliberately narrower than the shell
// character set above.
const markupChars = `<>"'&`

// SanitizeParams recursively sanitizes a JSON-like value tree before it
// is serialized into a request body. Strings lose the characters in
// markupChars, arrays are mapped element-wise, maps have both keys and
// values sanitized, and every other scalar (including nil) passes
// through unchanged.
func SanitizeParams(v any) any {
	switch val := v.(type) {
	case string:
		return stripMarkup(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = SanitizeParams(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[stripMarkup(k)] = SanitizeParams(item)
		}
		return out
	default:
		return v
	}
}

func stripMarkup(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(markupChars, r) {
			return -1
		}
		return r
	}, s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
