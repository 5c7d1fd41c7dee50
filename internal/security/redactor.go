package security

import (
	"strings"
	"sync"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// Redactor replaces known secret values in strings with a placeholder.
// vaultmcp handles exactly two long-lived secrets (the vault session
// token and the API client secret) plus short-lived bearer tokens, all
// registered as literals at wiring time or on token refresh.
// All methods are safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	literals []string
}

// NewRedactor creates an empty redactor.
func NewRedactor() *Redactor {
	return &Redactor{}
}

// AddLiteral registers a secret value to be redacted on sight.
// Empty values are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// Redact replaces every registered literal in s with RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	literals := r.literals
	r.mu.RUnlock()

	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, RedactPlaceholder)
		}
	}
	return s
}
