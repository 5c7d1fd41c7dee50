// Package vaultcli translates validated tool requests into safe
// invocations of the local password-vault CLI. Execution is uniformly
// argv-based: no shell is ever involved, the leading token must be on a
// fixed verb allowlist, and every token is checked for structural
// control bytes immediately before the subprocess is created.
package vaultcli

import "slices"

// allowedCommands is the fixed set of permitted vault CLI verbs.
// Matching is exact and case-sensitive; anything else is rejected.
var allowedCommands = map[string]struct{}{
	"lock":            {},
	"unlock":          {},
	"sync":            {},
	"status":          {},
	"list":            {},
	"get":             {},
	"generate":        {},
	"create":          {},
	"edit":            {},
	"delete":          {},
	"confirm":         {},
	"move":            {},
	"device-approval": {},
	"send":            {},
	"restore":         {},
	"import":          {},
	"export":          {},
	"serve":           {},
	"config":          {},
	"login":           {},
	"logout":          {},
}

// IsAllowedCommand reports whether verb is exactly one of the permitted
// vault CLI verbs. Empty input and case variations are rejected.
func IsAllowedCommand(verb string) bool {
	_, ok := allowedCommands[verb]
	return ok
}

// AllowedCommands returns the sorted allowlist, for diagnostics and
// tool documentation.
func AllowedCommands() []string {
	verbs := make([]string, 0, len(allowedCommands))
	for verb := range allowedCommands {
		verbs = append(verbs, verb)
	}
	slices.Sort(verbs)
	return verbs
}
