// Package orgapi translates validated tool requests into authenticated
// calls against the organization-management Public API. Every request
// passes an endpoint-shape allowlist before any network I/O, and every
// body string is sanitized before serialization.
package orgapi

import (
	"regexp"

	"github.com/google/uuid"
)

// uuidShape matches the canonical 36-character 8-4-4-4-12 hex form.
// Matches are additionally parsed with the uuid package so a hex-shaped
// but invalid identifier cannot slip through.
const uuidShape = `([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})`

// endpointPatterns is the fixed allowlist of permitted path shapes.
// Each pattern encodes both the literal resource prefix and the
// permitted identifier shape. Only the events pattern admits a query
// string. Anything not matching exactly one of these is rejected.
var endpointPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^/public/collections$`),
	regexp.MustCompile(`^/public/collections/` + uuidShape + `$`),
	regexp.MustCompile(`^/public/members$`),
	regexp.MustCompile(`^/public/members/` + uuidShape + `$`),
	regexp.MustCompile(`^/public/members/` + uuidShape + `/group-ids$`),
	regexp.MustCompile(`^/public/members/` + uuidShape + `/reinvite$`),
	regexp.MustCompile(`^/public/groups$`),
	regexp.MustCompile(`^/public/groups/` + uuidShape + `$`),
	regexp.MustCompile(`^/public/groups/` + uuidShape + `/member-ids$`),
	regexp.MustCompile(`^/public/policies$`),
	regexp.MustCompile(`^/public/policies/([0-9]|1[0-5])$`),
	regexp.MustCompile(`^/public/events(?:\?.*)?$`),
	regexp.MustCompile(`^/public/organization/subscription$`),
	regexp.MustCompile(`^/public/organization/import$`),
}

// ValidateEndpoint reports whether path matches one of the allowlisted
// endpoint shapes. Semantically valid but unregistered paths are
// rejected; this is a default-deny surface.
func ValidateEndpoint(path string) bool {
	for _, pattern := range endpointPatterns {
		m := pattern.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		// A captured identifier that looks like a UUID must also parse
		// as one.
		if len(m) > 1 && m[1] != "" && len(m[1]) == 36 {
			if _, err := uuid.Parse(m[1]); err != nil {
				return false
			}
		}
		return true
	}
	return false
}
