package isolation

import (
	"regexp"
	"strings"
)

// maxIdentifierLength is the Postgres limit for unquoted identifiers.
const maxIdentifierLength = 63

var invalidIdentChars = regexp.MustCompile(`[^a-z0-9_]`)

// SanitizeIdentifier hardens a tenant slug for use as a schema name in
// schema-qualifying statements, preventing identifier injection when a
// dedicated partition is activated or provisioned.
//
// Rules: lowercase, hyphens become underscores, every other character
// outside [a-z0-9_] is stripped, a "t_" prefix is forced when the
// result would not start with a letter, and the result is truncated to
// the Postgres identifier limit. An empty result is a security
// violation, not a fallback.
func SanitizeIdentifier(slug string) (string, error) {
	if slug == "" {
		return "", ErrInvalidIdentifier
	}

	s := strings.ToLower(slug)
	s = strings.ReplaceAll(s, "-", "_")
	s = invalidIdentChars.ReplaceAllString(s, "")

	if s != "" && (s[0] < 'a' || s[0] > 'z') {
		s = "t_" + s
	}

	if len(s) > maxIdentifierLength {
		s = s[:maxIdentifierLength]
	}

	if s == "" {
		return "", ErrInvalidIdentifier
	}
	return s, nil
}
