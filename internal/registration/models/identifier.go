package models

import (
	"regexp"
	"strings"
)

// urnNBNPattern recognizes Dutch URN:NBN identifiers:
// urn:nbn:nl[:<2-letter subauthority>]:<2-digit number>-<suffix>.
// Only the start is anchored; the suffix is any non-empty remainder.
var urnNBNPattern = regexp.MustCompile(`^[uU][rR][nN]:[nN][bB][nN]:[nN][lL](:[a-zA-Z]{2})?:[0-9]{2}-.+`)

// IsValidIdentifier reports whether s is a well-formed URN:NBN identifier.
// Case and any #fragment are validated as given; nothing is normalized.
func IsValidIdentifier(s string) bool {
	return urnNBNPattern.MatchString(s)
}

// Unfragment strips everything from the first '#'. Write paths store and
// compare identifiers in this form; read paths use identifiers verbatim.
func Unfragment(identifier string) string {
	before, _, _ := strings.Cut(identifier, "#")
	return before
}
