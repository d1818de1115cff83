// Package strings provides string slice utilities.
package strings

import (
	"strings"
)

// Dedupe removes exact duplicates from a slice while preserving order.
// Values are compared byte-for-byte; no trimming or case folding is applied.
//
// Example:
//
//	Dedupe([]string{"https://a.nl", "https://b.nl", "https://a.nl"})
//	// Returns: []string{"https://a.nl", "https://b.nl"}
func Dedupe(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}

	return result
}

// HasPrefixFold reports whether s begins with prefix, ignoring ASCII and
// Unicode case differences.
func HasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
