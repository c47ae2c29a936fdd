// Package pathguard validates and sanitizes user-supplied file and folder
// names before they are allowed anywhere near the vault.
package pathguard

import (
	"regexp"
	"strings"
)

// reservedRe matches characters that are illegal in note and folder names:
// Windows-reserved punctuation plus ASCII control characters.
var reservedRe = regexp.MustCompile(`[<>:"|?*\x00-\x1f]`)

// IsValidName reports whether name is safe to use as a single path segment.
// It rejects empty or whitespace-only names, traversal sequences, path
// separators, leading dots, and reserved characters.
func IsValidName(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	return !reservedRe.MatchString(name)
}

// SanitizeFileName strips traversal sequences, path separators, and reserved
// characters from name and trims surrounding whitespace. It normalizes user
// input rather than rejecting it, but the result can still be invalid (for
// example empty), so callers must re-validate with IsValidName afterward.
func SanitizeFileName(name string) string {
	s := strings.ReplaceAll(name, "/", "")
	s = strings.ReplaceAll(s, `\`, "")
	s = reservedRe.ReplaceAllString(s, "")
	// Removing a pair can butt two remaining dots together, so repeat.
	for strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", "")
	}
	return strings.TrimSpace(s)
}

// Clean runs sanitize-then-validate in one step. It returns the sanitized
// name and true when the result is usable, or "" and false otherwise.
func Clean(name string) (string, bool) {
	s := SanitizeFileName(name)
	if !IsValidName(s) {
		return "", false
	}
	return s, true
}
