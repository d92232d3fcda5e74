package service

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

// sanitizeUTF8 removes invalid UTF-8 sequences from string
// This prevents database encoding errors when saving text
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	var result strings.Builder
	result.Grow(len(s))

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		result.WriteRune(r)
		s = s[size:]
	}

	return result.String()
}

// truncateRunes returns the first n characters of s and whether anything was cut.
func truncateRunes(s string, n int) (string, bool) {
	if utf8.RuneCountInString(s) <= n {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:n]), true
}

// excerpt truncates s to n characters, appending an ellipsis when cut.
func excerpt(s string, n int) string {
	out, cut := truncateRunes(s, n)
	if cut {
		return out + ellipsis
	}
	return out
}

// baseName drops any client-side directory part from an upload name.
func baseName(name string) string {
	return name[strings.LastIndexAny(name, `/\`)+1:]
}

// fileExtension is the lowercased text after the last '.', or "" when the
// name has no dot.
func fileExtension(name string) string {
	name = baseName(name)
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// stripExtension removes the final ".ext" from name.
func stripExtension(name string) string {
	name = baseName(name)
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i]
	}
	return name
}
