// Package sanitize cleans user- and server-supplied strings before they
// become filenames or single-line display fields:
//   - path separators and reserved filename characters are replaced
//   - invisible Unicode characters (zero-width spaces, etc.) are removed
//   - runs of whitespace collapse to a single space
package sanitize

import (
	"regexp"
	"strings"
)

var reservedFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// Filename makes a string safe to use as a local filename. Reserved
// characters become underscores; the result is trimmed and never empty.
func Filename(name string) string {
	name = removeInvisibleChars(name)
	name = reservedFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if name == "" {
		return "download"
	}
	return name
}

// Field normalizes a free-text field to a single display line.
func Field(s string) string {
	if s == "" {
		return s
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\n", " ")
	s = removeInvisibleChars(s)
	s = normalizeWhitespace(s)

	return strings.TrimSpace(s)
}

// removeInvisibleChars removes zero-width and other invisible Unicode characters
func removeInvisibleChars(s string) string {
	invisibleChars := []string{
		"\u200B", // Zero-width space
		"\u200C", // Zero-width non-joiner
		"\u200D", // Zero-width joiner
		"\uFEFF", // Zero-width no-break space (BOM)
		"\u00AD", // Soft hyphen
		"\u2060", // Word joiner
		"\u180E", // Mongolian vowel separator
	}

	for _, char := range invisibleChars {
		s = strings.ReplaceAll(s, char, "")
	}

	return s
}

// normalizeWhitespace replaces sequences of whitespace with single spaces
func normalizeWhitespace(s string) string {
	re := regexp.MustCompile(`[ \t]+`)
	return re.ReplaceAllString(s, " ")
}
