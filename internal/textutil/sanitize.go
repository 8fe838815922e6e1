package textutil

import "strings"

var unsafeNameChars = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a display name safe to use as a filename. Path
// separators and similar characters become dashes, shell-hostile characters
// are dropped, and surrounding whitespace is trimmed.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(unsafeNameChars.Replace(name))
}

// SanitizeToken lowercases a prompt fragment into a filesystem token of
// letters, digits, hyphens, and underscores. Anything else maps to an
// underscore. Empty or fully stripped input yields "unknown".
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, value)
	mapped = strings.Trim(mapped, "_-")
	if mapped == "" {
		return "unknown"
	}
	return mapped
}
