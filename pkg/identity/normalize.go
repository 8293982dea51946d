package identity

import "strings"

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func NormalizeName(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeNIC upper-cases the trailing V/X letter of old-format numbers.
func NormalizeNIC(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizePhone rewrites the accepted prefixes (none, 0, 94, +94) to the
// local 0-prefixed form so that one number has one stored spelling.
// Input that is not a nine-digit subscriber number after stripping the
// prefix is returned trimmed but otherwise unchanged.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	rest := s
	switch {
	case strings.HasPrefix(rest, "+94"):
		rest = rest[3:]
	case strings.HasPrefix(rest, "94") && len(rest) == 11:
		rest = rest[2:]
	case strings.HasPrefix(rest, "0"):
		rest = rest[1:]
	}
	if len(rest) != 9 || !allDigits(rest) {
		return s
	}
	return "0" + rest
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
