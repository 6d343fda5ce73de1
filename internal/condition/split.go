package condition

import "strings"

// splitOutsideQuotes splits s on sep, ignoring separators inside double quotes.
func splitOutsideQuotes(s string, sep byte) []string {
	var parts []string
	inQuotes := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuotes = !inQuotes
		case sep:
			if !inQuotes {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// closingParen returns the index of the first ')' after open that is not
// inside double quotes, or -1.
func closingParen(s string, open int) int {
	inQuotes := false
	for i := open + 1; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuotes = !inQuotes
		case ')':
			if !inQuotes {
				return i
			}
		}
	}
	return -1
}

func splitArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := splitOutsideQuotes(s, ',')
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
