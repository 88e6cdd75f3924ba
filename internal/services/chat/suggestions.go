package chat

import "strings"

// Suggestions returns quick replies for the assistant's text. The first matching group wins.
func Suggestions(reply string) []string {
	text := strings.ToLower(reply)

	switch {
	case strings.Contains(text, "weeks") || strings.Contains(text, "specify"):
		return []string{"2025-08-01 to 2025-11-30", "Last quarter", "Previous 3 months"}
	case strings.Contains(text, "proceed") || strings.Contains(text, "no data") || strings.Contains(text, "not available"):
		return []string{"yes, proceed", "no, cancel"}
	case strings.Contains(text, "analysis") || strings.Contains(text, "summary"):
		return []string{"Add following week", "Remove following week", "Show key risks"}
	}
	return []string{}
}
