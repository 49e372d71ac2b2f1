package discord

import "unicode/utf8"

// ellipsis marks a truncated reply.
const ellipsis = "…"

// TruncateRunes shortens s to at most budget Unicode code points, appending
// an ellipsis when truncation happens. The engine has no notion of an output
// budget, so the chat layer enforces the platform limit here.
func TruncateRunes(s string, budget int) string {
	if budget <= 0 || utf8.RuneCountInString(s) <= budget {
		return s
	}

	n := 0
	for i := range s {
		if n == budget-1 {
			return s[:i] + ellipsis
		}
		n++
	}
	return s
}
