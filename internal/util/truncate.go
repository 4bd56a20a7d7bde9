package util

import "fmt"

// DefaultLogMaxLen is the default maximum length for truncated log output.
// Full message content stays in the messages table, logs only need a preview.
const DefaultLogMaxLen = 1024

// TruncateLog truncates long strings for log lines.
func TruncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + fmt.Sprintf("... [truncated, %d bytes total]", len(s))
}

// TruncateRunes cuts s to at most max runes without a suffix, safe for
// multi-byte text such as conversation titles.
func TruncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
