package tools

import (
	"unicode/utf8"
)

// Ellipsis marks truncated tool output. It counts toward the limit.
const Ellipsis = "..."

// Truncate caps s at limit runes including the Ellipsis marker, so a truncated
// result is exactly limit runes long. limit <= 0 returns s unchanged. When limit
// is too small to hold the marker, the first limit runes are returned bare.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	marker := utf8.RuneCountInString(Ellipsis)
	if limit <= marker {
		return string(r[:limit])
	}
	return string(r[:limit-marker]) + Ellipsis
}
