package draftrace

import (
	"fmt"
	"strings"
)

// FormatTimeRemaining renders seconds until the reveal as "1d 2h 3m 4s",
// skipping leading zero units.
func FormatTimeRemaining(seconds int) string {
	if seconds <= 0 {
		return "0s"
	}

	days := seconds / 86400
	hours := seconds % 86400 / 3600
	minutes := seconds % 3600 / 60
	secs := seconds % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if days > 0 || hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if days > 0 || hours > 0 || minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", secs))
	return strings.Join(parts, " ")
}
