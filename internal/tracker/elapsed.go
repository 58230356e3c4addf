package tracker

import (
	"fmt"
	"strings"
	"time"
)

// FormatElapsed renders a wait duration for notification text: the one
// or two most significant non-zero units of days, hours, and minutes,
// comma separated ("1 day, 2 hours"). Anything under a minute renders
// as "less than a minute".
func FormatElapsed(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, pluralize(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, pluralize(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, pluralize(minutes, "minute"))
	}

	if len(parts) > 2 {
		parts = parts[:2]
	}

	return strings.Join(parts, ", ")
}

// pluralize renders a count with its unit, adding "s" past one.
func pluralize(count int, unit string) string {
	if count == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", count, unit)
}
