package task

import (
	"fmt"
	"strings"
)

// NormalizeDuration converts an HH:MM duration to the ISO-8601 form the wire
// protocol expects (PT1H30M). Already-ISO values pass through unchanged, so
// the function is safe to apply on every outbound send.
func NormalizeDuration(d string) string {
	if d == "" {
		return ""
	}
	if strings.Contains(d, "P") && strings.Contains(d, "T") {
		return d
	}
	parts := strings.SplitN(d, ":", 2)
	if len(parts) != 2 {
		return d
	}
	var hours, minutes int
	if _, err := fmt.Sscanf(d, "%d:%d", &hours, &minutes); err != nil {
		return d
	}
	return fmt.Sprintf("PT%dH%dM", hours, minutes)
}

// FormatDuration converts an ISO-8601 duration back to the HH:MM form shown
// in task views. Values that are not ISO durations are returned as-is.
func FormatDuration(d string) string {
	if d == "" {
		return ""
	}
	var hours, minutes int
	if _, err := fmt.Sscanf(d, "PT%dH%dM", &hours, &minutes); err != nil {
		return d
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}
