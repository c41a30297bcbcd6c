package utils

import "fmt"

// FormatDuration formats seconds into H:MM:SS format
func FormatDuration(totalSeconds int64) string {
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// FormatHoursMinutes formats seconds as whole hours and minutes, discarding
// the seconds remainder: 5400 -> "1h 30m"
func FormatHoursMinutes(totalSeconds int64) string {
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", h, m)
}
