package domain

import (
	"fmt"
	"math"
	"time"
)

// NoDataPhrase is reported when a location or device has no reading at all.
const NoDataPhrase = "no data yet"

// RecencyPhrase classifies the elapsed time since a reading into a
// human-readable bucket. Exactly one hour reads as "1 hour ago"; exactly
// seven days still reads as days.
func RecencyPhrase(now, last time.Time) string {
	elapsed := now.Sub(last)
	days := int(elapsed.Hours() / 24)

	switch {
	case days > 30:
		return "more than a month ago"
	case days > 7:
		return "more than a week ago"
	case days >= 1:
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	case elapsed < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(math.Round(elapsed.Minutes())))
	default:
		hours := int(math.Round(elapsed.Hours()))
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
}
