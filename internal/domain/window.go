package domain

import "time"

// rainfallDayStartHour is the local hour at which an observation day begins
// for rainfall accumulation.
const rainfallDayStartHour = 7

// SamplingInterval is the native reporting interval of the loggers. The
// expected-sample formulas divide by this grid regardless of a device's
// actual interval; a device on a slower native interval therefore never
// reaches 100% even when healthy. Kept as-is pending a calibration review.
const SamplingInterval = 5 * time.Minute

// SlotsPerDay is the number of sampling slots in a civil day.
const SlotsPerDay = 288

// RainfallWindow returns the accumulation window ending at now, truncated
// to the whole hour and anchored at 07:00 in the given zone. Before 07:00
// local the window starts at 07:00 of the previous calendar day.
func RainfallWindow(now time.Time, zone *time.Location) (start, end time.Time) {
	local := now.In(zone)
	end = time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, zone)

	anchor := end
	if local.Hour() < rainfallDayStartHour {
		anchor = anchor.AddDate(0, 0, -1)
	}
	start = time.Date(anchor.Year(), anchor.Month(), anchor.Day(), rainfallDayStartHour, 0, 0, 0, zone)
	return start, end
}

// CompletenessWindow returns the civil-day window 00:00–23:56 for the day
// containing t in the given zone. 23:56 is the last slot boundary the
// loggers can still deliver for the day.
func CompletenessWindow(t time.Time, zone *time.Location) (start, end time.Time) {
	local := t.In(zone)
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, zone)
	end = time.Date(local.Year(), local.Month(), local.Day(), 23, 56, 0, 0, zone)
	return start, end
}

// ExpectedSamples is the theoretical sample count for a window on the
// 5-minute grid.
func ExpectedSamples(start, end time.Time) float64 {
	return end.Sub(start).Seconds() / SamplingInterval.Seconds()
}
