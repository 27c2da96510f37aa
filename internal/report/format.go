package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/widoyo/pbase-gto/internal/domain"
)

// noLocationsLine replaces an otherwise empty report body.
const noLocationsLine = "no locations recorded"

const (
	dateLayout     = "02 Jan 2006"
	clockLayout    = "15:04"
	dateTimeLayout = "02 Jan 2006, 15:04"
)

// RainfallLine is one location's row in the rainfall report.
type RainfallLine struct {
	Name    string
	Summary RainfallSummary
	Recency string
}

// FormatRainfallReport renders the accumulated-rain report for one tenant.
// start and end are already in the tenant's local zone.
func FormatRainfallReport(start, end time.Time, lines []RainfallLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Rainfall %s*\n", end.Format(dateLayout))
	fmt.Fprintf(&b, "%s - %s\n", start.Format(clockLayout), end.Format(clockLayout))

	if len(lines) == 0 {
		b.WriteString("\n" + noLocationsLine)
		return b.String()
	}

	for i, l := range lines {
		rain := "no rain"
		if l.Summary.Rain > 0 {
			rain = fmt.Sprintf("%.2f mm over %d minutes", l.Summary.Rain, l.Summary.DurationMinutes)
		}
		fmt.Fprintf(&b, "\n%d. %s : %s", i+1, l.Name, rain)
		fmt.Fprintf(&b, "\n     %.2f%%, last data %s\n", l.Summary.Percent, l.Recency)
	}
	return b.String()
}

// WaterLevelLine is one location's row in the water-level report.
type WaterLevelLine struct {
	Name     string
	Level    *float64   // cm; nil with a nil Sampling means no data at all
	Sampling *time.Time // reading's own timestamp, tenant-local
	Recency  string
}

// FormatWaterLevelReport renders the latest water-level report for one
// tenant.
func FormatWaterLevelReport(lines []WaterLevelLine) string {
	var b strings.Builder
	b.WriteString("*Water Level*\n")

	if len(lines) == 0 {
		b.WriteString("\n" + noLocationsLine)
		return b.String()
	}

	for i, l := range lines {
		if l.Sampling == nil {
			fmt.Fprintf(&b, "\n%d. %s : %s\n", i+1, l.Name, domain.NoDataPhrase)
			continue
		}
		level := "-"
		if l.Level != nil {
			level = fmt.Sprintf("%.2f", *l.Level)
		}
		fmt.Fprintf(&b, "\n%d. %s : %s, %s", i+1, l.Name, level, l.Recency)
		fmt.Fprintf(&b, "\n     (%s)\n", l.Sampling.Format(dateTimeLayout))
	}
	return b.String()
}

// CompletenessLine is one location's row in the data-arrival report.
type CompletenessLine struct {
	Name     string
	Category domain.Category
	Percent  float64
}

// FormatArrivalReport renders the daily data-arrival report for one tenant:
// per-category aggregate lines followed by that category's locations.
// start and end are already in the tenant's local zone.
func FormatArrivalReport(tenantName string, start, end time.Time, lines []CompletenessLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n*Data Arrival*\n", tenantName)
	fmt.Fprintf(&b, "%s (%s - %s)\n", start.Format(dateLayout), start.Format(clockLayout), end.Format(clockLayout))

	if len(lines) == 0 {
		b.WriteString("\n" + noLocationsLine)
		return b.String()
	}

	order := []domain.Category{
		domain.CategoryRainGauge,
		domain.CategoryWaterLevel,
		domain.CategoryClimate,
		domain.CategoryOther,
	}
	for _, cat := range order {
		var members []CompletenessLine
		var percents []float64
		for _, l := range lines {
			if l.Category == cat {
				members = append(members, l)
				percents = append(percents, l.Percent)
			}
		}
		if len(members) == 0 {
			continue
		}

		fmt.Fprintf(&b, "\n*%s: %.1f%%*\n", cat.Label(), Mean(percents))
		for i, l := range members {
			fmt.Fprintf(&b, "%d. %s: *%.1f%%*\n", i+1, l.Name, l.Percent)
		}
	}
	return b.String()
}
