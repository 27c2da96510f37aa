// Package report computes windowed statistics over persisted readings and
// renders them into per-tenant status reports.
package report

import (
	"context"
	"math"
	"time"

	"github.com/widoyo/pbase-gto/internal/domain"
)

// Repository is the narrow read-only view of storage the report engine
// consumes.
type Repository interface {
	ListTenants(ctx context.Context) ([]domain.Tenant, error)
	LocationsByTenant(ctx context.Context, tenantID int64, categories ...domain.Category) ([]domain.Location, error)
	LatestReading(ctx context.Context, locationID int64) (*domain.Reading, error)
	SumRainInWindow(ctx context.Context, locationID int64, start, end time.Time) (sum float64, count int, err error)
	CountInWindow(ctx context.Context, locationID int64, start, end time.Time) (int, error)
}

// RainfallSummary is the windowed accumulation for one location.
type RainfallSummary struct {
	Rain            float64 // mm over the window
	DurationMinutes int     // 5 minutes per observed sample
	Percent         float64 // observed share of the 5-minute grid, 2 decimals
}

// Engine runs the three aggregation queries. All computations are read-only
// and tolerate readings appearing mid-run; reports are advisory.
type Engine struct {
	repo Repository
}

// NewEngine creates an aggregation engine over a repository.
func NewEngine(repo Repository) *Engine {
	return &Engine{repo: repo}
}

// RainfallSummary sums rainfall for a location over [start, end] and
// derives duration and grid coverage from the sample count.
func (e *Engine) RainfallSummary(ctx context.Context, locationID int64, start, end time.Time) (RainfallSummary, error) {
	sum, count, err := e.repo.SumRainInWindow(ctx, locationID, start, end)
	if err != nil {
		return RainfallSummary{}, err
	}

	percent := 0.0
	if expected := domain.ExpectedSamples(start, end); expected > 0 {
		percent = round(float64(count)/expected*100, 2)
	}
	return RainfallSummary{
		Rain:            sum,
		DurationMinutes: 5 * count,
		Percent:         percent,
	}, nil
}

// Latest returns a location's most recent reading together with its recency
// phrase. A location without data returns a nil reading and the no-data
// phrase.
func (e *Engine) Latest(ctx context.Context, locationID int64) (*domain.Reading, string, error) {
	latest, err := e.repo.LatestReading(ctx, locationID)
	if err != nil {
		return nil, "", err
	}
	if latest == nil {
		return nil, domain.NoDataPhrase, nil
	}
	return latest, domain.RecencyPhrase(domain.Clock().Now(), latest.Sampling), nil
}

// Completeness returns the share of the 288 daily slots a location actually
// delivered inside [start, end], rounded to 1 decimal.
func (e *Engine) Completeness(ctx context.Context, locationID int64, start, end time.Time) (float64, error) {
	count, err := e.repo.CountInWindow(ctx, locationID, start, end)
	if err != nil {
		return 0, err
	}
	return round(float64(count)/domain.SlotsPerDay*100, 1), nil
}

// Mean averages per-location percentages for a category aggregate line.
func Mean(percents []float64) float64 {
	if len(percents) == 0 {
		return 0
	}
	var sum float64
	for _, p := range percents {
		sum += p
	}
	return round(sum/float64(len(percents)), 1)
}

func round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
