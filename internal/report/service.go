package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/widoyo/pbase-gto/internal/domain"
	"github.com/widoyo/pbase-gto/internal/observability"
)

// Dispatcher delivers one formatted report to a messaging endpoint.
type Dispatcher interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Reporter builds and dispatches one report per tenant per invocation.
// A failed location line or a failed delivery is logged and never aborts
// the remaining tenants.
type Reporter struct {
	engine     *Engine
	repo       Repository
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewReporter wires the report engine to its storage view and dispatcher.
func NewReporter(repo Repository, dispatcher Dispatcher, logger *slog.Logger, metrics *observability.Metrics) *Reporter {
	return &Reporter{
		engine:     NewEngine(repo),
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// SendRainfallReports dispatches the accumulated-rain report to every
// tenant, covering rain-gauge and climate locations over the 07:00-anchored
// window ending now.
func (r *Reporter) SendRainfallReports(ctx context.Context) error {
	tenants, err := r.repo.ListTenants(ctx)
	if err != nil {
		return err
	}

	now := domain.Clock().Now()
	for _, ten := range tenants {
		zone := ten.TimeLocation()
		start, end := domain.RainfallWindow(now, zone)

		locations, err := r.repo.LocationsByTenant(ctx, ten.ID,
			domain.CategoryRainGauge, domain.CategoryClimate)
		if err != nil {
			r.logger.Error("list locations failed", "tenant", ten.Name, "error", err)
			continue
		}

		lines := make([]RainfallLine, 0, len(locations))
		for _, loc := range locations {
			summary, err := r.engine.RainfallSummary(ctx, loc.ID, start.UTC(), end.UTC())
			if err != nil {
				r.logger.Error("rainfall summary failed", "location", loc.Name, "error", err)
				continue
			}
			_, recency, err := r.engine.Latest(ctx, loc.ID)
			if err != nil {
				r.logger.Error("latest reading failed", "location", loc.Name, "error", err)
				continue
			}
			lines = append(lines, RainfallLine{Name: loc.Name, Summary: summary, Recency: recency})
		}

		r.dispatch(ctx, ten, "rainfall", FormatRainfallReport(start, end, lines))
	}
	return nil
}

// SendWaterLevelReports dispatches the latest water-level report to every
// tenant.
func (r *Reporter) SendWaterLevelReports(ctx context.Context) error {
	tenants, err := r.repo.ListTenants(ctx)
	if err != nil {
		return err
	}

	for _, ten := range tenants {
		zone := ten.TimeLocation()

		locations, err := r.repo.LocationsByTenant(ctx, ten.ID, domain.CategoryWaterLevel)
		if err != nil {
			r.logger.Error("list locations failed", "tenant", ten.Name, "error", err)
			continue
		}

		lines := make([]WaterLevelLine, 0, len(locations))
		for _, loc := range locations {
			latest, recency, err := r.engine.Latest(ctx, loc.ID)
			if err != nil {
				r.logger.Error("latest reading failed", "location", loc.Name, "error", err)
				continue
			}
			line := WaterLevelLine{Name: loc.Name, Recency: recency}
			if latest != nil {
				local := latest.Sampling.In(zone)
				line.Sampling = &local
				line.Level = latest.WaterLevel
			}
			lines = append(lines, line)
		}

		r.dispatch(ctx, ten, "waterlevel", FormatWaterLevelReport(lines))
	}
	return nil
}

// SendArrivalReports dispatches the daily data-arrival report to every
// tenant for the civil day containing day in the tenant's zone.
func (r *Reporter) SendArrivalReports(ctx context.Context, day time.Time) error {
	tenants, err := r.repo.ListTenants(ctx)
	if err != nil {
		return err
	}

	for _, ten := range tenants {
		zone := ten.TimeLocation()
		start, end := domain.CompletenessWindow(day, zone)

		locations, err := r.repo.LocationsByTenant(ctx, ten.ID)
		if err != nil {
			r.logger.Error("list locations failed", "tenant", ten.Name, "error", err)
			continue
		}

		lines := make([]CompletenessLine, 0, len(locations))
		for _, loc := range locations {
			percent, err := r.engine.Completeness(ctx, loc.ID, start.UTC(), end.UTC())
			if err != nil {
				r.logger.Error("completeness failed", "location", loc.Name, "error", err)
				continue
			}
			lines = append(lines, CompletenessLine{Name: loc.Name, Category: loc.Category, Percent: percent})
		}

		r.dispatch(ctx, ten, "arrival", FormatArrivalReport(ten.Name, start, end, lines))
	}
	return nil
}

func (r *Reporter) dispatch(ctx context.Context, ten domain.Tenant, kind, text string) {
	if err := r.dispatcher.SendMessage(ctx, ten.ChatID, text); err != nil {
		r.metrics.DispatchErrors.Inc()
		r.logger.Error("report dispatch failed", "tenant", ten.Name, "kind", kind, "error", err)
		return
	}
	r.metrics.ReportsSent.WithLabelValues(kind).Inc()
	r.logger.Info("report sent", "tenant", ten.Name, "kind", kind)
}
