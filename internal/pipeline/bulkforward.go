package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/widoyo/pbase-gto/internal/domain"
	"github.com/widoyo/pbase-gto/internal/observability"
)

// BulkReadingSource is the read-only storage view the bulk forwarder
// consumes.
type BulkReadingSource interface {
	ListTenants(ctx context.Context) ([]domain.Tenant, error)
	LocationsByTenant(ctx context.Context, tenantID int64, categories ...domain.Category) ([]domain.Location, error)
	ReadingsInWindow(ctx context.Context, locationID int64, start, end time.Time) ([]domain.Reading, error)
}

// BatchForwarder pushes one location's window of readings downstream as a
// single envelope.
type BatchForwarder interface {
	PushBatch(ctx context.Context, tenant string, readings []domain.Reading) error
}

// BulkForwarder replays a finished day of readings downstream, one
// envelope per location. A location whose window holds no readings sends
// nothing.
type BulkForwarder struct {
	source  BulkReadingSource
	fwd     BatchForwarder
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewBulkForwarder wires the day replay to its storage view and forwarder.
func NewBulkForwarder(source BulkReadingSource, fwd BatchForwarder, logger *slog.Logger, metrics *observability.Metrics) *BulkForwarder {
	return &BulkForwarder{
		source:  source,
		fwd:     fwd,
		logger:  logger,
		metrics: metrics,
	}
}

// ForwardDay sends every location's readings for the civil day containing
// day in its tenant's zone. A failed location is logged and skipped so the
// remaining locations still go out; re-running the same day is absorbed by
// the downstream bulk endpoint.
func (b *BulkForwarder) ForwardDay(ctx context.Context, day time.Time) error {
	tenants, err := b.source.ListTenants(ctx)
	if err != nil {
		return err
	}

	for _, ten := range tenants {
		zone := ten.TimeLocation()
		start, end := domain.CompletenessWindow(day, zone)

		locations, err := b.source.LocationsByTenant(ctx, ten.ID)
		if err != nil {
			b.logger.Error("list locations failed", "tenant", ten.Name, "error", err)
			continue
		}

		for _, loc := range locations {
			readings, err := b.source.ReadingsInWindow(ctx, loc.ID, start.UTC(), end.UTC())
			if err != nil {
				b.logger.Error("list readings failed", "location", loc.Name, "error", err)
				continue
			}
			if len(readings) == 0 {
				b.logger.Debug("no readings to forward", "location", loc.Name)
				continue
			}

			if err := b.fwd.PushBatch(ctx, ten.Name, readings); err != nil {
				b.metrics.ForwardErrors.Inc()
				b.logger.Error("bulk forward failed", "location", loc.Name, "error", err)
				continue
			}
			b.metrics.ForwardsSent.Inc()
			b.logger.Info("bulk forwarded", "location", loc.Name, "readings", len(readings))
		}
	}
	return nil
}
