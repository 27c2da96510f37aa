package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/widoyo/pbase-gto/internal/domain"
	"github.com/widoyo/pbase-gto/internal/observability"
)

// Ingestor runs one raw payload through transform, store, and forward.
// It is shared by the bus listener and the bulk historical fetch.
type Ingestor struct {
	calib     CalibrationStore
	store     ReadingStore
	forwarder Forwarder
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewIngestor wires the three stages. Pass a nil forwarder to disable
// downstream push.
func NewIngestor(calib CalibrationStore, store ReadingStore, forwarder Forwarder, logger *slog.Logger, metrics *observability.Metrics) *Ingestor {
	return &Ingestor{
		calib:     calib,
		store:     store,
		forwarder: forwarder,
		logger:    logger,
		metrics:   metrics,
	}
}

// Ingest processes one raw payload to completion. Malformed payloads and
// unknown devices are dropped with a log line and do not surface as errors;
// forwarding failures are logged and never roll back the committed store.
// Only storage-layer failures are returned, so the caller can retry the
// whole (idempotent) unit of work.
func (i *Ingestor) Ingest(ctx context.Context, payload []byte) error {
	start := time.Now()
	defer func() {
		i.metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	raw, err := domain.ParseRawPayload(payload)
	if err != nil {
		i.metrics.TransformErrors.Inc()
		i.logger.Warn("dropping malformed payload", "error", err)
		return nil
	}

	sn, err := raw.SerialNumber()
	if err != nil {
		i.metrics.TransformErrors.Inc()
		i.logger.Warn("dropping payload", "error", err)
		return nil
	}

	dev, err := i.calib.DeviceBySN(ctx, sn)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownDevice) {
			i.metrics.UnknownDevices.Inc()
			i.logger.Warn("dropping payload from unknown device", "device", raw.Device)
			return nil
		}
		return fmt.Errorf("calibration lookup: %w", err)
	}

	reading := domain.Transform(raw, dev)

	stored, err := i.store.StoreReading(ctx, reading)
	if err != nil {
		return fmt.Errorf("store reading: %w", err)
	}
	if !stored {
		i.metrics.DuplicateReadings.Inc()
		i.logger.Debug("duplicate reading",
			"device", reading.DeviceSN, "sampling", reading.Sampling)
		return nil
	}
	i.metrics.ReadingsStored.Inc()

	if i.forwarder != nil {
		// Best effort: the reading is already committed and a failed push is
		// not retried here. An external job re-running the window recovers.
		if err := i.forwarder.Push(ctx, reading); err != nil {
			i.metrics.ForwardErrors.Inc()
			i.logger.Warn("forward failed",
				"error", err, "device", reading.DeviceSN, "sampling", reading.Sampling)
		} else {
			i.metrics.ForwardsSent.Inc()
		}
	}

	return nil
}
