// Package pipeline drives raw payloads through transform, idempotent store,
// and best-effort forward. Each unit of work runs to completion before the
// next is accepted; duplicate delivery is absorbed by the storage key, not
// by application-level locking.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/widoyo/pbase-gto/internal/domain"
	"github.com/widoyo/pbase-gto/internal/observability"
)

// Extractor reads one raw message from the source, blocking until a message
// arrives or the context is cancelled.
type Extractor interface {
	Extract(ctx context.Context) (domain.RawMessage, error)
}

// CalibrationStore resolves a serial to its device calibration. Unknown
// serials return an error wrapping domain.ErrUnknownDevice.
type CalibrationStore interface {
	DeviceBySN(ctx context.Context, sn string) (domain.Device, error)
}

// ReadingStore persists a canonical reading. stored is false when the
// (device, sampling) key already existed.
type ReadingStore interface {
	StoreReading(ctx context.Context, r domain.Reading) (stored bool, err error)
}

// Forwarder pushes one reading to the downstream consumer.
type Forwarder interface {
	Push(ctx context.Context, r domain.Reading) error
}

// Pipeline orchestrates the listen loop.
type Pipeline struct {
	extractor Extractor
	ingestor  *Ingestor
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline around an extractor and an ingestor.
func New(e Extractor, ing *Ingestor, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor: e,
		ingestor:  ing,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the pipeline has completed at least one
// unit of work.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any messages yet")
	}
	return nil
}

// Run executes the listen loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started")
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during broker or
	// database outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processOne(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processOne runs one extract-ingest cycle. Returns false if the pipeline
// should stop.
func (p *Pipeline) processOne(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	msg, err := p.extractor.Extract(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.RawConsumed.Inc()
	*backoff = 200 * time.Millisecond

	if err := p.ingestor.Ingest(ctx, msg.Value); err != nil {
		// Only infrastructure failures surface here; the message stays
		// uncommitted and will be redelivered, which the storage key makes
		// safe.
		p.logger.Error("ingest failed", "error", err,
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.commitOffset(ctx, msg)
	p.ready.Store(true)
	return true
}

// backoffOrStop checks for cancellation, sleeps with the current backoff,
// and advances it. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func (p *Pipeline) commitOffset(ctx context.Context, msg domain.RawMessage) {
	if msg.Commit == nil {
		return
	}
	if err := msg.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
