package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/widoyo/pbase-gto/internal/domain"
)

// CachedCalibration decorates a CalibrationStore with a TTL cache so the
// hot ingest path does not hit the database once per message. Calibration
// changes made in the console become visible after at most one TTL.
type CachedCalibration struct {
	inner CalibrationStore
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]calibEntry
}

type calibEntry struct {
	dev     domain.Device
	expires time.Time
}

// NewCachedCalibration creates the cache decorator.
func NewCachedCalibration(inner CalibrationStore, ttl time.Duration) *CachedCalibration {
	return &CachedCalibration{
		inner:   inner,
		ttl:     ttl,
		entries: make(map[string]calibEntry),
	}
}

// DeviceBySN serves from cache within the TTL. Lookup failures are not
// cached, so a device registered mid-run is picked up on its next payload.
func (c *CachedCalibration) DeviceBySN(ctx context.Context, sn string) (domain.Device, error) {
	now := time.Now()

	c.mu.Lock()
	if e, ok := c.entries[sn]; ok && now.Before(e.expires) {
		c.mu.Unlock()
		return e.dev, nil
	}
	c.mu.Unlock()

	dev, err := c.inner.DeviceBySN(ctx, sn)
	if err != nil {
		return domain.Device{}, err
	}

	c.mu.Lock()
	c.entries[sn] = calibEntry{dev: dev, expires: now.Add(c.ttl)}
	c.mu.Unlock()
	return dev, nil
}
