package pipeline_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/widoyo/pbase-gto/internal/domain"
	"github.com/widoyo/pbase-gto/internal/pipeline"
)

type mockExtractor struct {
	messages []domain.RawMessage
	index    atomic.Int64
}

func (m *mockExtractor) Extract(ctx context.Context) (domain.RawMessage, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.messages) {
		// Block until cancelled to simulate waiting for messages.
		<-ctx.Done()
		return domain.RawMessage{}, ctx.Err()
	}
	return m.messages[i], nil
}

func newTestPipeline(ext *mockExtractor, store *mockReadingStore, fwd pipeline.Forwarder) *pipeline.Pipeline {
	ing := pipeline.NewIngestor(knownDevices(), store, fwd, slog.Default(), newTestMetrics())
	return pipeline.New(ext, ing, slog.Default(), newTestMetrics())
}

func TestPipeline_Run_HappyPath(t *testing.T) {
	var committed atomic.Int64
	ext := &mockExtractor{messages: []domain.RawMessage{{
		Value:  []byte(rainPayload),
		Topic:  "raw-periodic",
		Offset: 42,
		Commit: func(context.Context) error {
			committed.Add(1)
			return nil
		},
	}}}
	store := &mockReadingStore{}
	p := newTestPipeline(ext, store, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Len(t, store.stored, 1)
	assert.Equal(t, int64(1), committed.Load())
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no messages, blocks
	store := &mockReadingStore{}
	p := newTestPipeline(ext, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, store.stored)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_DroppedPayloadStillCommits(t *testing.T) {
	var committed atomic.Int64
	ext := &mockExtractor{messages: []domain.RawMessage{{
		Value: []byte(`{"device":"arr/9999-0","sampling":1714100400,"tick":1}`),
		Commit: func(context.Context) error {
			committed.Add(1)
			return nil
		},
	}}}
	store := &mockReadingStore{}
	p := newTestPipeline(ext, store, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	// Unknown devices are a terminal drop, not a retry.
	assert.Empty(t, store.stored)
	assert.Equal(t, int64(1), committed.Load())
}

func TestPipeline_Run_StoreFailureLeavesOffsetUncommitted(t *testing.T) {
	var committed atomic.Int64
	ext := &mockExtractor{messages: []domain.RawMessage{{
		Value: []byte(rainPayload),
		Commit: func(context.Context) error {
			committed.Add(1)
			return nil
		},
	}}}
	store := &mockReadingStore{err: assert.AnError}
	p := newTestPipeline(ext, store, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), committed.Load())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestCachedCalibration(t *testing.T) {
	t.Run("serves repeat lookups from cache", func(t *testing.T) {
		inner := knownDevices()
		cached := pipeline.NewCachedCalibration(inner, time.Minute)

		for range 3 {
			dev, err := cached.DeviceBySN(context.Background(), "1910-27")
			require.NoError(t, err)
			assert.Equal(t, "1910-27", dev.SN)
		}
		assert.Equal(t, 1, inner.lookups)
	})

	t.Run("expired entries are refetched", func(t *testing.T) {
		inner := knownDevices()
		cached := pipeline.NewCachedCalibration(inner, 0)

		_, err := cached.DeviceBySN(context.Background(), "1910-27")
		require.NoError(t, err)
		_, err = cached.DeviceBySN(context.Background(), "1910-27")
		require.NoError(t, err)
		assert.Equal(t, 2, inner.lookups)
	})

	t.Run("failures are not cached", func(t *testing.T) {
		inner := knownDevices()
		cached := pipeline.NewCachedCalibration(inner, time.Minute)

		_, err := cached.DeviceBySN(context.Background(), "9999-0")
		require.ErrorIs(t, err, domain.ErrUnknownDevice)
		_, err = cached.DeviceBySN(context.Background(), "9999-0")
		require.ErrorIs(t, err, domain.ErrUnknownDevice)
		assert.Equal(t, 2, inner.lookups)
	})
}
