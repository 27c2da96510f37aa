package report_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/widoyo/pbase-gto/internal/domain"
	"github.com/widoyo/pbase-gto/internal/observability"
	"github.com/widoyo/pbase-gto/internal/report"
)

type mockDispatcher struct {
	sent map[string][]string // chatID -> message texts
	err  error
}

func (m *mockDispatcher) SendMessage(_ context.Context, chatID, text string) error {
	if m.err != nil {
		return m.err
	}
	if m.sent == nil {
		m.sent = map[string][]string{}
	}
	m.sent[chatID] = append(m.sent[chatID], text)
	return nil
}

func fixedClock(t *testing.T) time.Time {
	t.Helper()
	fixed := time.Date(2024, 4, 26, 8, 0, 0, 0, time.UTC) // 15:00 Jakarta
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { domain.SetClock(nil) })
	return fixed
}

func TestSendRainfallReports(t *testing.T) {
	fixed := fixedClock(t)

	repo := &mockRepo{
		tenants: []domain.Tenant{{ID: 1, Name: "Balai Bali", ChatID: "-100200"}},
		locations: map[int64][]domain.Location{1: {
			{ID: 10, TenantID: 1, Name: "Sanur", Category: domain.CategoryRainGauge},
			{ID: 11, TenantID: 1, Name: "Intake", Category: domain.CategoryWaterLevel},
			{ID: 12, TenantID: 1, Name: "Ubud", Category: domain.CategoryClimate},
		}},
		rainSum: map[int64]float64{10: 3.0},
		counts:  map[int64]int{10: 96, 12: 0},
		latest: map[int64]*domain.Reading{
			10: {DeviceSN: "1910-27", Sampling: fixed.Add(-5 * time.Minute)},
		},
	}
	disp := &mockDispatcher{}
	r := report.NewReporter(repo, disp, slog.Default(), observability.NewMetricsForTesting())

	err := r.SendRainfallReports(context.Background())

	require.NoError(t, err)
	require.Len(t, disp.sent["-100200"], 1)
	text := disp.sent["-100200"][0]
	assert.Contains(t, text, "*Rainfall 26 Apr 2024*")
	assert.Contains(t, text, "07:00 - 15:00")
	assert.Contains(t, text, "1. Sanur : 3.00 mm over 480 minutes")
	assert.Contains(t, text, "last data 5 minutes ago")
	// Climate locations are included, water level ones are not.
	assert.Contains(t, text, "2. Ubud : no rain")
	assert.Contains(t, text, "last data no data yet")
	assert.NotContains(t, text, "Intake")
}

func TestSendWaterLevelReports(t *testing.T) {
	fixed := fixedClock(t)
	level := 52.4

	repo := &mockRepo{
		tenants: []domain.Tenant{{ID: 1, Name: "Balai Bali", ChatID: "-100200"}},
		locations: map[int64][]domain.Location{1: {
			{ID: 11, TenantID: 1, Name: "Intake", Category: domain.CategoryWaterLevel},
			{ID: 10, TenantID: 1, Name: "Sanur", Category: domain.CategoryRainGauge},
		}},
		latest: map[int64]*domain.Reading{
			11: {DeviceSN: "2001-9", Sampling: fixed.Add(-10 * time.Minute), WaterLevel: &level},
		},
	}
	disp := &mockDispatcher{}
	r := report.NewReporter(repo, disp, slog.Default(), observability.NewMetricsForTesting())

	err := r.SendWaterLevelReports(context.Background())

	require.NoError(t, err)
	require.Len(t, disp.sent["-100200"], 1)
	text := disp.sent["-100200"][0]
	assert.Contains(t, text, "*Water Level*")
	assert.Contains(t, text, "1. Intake : 52.40, 10 minutes ago")
	// Timestamp is rendered in the tenant's zone, UTC+7.
	assert.Contains(t, text, "(26 Apr 2024, 14:50)")
	assert.NotContains(t, text, "Sanur")
}

func TestSendArrivalReports(t *testing.T) {
	fixedClock(t)

	repo := &mockRepo{
		tenants: []domain.Tenant{
			{ID: 1, Name: "Balai Bali", ChatID: "-100200"},
			{ID: 2, Name: "Balai Citarum", ChatID: "-100300"},
		},
		locations: map[int64][]domain.Location{
			1: {{ID: 10, TenantID: 1, Name: "Sanur", Category: domain.CategoryRainGauge}},
			2: {{ID: 20, TenantID: 2, Name: "Nanjung", Category: domain.CategoryWaterLevel}},
		},
		counts: map[int64]int{10: 144, 20: 288},
	}
	disp := &mockDispatcher{}
	r := report.NewReporter(repo, disp, slog.Default(), observability.NewMetricsForTesting())

	day := time.Date(2024, 4, 25, 12, 0, 0, 0, time.UTC)
	err := r.SendArrivalReports(context.Background(), day)

	require.NoError(t, err)
	require.Len(t, disp.sent["-100200"], 1)
	require.Len(t, disp.sent["-100300"], 1)
	assert.Contains(t, disp.sent["-100200"][0], "*Balai Bali*")
	assert.Contains(t, disp.sent["-100200"][0], "1. Sanur: *50.0%*")
	assert.Contains(t, disp.sent["-100300"][0], "1. Nanjung: *100.0%*")
}

func TestDispatchFailureDoesNotAbort(t *testing.T) {
	fixedClock(t)

	repo := &mockRepo{
		tenants: []domain.Tenant{
			{ID: 1, Name: "Balai Bali", ChatID: "-100200"},
			{ID: 2, Name: "Balai Citarum", ChatID: "-100300"},
		},
		locations: map[int64][]domain.Location{},
	}
	disp := &mockDispatcher{err: errors.New("chat not found")}
	r := report.NewReporter(repo, disp, slog.Default(), observability.NewMetricsForTesting())

	err := r.SendWaterLevelReports(context.Background())

	require.NoError(t, err)
	assert.Empty(t, disp.sent)
}

func TestListTenantsErrorSurfaces(t *testing.T) {
	repo := &mockRepo{err: errors.New("pool closed")}
	r := report.NewReporter(repo, &mockDispatcher{}, slog.Default(), observability.NewMetricsForTesting())

	require.Error(t, r.SendRainfallReports(context.Background()))
	require.Error(t, r.SendWaterLevelReports(context.Background()))
	require.Error(t, r.SendArrivalReports(context.Background(), time.Now()))
}
