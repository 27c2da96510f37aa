// Package downstream forwards canonical readings to the consumer web
// application. Delivery is best effort: the caller logs failures and never
// retries inline, because the reading is already committed locally and a
// re-run of the same window is idempotent.
package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/widoyo/pbase-gto/internal/domain"
)

// wireTimeLayout is the timestamp format the downstream API expects.
const wireTimeLayout = "2006-01-02 15:04:05"

// Client pushes readings to the downstream API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a downstream forwarder.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Push sends one reading as a form POST to /api/periodik.
func (c *Client) Push(ctx context.Context, r domain.Reading) error {
	form := url.Values{}
	form.Set("device_sn", r.DeviceSN)
	form.Set("sampling", r.Sampling.UTC().Format(wireTimeLayout))
	if r.LocationID != nil {
		form.Set("lokasi_id", strconv.FormatInt(*r.LocationID, 10))
	}

	setFloat := func(key string, v *float64) {
		if v != nil {
			form.Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
		}
	}
	setTime := func(key string, v *time.Time) {
		if v != nil {
			form.Set(key, v.UTC().Format(wireTimeLayout))
		}
	}

	setFloat("rain", r.Rain)
	setFloat("wlev", r.WaterLevel)
	setFloat("wind_speed", r.WindSpeed)
	setFloat("wind_dir", r.WindDirection)
	setFloat("sun_rad", r.SunRadiation)
	setFloat("humi", r.Humidity)
	setFloat("temp", r.Temperature)
	setFloat("batt", r.Battery)
	setFloat("apre", r.Pressure)
	setFloat("mdpl", r.Altitude)
	setFloat("sq", r.SignalQuality)
	setTime("up_s", r.UpSince)
	setTime("ts_a", r.TimeSetAt)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/periodik", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req)
}

// PushBatch sends all readings of one location window as a single JSON
// envelope to /api/periodik/bulk. An empty window sends nothing.
func (c *Client) PushBatch(ctx context.Context, tenant string, readings []domain.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	env := bulkEnvelope{
		Tenant: tenant,
		Count:  len(readings),
		Data:   make([]bulkReading, len(readings)),
	}
	for i, r := range readings {
		env.Data[i] = mapBulkReading(r)
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal bulk envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/periodik/bulk", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("forward push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("downstream API error: status %d: %s", resp.StatusCode, body)
	}
	return nil
}

// bulkEnvelope is the wire format of one bulk push.
type bulkEnvelope struct {
	Tenant string        `json:"tenant"`
	Count  int           `json:"count"`
	Data   []bulkReading `json:"data"`
}

type bulkReading struct {
	Sampling string   `json:"sampling"`
	DeviceSN string   `json:"device_sn"`
	LokasiID *int64   `json:"lokasi_id"`
	SQ       *float64 `json:"sq"`
	Temp     *float64 `json:"temp"`
	Humi     *float64 `json:"humi"`
	Batt     *float64 `json:"batt"`
	Rain     *float64 `json:"rain"`
	Wlev     *float64 `json:"wlev"`
	UpS      *string  `json:"up_s"`
	TsA      *string  `json:"ts_a"`
	Apre     *float64 `json:"apre"`
	Mdpl     *float64 `json:"mdpl"`
}

func mapBulkReading(r domain.Reading) bulkReading {
	b := bulkReading{
		Sampling: r.Sampling.UTC().Format(wireTimeLayout),
		DeviceSN: r.DeviceSN,
		LokasiID: r.LocationID,
		SQ:       r.SignalQuality,
		Temp:     r.Temperature,
		Humi:     r.Humidity,
		Batt:     r.Battery,
		Rain:     r.Rain,
		Wlev:     r.WaterLevel,
		Apre:     r.Pressure,
		Mdpl:     r.Altitude,
	}
	if r.UpSince != nil {
		s := r.UpSince.UTC().Format(wireTimeLayout)
		b.UpS = &s
	}
	if r.TimeSetAt != nil {
		s := r.TimeSetAt.UTC().Format(wireTimeLayout)
		b.TsA = &s
	}
	return b
}
