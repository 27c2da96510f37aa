// Package upstream talks to the vendor API that serves the device roster
// and bulk historical payloads.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client fetches raw payloads and the device roster over basic-auth HTTP.
type Client struct {
	baseURL    string
	user       string
	pass       string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a vendor API client.
func NewClient(baseURL, user, pass string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		user:    user,
		pass:    pass,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchPayloads returns one device's raw payloads for a sampling date.
// Each element is left undecoded so the ingest path treats bulk records
// exactly like bus messages.
func (c *Client) FetchPayloads(ctx context.Context, sn, samplingDate string) ([]json.RawMessage, error) {
	u := c.baseURL + "/" + url.PathEscape(sn)
	params := url.Values{"robot": {"1"}}
	if samplingDate != "" {
		params.Set("sampling", samplingDate)
	}

	var payloads []json.RawMessage
	if err := c.getJSON(ctx, u+"?"+params.Encode(), &payloads); err != nil {
		return nil, fmt.Errorf("fetch payloads for %s: %w", sn, err)
	}
	return payloads, nil
}

// FetchSerials returns every serial on the vendor roster.
func (c *Client) FetchSerials(ctx context.Context) ([]string, error) {
	var roster []struct {
		SN string `json:"sn"`
	}
	if err := c.getJSON(ctx, c.baseURL, &roster); err != nil {
		return nil, fmt.Errorf("fetch roster: %w", err)
	}

	serials := make([]string, 0, len(roster))
	for _, r := range roster {
		if r.SN != "" {
			serials = append(serials, r.SN)
		}
	}
	return serials, nil
}

func (c *Client) getJSON(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.user, c.pass)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vendor API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
