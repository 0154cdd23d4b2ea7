// Package remote queries decay radiation directly from the IAEA LiveChart
// data API. It is slower than the local table but always current.
package remote

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"fisdef/internal/decay"
	"fisdef/internal/logging"
	"fisdef/internal/nuclide"
)

// DefaultBaseURL is the LiveChart data endpoint.
const DefaultBaseURL = "https://nds.iaea.org/relnsd/v1/data"

// Config tunes the client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration // per request
	Retries   int           // extra attempts after a transient failure
	Backoff   time.Duration // delay before the first retry, doubled each time
	RateLimit float64       // requests per second, <= 0 for unlimited
	UserAgent string
}

// Client is a decay.Provider backed by HTTP.
type Client struct {
	baseURL   string
	timeout   time.Duration
	retries   int
	backoff   time.Duration
	userAgent string
	limiter   *rate.Limiter
	client    *http.Client
}

// New creates a client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "fisdef"
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		timeout:   cfg.Timeout,
		retries:   max(cfg.Retries, 0),
		backoff:   cfg.Backoff,
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(limit, 1),
		client:    &http.Client{},
	}
}

// Lookup implements decay.Provider.
func (c *Client) Lookup(ctx context.Context, id nuclide.ID, rad decay.RadiationType) ([]decay.Line, error) {
	log := logging.Get(logging.CategoryDecay)

	var lines []decay.Line
	for _, code := range rad.Codes() {
		records, err := c.fetch(ctx, id, code)
		if errors.Is(err, decay.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, &decay.DataUnavailableError{Nuclide: id, Radiation: rad, Err: err}
		}
		records = decay.SelectParentLevel(id, records)
		lines = append(lines, decay.CleanRecords(id, records)...)
	}

	log.Debugf("%s decay records for %s: %d", rad, id, len(lines))
	if len(lines) == 0 {
		return nil, fmt.Errorf("%s %s: %w", id, rad, decay.ErrNotFound)
	}
	return lines, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// fetch retrieves one radiation code, retrying transient failures.
func (c *Client) fetch(ctx context.Context, id nuclide.ID, code string) ([]decay.Record, error) {
	q := url.Values{}
	q.Set("fields", "decay_rads")
	q.Set("nuclides", queryName(id))
	q.Set("rad_types", code)
	endpoint := c.baseURL + "?" + q.Encode()

	delay := c.backoff
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			logging.Get(logging.CategoryDecay).Debugf("retrying %s (%s) after %v: %v", id, code, delay, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		records, transient, err := c.get(ctx, endpoint)
		if err == nil || !transient {
			return records, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// get performs one request. transient marks failures worth retrying.
func (c *Client) get(ctx context.Context, endpoint string) ([]decay.Record, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("decay data request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, decay.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, true, fmt.Errorf("decay data service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, false, fmt.Errorf("decay data service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	records, err := parseCSV(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(records) == 0 {
		return nil, false, decay.ErrNotFound
	}
	return records, false, nil
}

// parseCSV reads the decay_rads table. Only energy, intensity and
// p_energy are used; a response without an energy column carries no data.
func parseCSV(r io.Reader) ([]decay.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	ei, ok := col["energy"]
	if !ok {
		return nil, nil
	}
	ii, hasIntensity := col["intensity"]
	pi, hasParent := col["p_energy"]

	var records []decay.Record
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		var r decay.Record
		r.EnergyKeV = number(rec, ei)
		if hasIntensity {
			r.IntensityPct = number(rec, ii)
		}
		if hasParent {
			r.ParentLevel = number(rec, pi)
		}
		records = append(records, r)
	}
	return records, nil
}

func number(rec []string, i int) *float64 {
	if i >= len(rec) {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
	if err != nil {
		return nil
	}
	return &v
}

// queryName renders the API's nuclide form: mass number then lower-case
// symbol, e.g. "60co". Isomers share the ground-state name.
func queryName(id nuclide.ID) string {
	return strconv.Itoa(id.A) + strings.ToLower(id.Symbol())
}
