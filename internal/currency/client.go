package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL  = "https://api.frankfurter.dev/v1"
	defaultCacheTTL = time.Hour
)

// ErrUnknownCurrency is returned when no rate exists for a currency pair
var ErrUnknownCurrency = errors.New("unknown currency")

// RateError wraps failures talking to the rates API
type RateError struct {
	Op  string
	Err error
}

func (e *RateError) Error() string {
	return fmt.Sprintf("currency %s: %v", e.Op, e.Err)
}

func (e *RateError) Unwrap() error {
	return e.Err
}

// RateTable is one day's rates for a base currency, as Frankfurter returns it
type RateTable struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Client looks up exchange rates for converting quote calculations.
// Tables are cached per base currency; when a refresh fails an expired table
// is served instead of failing the calculation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	ttl        time.Duration
	now        func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedTable
}

type cachedTable struct {
	table     *RateTable
	expiresAt time.Time
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another Frankfurter-compatible host
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithCacheTTL sets how long a fetched table is considered fresh
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithHTTPClient replaces the default 10s-timeout HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock replaces time.Now for cache expiry
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a rates client
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		ttl:        defaultCacheTTL,
		now:        time.Now,
		cache:      make(map[string]cachedTable),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Table returns the latest rate table for base
func (c *Client) Table(ctx context.Context, base string) (*RateTable, error) {
	base = strings.ToUpper(base)

	c.mu.RLock()
	cached, ok := c.cache[base]
	c.mu.RUnlock()
	if ok && c.now().Before(cached.expiresAt) {
		return cached.table, nil
	}

	table, err := c.fetch(ctx, base)
	if err != nil {
		if ok {
			log.Printf("Warning: refreshing %s rates failed, serving rates from %s: %v", base, cached.table.Date, err)
			return cached.table, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.cache[base] = cachedTable{table: table, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return table, nil
}

func (c *Client) fetch(ctx context.Context, base string) (*RateTable, error) {
	url := fmt.Sprintf("%s/latest?base=%s", c.baseURL, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &RateError{Op: "build_request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RateError{Op: "fetch_rates", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity:
		// Frankfurter answers an unsupported base with 404
		return nil, &RateError{Op: "fetch_rates", Err: fmt.Errorf("%w: base %s", ErrUnknownCurrency, base)}
	case resp.StatusCode != http.StatusOK:
		return nil, &RateError{Op: "fetch_rates", Err: fmt.Errorf("rates API returned status %d", resp.StatusCode)}
	}

	var table RateTable
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return nil, &RateError{Op: "decode_rates", Err: err}
	}
	return &table, nil
}

// Rate returns how many units of to one unit of from buys
func (c *Client) Rate(ctx context.Context, from, to string) (float64, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return 1, nil
	}

	table, err := c.Table(ctx, from)
	if err != nil {
		return 0, err
	}
	rate, ok := table.Rates[to]
	if !ok {
		return 0, &RateError{Op: "lookup_rate", Err: fmt.Errorf("%w: no rate for %s to %s", ErrUnknownCurrency, from, to)}
	}
	return rate, nil
}

// Convert converts an amount between currencies
func (c *Client) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	rate, err := c.Rate(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return amount * rate, nil
}
