// Package address provides the HTTP client of the address normalisation service.
package address

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
	"github.com/wbattistetti/AILawyer-sub000/internal/logger"
	"github.com/wbattistetti/AILawyer-sub000/internal/metrics"
)

// Ensure Client implements the interface.
var _ driven.AddressNormaliser = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL           = "http://127.0.0.1:8099"
	DefaultTimeout           = 150 * time.Millisecond
	DefaultCacheSize         = 500
	DefaultFailureThreshold  = 3
	DefaultCoolDown          = 60 * time.Second
	DefaultRequestsPerSecond = 20.0

	maxResponseBytes = 1 << 20
	serviceName      = "address"
)

// Config holds configuration for the address client.
type Config struct {
	// BaseURL is the service base URL (default: http://127.0.0.1:8099).
	BaseURL string

	// Timeout bounds each request (default: 150ms).
	Timeout time.Duration

	// CacheSize is the number of cached results (default: 500).
	CacheSize int

	// RequestsPerSecond throttles outgoing requests (default: 20).
	RequestsPerSecond float64

	// CoolDown is how long the breaker stays open (default: 60s).
	CoolDown time.Duration
}

// Client normalises addresses through the remote service. It never returns
// errors: timeouts, transport failures and non-2xx answers all yield nil and
// count towards the circuit breaker. Waiting for the rate limiter does not.
type Client struct {
	http    *http.Client
	url     string
	cache   *lru.Cache[string, domain.Address]
	breaker *gobreaker.CircuitBreaker[*domain.Address]
	limiter *rate.Limiter
}

// normalizeRequest is the body of POST /normalize.
type normalizeRequest struct {
	Type    domain.AddressKind `json:"type"`
	Text    string             `json:"text"`
	Context requestContext     `json:"context"`
}

type requestContext struct {
	LastPlace string `json:"last_place,omitempty"`
}

// NewClient creates an address client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = DefaultCoolDown
	}

	// lru.New only fails on a non-positive size.
	cache, _ := lru.New[string, domain.Address](cfg.CacheSize)

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		url:     strings.TrimRight(cfg.BaseURL, "/") + "/normalize",
		cache:   cache,
		breaker: newBreaker(DefaultFailureThreshold, cfg.CoolDown),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1),
	}
}

// Normalize returns the structured form of raw, or nil.
func (c *Client) Normalize(ctx context.Context, kind domain.AddressKind, raw, lastPlace string) *domain.Address {
	cleaned := Preclean(raw)
	if cleaned == "" {
		return nil
	}

	key := string(kind) + "|" + cleaned + "|" + lastPlace
	if addr, ok := c.cache.Get(key); ok {
		metrics.CacheHits.WithLabelValues(serviceName).Inc()
		metrics.EnrichmentRequests.WithLabelValues(serviceName, metrics.OutcomeCached).Inc()
		return &addr
	}
	metrics.CacheMisses.WithLabelValues(serviceName).Inc()

	if c.breaker.State() == gobreaker.StateOpen {
		metrics.EnrichmentRequests.WithLabelValues(serviceName, metrics.OutcomeOpen).Inc()
		return nil
	}

	// Throttle before the request deadline starts.
	if err := c.limiter.Wait(ctx); err != nil {
		logger.Debug("address: throttled: %v", err)
		metrics.EnrichmentRequests.WithLabelValues(serviceName, metrics.OutcomeThrottled).Inc()
		return nil
	}

	addr, err := c.breaker.Execute(func() (*domain.Address, error) {
		return c.fetch(ctx, normalizeRequest{
			Type:    kind,
			Text:    raw,
			Context: requestContext{LastPlace: lastPlace},
		})
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.EnrichmentRequests.WithLabelValues(serviceName, metrics.OutcomeOpen).Inc()
		return nil
	case err != nil:
		logger.Debug("address: %v", err)
		metrics.EnrichmentRequests.WithLabelValues(serviceName, metrics.OutcomeFailed).Inc()
		return nil
	}
	metrics.EnrichmentRequests.WithLabelValues(serviceName, metrics.OutcomeOK).Inc()
	if addr == nil {
		return nil
	}

	if addr.Kind == "" {
		addr.Kind = kind
	}
	c.cache.Add(key, *addr)
	return addr
}

// fetch performs one request. A well-formed answer without an address
// returns nil, nil.
func (c *Client) fetch(ctx context.Context, body normalizeRequest) (*domain.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, c.http.Timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshalling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("service returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON response")
	}

	return parseAddress(gjson.ParseBytes(data)), nil
}

func parseAddress(res gjson.Result) *domain.Address {
	a := res.Get("address")
	if !res.Get("ok").Bool() || !a.IsObject() {
		return nil
	}
	comp := a.Get("components")
	return &domain.Address{
		Kind:       domain.AddressKind(a.Get("type").String()),
		Raw:        a.Get("raw").String(),
		Cleaned:    a.Get("cleaned").String(),
		Normalized: a.Get("norm").String(),
		Confidence: a.Get("confidence").Float(),
		Engine:     a.Get("engine").String(),
		Components: domain.AddressComponents{
			Recipient:    comp.Get("recipient").String(),
			Road:         comp.Get("road").String(),
			HouseNumber:  comp.Get("house_number").String(),
			Municipality: comp.Get("municipality").String(),
			Province:     comp.Get("province").String(),
			Postcode:     comp.Get("postcode").String(),
			Country:      comp.Get("country").String(),
		},
	}
}
