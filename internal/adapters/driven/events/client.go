// Package events provides the HTTP client of the event extraction service.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
	"github.com/wbattistetti/AILawyer-sub000/internal/logger"
	"github.com/wbattistetti/AILawyer-sub000/internal/metrics"
)

// Ensure Client implements the interface.
var _ driven.EventExtractor = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://127.0.0.1:8098"
	DefaultTimeout = 800 * time.Millisecond

	maxResponseBytes = 4 << 20
	serviceName      = "events"
)

// Config holds configuration for the events client.
type Config struct {
	// BaseURL is the service base URL (default: http://127.0.0.1:8098).
	BaseURL string

	// Timeout bounds each request (default: 800ms).
	Timeout time.Duration
}

// Client extracts events through the remote service. Failures are logged
// and yield no events.
type Client struct {
	http    *http.Client
	baseURL string
}

// BatchItem is one text of a batch request.
type BatchItem struct {
	Text string            `json:"text"`
	Meta map[string]string `json:"meta,omitempty"`
}

// BatchResult is the answer for one BatchItem.
type BatchResult struct {
	OK     bool
	Events []domain.Event
	Meta   map[string]string
}

// NewClient creates an events client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Extract returns the events found in text, or nil on any failure.
func (c *Client) Extract(ctx context.Context, text string, meta map[string]string) []domain.Event {
	res, err := c.post(ctx, "/events", BatchItem{Text: text, Meta: meta})
	if err != nil {
		logger.Warn("events: %v", err)
		metrics.EnrichmentRequests.WithLabelValues(serviceName, metrics.OutcomeFailed).Inc()
		return nil
	}
	metrics.EnrichmentRequests.WithLabelValues(serviceName, metrics.OutcomeOK).Inc()
	return parseEvents(res.Get("events"))
}

// ExtractBatch sends several texts in one request. On failure it returns nil.
func (c *Client) ExtractBatch(ctx context.Context, items []BatchItem) []BatchResult {
	if len(items) == 0 {
		return nil
	}
	res, err := c.post(ctx, "/events/batch", map[string]any{"items": items})
	if err != nil {
		logger.Warn("events batch: %v", err)
		metrics.EnrichmentRequests.WithLabelValues(serviceName, metrics.OutcomeFailed).Inc()
		return nil
	}
	metrics.EnrichmentRequests.WithLabelValues(serviceName, metrics.OutcomeOK).Inc()

	var out []BatchResult
	res.Get("results").ForEach(func(_, r gjson.Result) bool {
		br := BatchResult{
			OK:     r.Get("ok").Bool(),
			Events: parseEvents(r.Get("events")),
			Meta:   map[string]string{},
		}
		r.Get("meta").ForEach(func(k, v gjson.Result) bool {
			br.Meta[k.String()] = v.String()
			return true
		})
		out = append(out, br)
		return true
	})
	return out
}

func (c *Client) post(ctx context.Context, path string, body any) (gjson.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.http.Timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("marshalling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, fmt.Errorf("service returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("reading response: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("invalid JSON response")
	}
	return gjson.ParseBytes(data), nil
}

// parseEvents converts a JSON array of events. Missing ids become evt_<index>.
func parseEvents(arr gjson.Result) []domain.Event {
	var events []domain.Event
	i := 0
	arr.ForEach(func(_, e gjson.Result) bool {
		ev := domain.Event{
			ID:         e.Get("id").String(),
			Type:       e.Get("type").String(),
			Text:       e.Get("text").String(),
			Time:       e.Get("time").String(),
			PlaceRaw:   e.Get("place_raw").String(),
			Amount:     e.Get("amount").String(),
			Confidence: e.Get("confidence").Float(),
		}
		if ev.ID == "" {
			ev.ID = "evt_" + strconv.Itoa(i)
		}
		for _, p := range e.Get("participants").Array() {
			ev.Participants = append(ev.Participants, p.String())
		}
		for _, a := range e.Get("artefacts").Array() {
			ev.Artefacts = append(ev.Artefacts, a.String())
		}
		if src := e.Get("source"); src.Exists() {
			if src.IsObject() {
				ev.Source = src.Raw
			} else {
				ev.Source = src.String()
			}
		}
		events = append(events, ev)
		i++
		return true
	})
	return events
}
