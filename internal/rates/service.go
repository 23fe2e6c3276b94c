// Package rates provides the USD/PEN exchange rate used by the
// transaction entry form, cached for a fixed freshness window so the
// upstream provider is not hit on every render.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"presupuesto/internal/core"
)

// DefaultRate is the fallback applied when the upstream provider fails.
const DefaultRate = 3.75

// DefaultTTL is the freshness window for a fetched rate.
const DefaultTTL = time.Hour

type cachedRate struct {
	rate      float64
	fetchedAt time.Time
}

// Service fetches and caches the PEN-per-USD exchange rate. The cache is a
// single slot shared process-wide; concurrent cold-cache callers may each
// fetch, which is harmless because the fetch is idempotent.
type Service struct {
	client *http.Client
	url    string
	ttl    time.Duration
	def    float64
	now    func() time.Time

	mu   sync.Mutex
	slot *cachedRate
}

// Option configures a Service.
type Option func(*Service)

// WithHTTPClient overrides the HTTP client used for upstream fetches.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.client = c }
}

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithDefaultRate overrides the fallback rate.
func WithDefaultRate(rate float64) Option {
	return func(s *Service) { s.def = rate }
}

// WithClock overrides the time source. Test seam.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a rate service fetching from url.
func NewService(url string, opts ...Option) *Service {
	s := &Service{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		ttl:    DefaultTTL,
		def:    DefaultRate,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rate returns the PEN-per-USD rate, from cache when fresh. Upstream
// failures resolve to the default rate and are logged, never returned; the
// resolved value is cached for the full window either way, bounding retry
// storms against a failing upstream.
func (s *Service) Rate(ctx context.Context) float64 {
	now := s.now()

	s.mu.Lock()
	if s.slot != nil && now.Sub(s.slot.fetchedAt) < s.ttl {
		rate := s.slot.rate
		s.mu.Unlock()
		return rate
	}
	s.mu.Unlock()

	rate, err := s.fetch(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Exchange rate fetch failed, using default",
			"error", err,
			"default_rate", s.def,
			"url", s.url)
		rate = s.def
	}

	s.mu.Lock()
	s.slot = &cachedRate{rate: rate, fetchedAt: now}
	s.mu.Unlock()

	return rate
}

// Convert converts amount between PEN and USD using the current rate.
// Same-currency conversion is the identity.
func (s *Service) Convert(ctx context.Context, amount float64, from, to core.Currency) (float64, error) {
	if !from.Valid() || !to.Valid() {
		return 0, core.ErrInvalidCurrency
	}
	if from == to {
		return amount, nil
	}
	rate := s.Rate(ctx)
	if from == core.PEN {
		return amount / rate, nil
	}
	return amount * rate, nil
}

// Set injects a rate directly, stamped with the current time. Test seam and
// admin override.
func (s *Service) Set(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slot = &cachedRate{rate: rate, fetchedAt: s.now()}
}

// Clear empties the cache slot so the next Rate call fetches.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slot = nil
}

type upstreamPayload struct {
	Rates map[string]json.Number `json:"rates"`
}

func (s *Service) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, fmt.Errorf("build rate request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate request failed: status %d", resp.StatusCode)
	}

	var payload upstreamPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode rate payload: %w", err)
	}

	pen, ok := payload.Rates["PEN"]
	if !ok {
		return 0, fmt.Errorf("rate payload missing PEN rate")
	}
	rate, err := pen.Float64()
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("invalid PEN rate %q", pen.String())
	}

	slog.DebugContext(ctx, "Exchange rate fetched", "rate", rate)
	return rate, nil
}
