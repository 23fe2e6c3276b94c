package rates

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"presupuesto/internal/core"
)

func upstream(t *testing.T, hits *int64, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRateCachesWithinWindow(t *testing.T) {
	var hits int64
	srv := upstream(t, &hits, `{"rates":{"PEN":3.52}}`, http.StatusOK)

	s := NewService(srv.URL, WithHTTPClient(srv.Client()))
	ctx := context.Background()

	first := s.Rate(ctx)
	second := s.Rate(ctx)
	if first != 3.52 || second != 3.52 {
		t.Fatalf("Rate = %v, %v; want 3.52 both times", first, second)
	}
	if n := atomic.LoadInt64(&hits); n != 1 {
		t.Fatalf("upstream called %d times, want 1", n)
	}
}

func TestRateRefetchesAfterExpiry(t *testing.T) {
	var hits int64
	srv := upstream(t, &hits, `{"rates":{"PEN":3.52}}`, http.StatusOK)

	current := time.Now()
	s := NewService(srv.URL,
		WithHTTPClient(srv.Client()),
		WithClock(func() time.Time { return current }))

	ctx := context.Background()
	s.Rate(ctx)
	current = current.Add(DefaultTTL + time.Minute)
	s.Rate(ctx)

	if n := atomic.LoadInt64(&hits); n != 2 {
		t.Fatalf("upstream called %d times, want 2", n)
	}
}

func TestRateFallsBackOnFailure(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"server error", "oops", http.StatusInternalServerError},
		{"malformed payload", "{not json", http.StatusOK},
		{"missing PEN field", `{"rates":{"EUR":0.9}}`, http.StatusOK},
		{"non-positive rate", `{"rates":{"PEN":-1}}`, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var hits int64
			srv := upstream(t, &hits, tc.body, tc.status)
			s := NewService(srv.URL, WithHTTPClient(srv.Client()))

			if rate := s.Rate(context.Background()); rate != DefaultRate {
				t.Fatalf("Rate = %v, want default %v", rate, DefaultRate)
			}
			// The default is cached for the window, so no immediate retry.
			s.Rate(context.Background())
			if n := atomic.LoadInt64(&hits); n != 1 {
				t.Fatalf("upstream called %d times, want 1", n)
			}
		})
	}
}

func TestRateFallsBackOnUnreachableUpstream(t *testing.T) {
	s := NewService("http://127.0.0.1:1",
		WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}))
	if rate := s.Rate(context.Background()); rate != DefaultRate {
		t.Fatalf("Rate = %v, want default %v", rate, DefaultRate)
	}
}

func TestConvert(t *testing.T) {
	s := NewService("http://unused.invalid")
	s.Set(3.50)
	ctx := context.Background()

	usd, err := s.Convert(ctx, 35.0, core.PEN, core.USD)
	if err != nil || usd != 10.0 {
		t.Fatalf("PEN->USD = %v, %v; want 10", usd, err)
	}
	pen, err := s.Convert(ctx, 10.0, core.USD, core.PEN)
	if err != nil || pen != 35.0 {
		t.Fatalf("USD->PEN = %v, %v; want 35", pen, err)
	}
	same, err := s.Convert(ctx, 12.34, core.PEN, core.PEN)
	if err != nil || same != 12.34 {
		t.Fatalf("PEN->PEN = %v, %v; want 12.34", same, err)
	}
	if _, err := s.Convert(ctx, 1, "EUR", core.PEN); err == nil {
		t.Fatal("expected error for unsupported currency")
	}
}

func TestConvertRoundTrip(t *testing.T) {
	s := NewService("http://unused.invalid")
	s.Set(3.73)
	ctx := context.Background()

	for _, x := range []float64{0.01, 1, 42.42, 999999.99} {
		usd, _ := s.Convert(ctx, x, core.PEN, core.USD)
		back, _ := s.Convert(ctx, usd, core.USD, core.PEN)
		if math.Abs(back-x) > 1e-9*math.Max(1, x) {
			t.Fatalf("round trip of %v gave %v", x, back)
		}
	}
}

func TestSetAndClear(t *testing.T) {
	var hits int64
	srv := upstream(t, &hits, `{"rates":{"PEN":3.52}}`, http.StatusOK)
	s := NewService(srv.URL, WithHTTPClient(srv.Client()))

	s.Set(4.0)
	if rate := s.Rate(context.Background()); rate != 4.0 {
		t.Fatalf("Rate after Set = %v, want 4.0", rate)
	}
	if atomic.LoadInt64(&hits) != 0 {
		t.Fatal("Set should not trigger a fetch")
	}

	s.Clear()
	if rate := s.Rate(context.Background()); rate != 3.52 {
		t.Fatalf("Rate after Clear = %v, want fetched 3.52", rate)
	}
	if atomic.LoadInt64(&hits) != 1 {
		t.Fatal("Clear should force the next call to fetch")
	}
}
