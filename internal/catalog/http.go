package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"potd/pkg/logx"
)

// HTTPConfig configures the remote listing fetcher.
type HTTPConfig struct {
	URL        string
	Timeout    time.Duration // per-request; 0 means 15s
	RetryMax   int           // additional attempts after the first; 0 means 2
	RatePerMin int           // outbound request budget; 0 means 6/min
}

// httpSource fetches the listing over HTTP with retry, outbound rate
// limiting, and best-effort ETag revalidation.
type httpSource struct {
	cfg     HTTPConfig
	log     logx.Logger
	client  *http.Client
	limiter *rate.Limiter

	mu     sync.Mutex
	etag   string
	cached []Item
}

func NewHTTP(cfg HTTPConfig, log logx.Logger) (Source, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("catalog: http source requires a url")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 2
	}
	if cfg.RatePerMin <= 0 {
		cfg.RatePerMin = 6
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &httpSource{
		cfg:     cfg,
		log:     log,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RatePerMin)/60.0), 1),
	}, nil
}

func (s *httpSource) Describe() string { return "http:" + s.cfg.URL }

func (s *httpSource) Fetch(ctx context.Context) ([]Item, error) {
	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt <= s.cfg.RetryMax; attempt++ {
		if attempt > 0 {
			// Jittered exponential backoff between attempts.
			wait := backoff + time.Duration(rand.Int63n(int64(backoff/2)+1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			backoff *= 2
		}

		items, retryable, err := s.fetchOnce(ctx)
		if err == nil {
			return items, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		s.log.Debug("listing fetch retrying",
			logx.Int("attempt", attempt+1),
			logx.Err(err))
	}
	return nil, fmt.Errorf("catalog: fetch %s: %w", s.cfg.URL, lastErr)
}

func (s *httpSource) fetchOnce(ctx context.Context) (items []Item, retryable bool, err error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	if s.etag != "" {
		req.Header.Set("If-None-Match", s.etag)
	}
	s.mu.Unlock()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		s.mu.Lock()
		cached := s.cached
		s.mu.Unlock()
		if cached == nil {
			// Stale validator with no cache; drop it and retry fresh.
			s.mu.Lock()
			s.etag = ""
			s.mu.Unlock()
			return nil, true, errors.New("304 without cached listing")
		}
		return cached, false, nil
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("listing status %s", resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("listing status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, true, err
	}
	items, err = parseListing(body)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	s.etag = resp.Header.Get("ETag")
	s.cached = items
	s.mu.Unlock()
	return items, false, nil
}
