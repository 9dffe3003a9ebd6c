package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"potd/pkg/logx"
)

func newTestHTTP(t *testing.T, url string) Source {
	t.Helper()
	src, err := NewHTTP(HTTPConfig{
		URL:        url,
		Timeout:    2 * time.Second,
		RetryMax:   2,
		RatePerMin: 6000, // effectively unlimited in tests
	}, logx.Nop())
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	return src
}

func TestHTTPFetch(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["https://img.example/a.jpg","https://img.example/b.jpg"]`))
	}))
	defer ts.Close()

	items, err := newTestHTTP(t, ts.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 || items[1].ID != "b.jpg" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestHTTPFetchRetriesServerErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("https://img.example/a.jpg\n"))
	}))
	defer ts.Close()

	items, err := newTestHTTP(t, ts.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch after retries: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("unexpected items: %+v", items)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestHTTPFetchDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	if _, err := newTestHTTP(t, ts.URL).Fetch(context.Background()); err == nil {
		t.Fatal("expected error for 404")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("404 must not be retried, got %d attempts", got)
	}
}

func TestHTTPFetchUsesETag(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte("https://img.example/a.jpg\n"))
	}))
	defer ts.Close()

	src := newTestHTTP(t, ts.URL)
	first, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	second, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("revalidated Fetch: %v", err)
	}
	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Fatalf("revalidated listing differs: %+v vs %+v", first, second)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 requests, got %d", got)
	}
}
