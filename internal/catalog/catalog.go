// Package catalog resolves the image collection the daily selection runs
// over.
//
// A listing is fetched from a source (HTTP, file, or inline config) and kept
// as an immutable Snapshot. Selection always runs against one snapshot, so a
// cycle sees a stable list even while refreshes happen in the background; a
// failed refresh keeps the previous snapshot.
package catalog

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"
	"time"

	"potd/pkg/logx"
)

var ErrNoListing = errors.New("catalog: no listing fetched yet")

// Item is one entry of the collection. Only URL is required; ID defaults to
// the URL basename and is what history records refer to.
type Item struct {
	ID    string `json:"id,omitempty"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Snapshot is an immutable view of the collection at fetch time.
type Snapshot struct {
	Items     []Item
	FetchedAt time.Time
	Source    string
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Items)
}

// Source produces the raw listing. Implementations: httpSource, fileSource,
// staticSource.
type Source interface {
	Fetch(ctx context.Context) ([]Item, error)
	Describe() string
}

// Service holds the current snapshot and refreshes it from its source.
type Service struct {
	src Source
	log logx.Logger

	mu   sync.RWMutex
	snap *Snapshot
}

func NewService(src Source, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{src: src, log: log}
}

// SetSource swaps the listing source (config hot reload). The current
// snapshot stays valid until the next Refresh.
func (s *Service) SetSource(src Source) {
	s.mu.Lock()
	s.src = src
	s.mu.Unlock()
}

// Snapshot returns the current snapshot, or ErrNoListing before the first
// successful refresh.
func (s *Service) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, ErrNoListing
	}
	return s.snap, nil
}

// Refresh fetches the listing and swaps the snapshot on success. On failure
// the previous snapshot is kept and the error returned.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.RLock()
	src := s.src
	s.mu.RUnlock()
	if src == nil {
		return errors.New("catalog: no source configured")
	}

	started := time.Now()
	items, err := src.Fetch(ctx)
	if err != nil {
		s.log.Warn("catalog refresh failed",
			logx.String("source", src.Describe()),
			logx.Duration("took", time.Since(started)),
			logx.Err(err))
		return err
	}

	snap := &Snapshot{Items: items, FetchedAt: time.Now(), Source: src.Describe()}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.log.Info("catalog refreshed",
		logx.String("source", snap.Source),
		logx.Int("items", len(items)),
		logx.Duration("took", time.Since(started)))
	return nil
}

// normalize drops entries without a URL and fills missing IDs from the URL
// basename.
func normalize(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		it.URL = strings.TrimSpace(it.URL)
		if it.URL == "" {
			continue
		}
		if strings.TrimSpace(it.ID) == "" {
			it.ID = idFromURL(it.URL)
		}
		out = append(out, it)
	}
	return out
}

func idFromURL(u string) string {
	u = strings.TrimRight(u, "/")
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	base := path.Base(u)
	if base == "." || base == "/" || base == "" {
		return u
	}
	return base
}
