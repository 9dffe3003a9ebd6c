package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"potd/pkg/logx"
)

// fileStore is a dependency-free persistence backend: one append-only JSON
// Lines file (<prefix>.history.jsonl). History grows by one line per day, so
// the whole tail fits comfortably in memory.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	f    *os.File
	tail []ShownEntry // oldest first, capped at tailCap
}

const tailCap = 4096

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(filepath.Base(path)))
	histPath := filepath.Join(dir, base) + ".history.jsonl"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	tail, err := loadHistoryTail(histPath, tailCap)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(histPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	return &fileStore{log: log, f: f, tail: tail}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

func (s *fileStore) AppendShown(ctx context.Context, e ShownEntry) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return errors.New("history file closed")
	}
	if err := json.NewEncoder(s.f).Encode(e); err != nil {
		return err
	}
	s.tail = append(s.tail, e)
	if len(s.tail) > tailCap {
		s.tail = s.tail[len(s.tail)-tailCap:]
	}
	return nil
}

func (s *fileStore) RecentShown(ctx context.Context, n int) ([]ShownEntry, error) {
	_ = ctx
	if n <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.tail) {
		n = len(s.tail)
	}
	out := make([]ShownEntry, 0, n)
	for i := len(s.tail) - 1; i >= len(s.tail)-n; i-- {
		out = append(out, s.tail[i])
	}
	return out, nil
}

func loadHistoryTail(path string, limit int) ([]ShownEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var tail []ShownEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var e ShownEntry
		// Skip torn/corrupt lines rather than refusing to start.
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		tail = append(tail, e)
		if len(tail) > limit {
			tail = tail[len(tail)-limit:]
		}
	}
	return tail, sc.Err()
}
