package catalog

import (
	"context"
	"errors"
	"os"
	"strings"
)

// fileSource reads the listing from a local file (same formats as HTTP).
type fileSource struct {
	path string
}

func NewFile(path string) (Source, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog: file source requires a path")
	}
	return &fileSource{path: path}, nil
}

func (s *fileSource) Describe() string { return "file:" + s.path }

func (s *fileSource) Fetch(ctx context.Context) ([]Item, error) {
	_ = ctx
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	return parseListing(data)
}

// staticSource serves a fixed listing straight from config.
type staticSource struct {
	items []Item
}

func NewStatic(items []Item) Source {
	return &staticSource{items: normalize(items)}
}

func (s *staticSource) Describe() string { return "static" }

func (s *staticSource) Fetch(ctx context.Context) ([]Item, error) {
	_ = ctx
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out, nil
}
