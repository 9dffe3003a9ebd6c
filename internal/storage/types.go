package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free JSON Lines backend
//   - "sqlite": SQLite database file (build with -tags sqlite)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// ShownEntry records one daily selection. Keep it compact and
// schema-stable.
type ShownEntry struct {
	Day    int64     `json:"day"`  // day count since the Unix epoch
	Date   string    `json:"date"` // YYYY-MM-DD, per the configured day boundary
	Cycle  int64     `json:"cycle"`
	Pos    int       `json:"pos"`
	ItemID string    `json:"item_id"`
	URL    string    `json:"url"`
	Title  string    `json:"title,omitempty"`
	At     time.Time `json:"at"`
}
