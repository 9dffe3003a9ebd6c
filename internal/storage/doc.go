package storage

// Package storage persists the daily selection history (which image was
// shown on which day). It is observability only: the selection core never
// reads it, selection is recomputed from the date alone.
