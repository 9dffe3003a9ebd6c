package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"potd/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("driver %q: got %v, %v; want nil, nil", driver, st, err)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "redis"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "potd_store")

	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	ctx := context.Background()
	now := time.Now()
	for day := int64(100); day < 103; day++ {
		e := ShownEntry{
			Day: day, Date: "2025-01-0" + string(rune('1'+day-100)),
			Cycle: day / 3, Pos: int(day % 3),
			ItemID: "img", URL: "https://img.example/i.jpg", At: now,
		}
		if err := st.AppendShown(ctx, e); err != nil {
			t.Fatalf("AppendShown day %d: %v", day, err)
		}
	}

	recent, err := st.RecentShown(ctx, 2)
	if err != nil {
		t.Fatalf("RecentShown: %v", err)
	}
	if len(recent) != 2 || recent[0].Day != 102 || recent[1].Day != 101 {
		t.Fatalf("unexpected recent entries: %+v", recent)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen: the tail must survive the restart.
	st2, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()
	recent, err = st2.RecentShown(ctx, 10)
	if err != nil {
		t.Fatalf("RecentShown after reopen: %v", err)
	}
	if len(recent) != 3 || recent[0].Day != 102 {
		t.Fatalf("history lost across reopen: %+v", recent)
	}
}

func TestRecentShownZero(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "potd_store")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	if got, err := st.RecentShown(context.Background(), 0); err != nil || got != nil {
		t.Fatalf("RecentShown(0) = %v, %v", got, err)
	}
}
