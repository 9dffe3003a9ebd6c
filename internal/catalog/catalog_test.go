package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"potd/pkg/logx"
)

func TestParseListingFormats(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		body  string
		want  []Item
		fails bool
	}{
		{
			name: "json objects",
			body: `[{"id":"a","url":"https://img.example/a.jpg","title":"A"},{"url":"https://img.example/b.jpg"}]`,
			want: []Item{
				{ID: "a", URL: "https://img.example/a.jpg", Title: "A"},
				{ID: "b.jpg", URL: "https://img.example/b.jpg"},
			},
		},
		{
			name: "json strings",
			body: `["https://img.example/x.png", "https://img.example/y.png"]`,
			want: []Item{
				{ID: "x.png", URL: "https://img.example/x.png"},
				{ID: "y.png", URL: "https://img.example/y.png"},
			},
		},
		{
			name: "line delimited with comments",
			body: "# daily images\nhttps://img.example/1.jpg\n\nhttps://img.example/2.jpg\n",
			want: []Item{
				{ID: "1.jpg", URL: "https://img.example/1.jpg"},
				{ID: "2.jpg", URL: "https://img.example/2.jpg"},
			},
		},
		{
			name: "entries without url dropped",
			body: `[{"id":"ghost"},{"url":"https://img.example/ok.jpg"}]`,
			want: []Item{{ID: "ok.jpg", URL: "https://img.example/ok.jpg"}},
		},
		{name: "empty body", body: "   \n", want: []Item{}},
		{name: "broken json", body: `[{"url":`, fails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseListing([]byte(tt.body))
			if tt.fails {
				if err == nil {
					t.Fatalf("expected parse error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseListing: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d items, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("item %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestIDFromURL(t *testing.T) {
	t.Parallel()
	tests := []struct{ url, want string }{
		{"https://img.example/photos/sunset.jpg", "sunset.jpg"},
		{"https://img.example/photos/sunset.jpg?w=1024", "sunset.jpg"},
		{"https://img.example/photos/", "photos"},
	}
	for _, tt := range tests {
		if got := idFromURL(tt.url); got != tt.want {
			t.Fatalf("idFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestFileSource(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "listing.txt")
	if err := os.WriteFile(path, []byte("https://img.example/a.jpg\nhttps://img.example/b.jpg\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	src, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	items, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 || items[0].ID != "a.jpg" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestStaticSourceCopies(t *testing.T) {
	t.Parallel()
	src := NewStatic([]Item{{URL: "https://img.example/a.jpg"}})
	a, _ := src.Fetch(context.Background())
	a[0].URL = "mutated"
	b, _ := src.Fetch(context.Background())
	if b[0].URL != "https://img.example/a.jpg" {
		t.Fatalf("static source leaked internal slice: %+v", b)
	}
}

type flakySource struct {
	items []Item
	fail  bool
}

func (f *flakySource) Describe() string { return "flaky" }
func (f *flakySource) Fetch(ctx context.Context) ([]Item, error) {
	if f.fail {
		return nil, errors.New("listing unavailable")
	}
	return f.items, nil
}

func TestServiceKeepsSnapshotOnFailedRefresh(t *testing.T) {
	t.Parallel()
	src := &flakySource{items: []Item{{ID: "a", URL: "https://img.example/a.jpg"}}}
	svc := NewService(src, logx.Nop())

	if _, err := svc.Snapshot(); !errors.Is(err, ErrNoListing) {
		t.Fatalf("expected ErrNoListing before first refresh, got %v", err)
	}

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	snap, err := svc.Snapshot()
	if err != nil || snap.Len() != 1 {
		t.Fatalf("Snapshot after refresh: %v %v", snap, err)
	}

	src.fail = true
	if err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	again, err := svc.Snapshot()
	if err != nil || again != snap {
		t.Fatalf("failed refresh must keep previous snapshot, got %v %v", again, err)
	}
}
