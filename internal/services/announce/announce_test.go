package announce

import (
	"strings"
	"testing"

	"potd/internal/catalog"
	"potd/pkg/logx"
)

func TestNewRequiresTokenAndChat(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{Token: "", ChatID: 1}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty token")
	}
	if _, err := New(Config{Token: "t", ChatID: 0}, logx.Nop()); err == nil {
		t.Fatal("expected error for missing chat id")
	}
}

func TestCaption(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		item catalog.Item
		want string
	}{
		{
			name: "title",
			item: catalog.Item{ID: "a.jpg", Title: "Aurora"},
			want: "<b>Aurora</b>\nPicture of the day (2026-08-23)",
		},
		{
			name: "falls back to id",
			item: catalog.Item{ID: "a.jpg"},
			want: "<b>a.jpg</b>\nPicture of the day (2026-08-23)",
		},
		{
			name: "no title at all",
			item: catalog.Item{URL: "https://img.example/x"},
			want: "Picture of the day (2026-08-23)",
		},
		{
			name: "html escaped",
			item: catalog.Item{ID: "x", Title: "<Dawn & Dusk>"},
			want: "<b>&lt;Dawn &amp; Dusk&gt;</b>\nPicture of the day (2026-08-23)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Caption(tt.item, "2026-08-23")
			if got != tt.want {
				t.Fatalf("Caption = %q, want %q", got, tt.want)
			}
			if strings.Contains(got, "&lt;b&gt;") {
				t.Fatal("formatting tags must not be escaped")
			}
		})
	}
}
