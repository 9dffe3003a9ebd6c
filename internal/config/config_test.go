package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "potd.yaml", `
logging:
  level: debug
  console: true
pick:
  day_boundary: local
catalog:
  source: http
  url: https://img.example/listing.json
  retry_max: 4
  refresh: "15 0 * * *"
schedule:
  enabled: true
  timezone: Europe/Berlin
  publish: "0 0 * * *"
server:
  enabled: true
  addr: 127.0.0.1:8390
storage:
  driver: file
  path: ./potd_history
`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Console {
		t.Fatalf("logging section: %+v", cfg.Logging)
	}
	if cfg.Pick.DayBoundary != "local" {
		t.Fatalf("pick section: %+v", cfg.Pick)
	}
	if cfg.Catalog.Source != "http" || cfg.Catalog.RetryMax != 4 {
		t.Fatalf("catalog section: %+v", cfg.Catalog)
	}
	if cfg.Schedule.Timezone != "Europe/Berlin" {
		t.Fatalf("schedule section: %+v", cfg.Schedule)
	}
	if cfg.Server == nil || cfg.Server.Addr != "127.0.0.1:8390" {
		t.Fatalf("server section: %+v", cfg.Server)
	}
	if cfg.Telegram != nil {
		t.Fatalf("telegram should be nil when omitted: %+v", cfg.Telegram)
	}
	if cfg.Storage == nil || cfg.Storage.Driver != "file" {
		t.Fatalf("storage section: %+v", cfg.Storage)
	}
}

func TestLoadJSONStatic(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "potd.json", `{
  "logging": {"level": "info", "console": true, "file": {"enabled": false, "path": ""}},
  "catalog": {"source": "static", "items": [{"url": "https://img.example/a.jpg", "title": "A"}]},
  "schedule": {"enabled": true}
}`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Catalog.Items) != 1 || cfg.Catalog.Items[0].Title != "A" {
		t.Fatalf("static items: %+v", cfg.Catalog.Items)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "potd.yaml", `
logging:
  level: info
  consoles: true
catalog:
  source: static
schedule:
  enabled: true
`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for unknown field")
	} else if !strings.Contains(err.Error(), "consoles") {
		t.Fatalf("error should name the unknown field: %v", err)
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "potd.json", `{"catalog": {"source": "static"}, "logging": {"level":"info","console":true,"file":{"enabled":false,"path":""}}, "schedule": {"enabled": false}}{"extra": 1}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("x", " 90s "); err != nil || d != 90*time.Second {
		t.Fatalf("got %v, %v", d, err)
	}
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty should be 0, got %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatal("negative duration must fail")
	}
	if _, err := ParseDurationField("x", "soon"); err == nil {
		t.Fatal("junk duration must fail")
	}
	if d, err := ParseDurationOrDefault("x", "", 7*time.Second); err != nil || d != 7*time.Second {
		t.Fatalf("default not applied: %v, %v", d, err)
	}
}

func TestSummarizeChange(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{
		Logging: LoggingConfig{Level: "info", Console: true},
		Catalog: CatalogConfig{Source: "static"},
	}
	newCfg := &Config{
		Logging:  LoggingConfig{Level: "debug", Console: true},
		Catalog:  CatalogConfig{Source: "static"},
		Telegram: &TelegramConfig{Token: "t", ChatID: 42},
	}

	changed, _ := SummarizeChange(oldCfg, newCfg)
	want := map[string]bool{"logging": true, "telegram": true}
	if len(changed) != len(want) {
		t.Fatalf("changed = %v", changed)
	}
	for _, c := range changed {
		if !want[c] {
			t.Fatalf("unexpected changed section %q in %v", c, changed)
		}
	}

	if changed, _ := SummarizeChange(newCfg, newCfg); len(changed) != 0 {
		t.Fatalf("identical configs reported changes: %v", changed)
	}
}
