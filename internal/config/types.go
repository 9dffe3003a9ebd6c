package config

// Config is the root of the potd configuration file (JSON or YAML).
//
// Durations are Go duration strings (e.g. "500ms", "10s", "1m").
// Optional sections (server, telegram, storage) disable their feature when
// omitted.
type Config struct {
	Logging  LoggingConfig   `json:"logging"`
	Pick     PickConfig      `json:"pick,omitempty"`
	Catalog  CatalogConfig   `json:"catalog"`
	Schedule ScheduleConfig  `json:"schedule"`
	Server   *ServerConfig   `json:"server,omitempty"`
	Telegram *TelegramConfig `json:"telegram,omitempty"`
	Storage  *StorageConfig  `json:"storage,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// PickConfig controls the selection day boundary.
//
// DayBoundary decides which calendar day "today" is near midnight:
//   - "utc" (default): days roll over at UTC midnight everywhere
//   - "local": days roll over at midnight in schedule.timezone
//
// This changes the observable selection at cycle boundaries, so it is an
// explicit choice rather than a guess.
type PickConfig struct {
	DayBoundary string `json:"day_boundary,omitempty"`
}

// CatalogConfig controls where the image listing comes from.
//
// Source values:
//   - "http": fetch Catalog.URL (JSON array or one URL per line)
//   - "file": read Catalog.Path from disk (same formats)
//   - "static": use Catalog.Items inline
type CatalogConfig struct {
	Source string        `json:"source"`
	URL    string        `json:"url,omitempty"`
	Path   string        `json:"path,omitempty"`
	Items  []CatalogItem `json:"items,omitempty"`

	Timeout    string `json:"timeout,omitempty"`      // per-request (http)
	RetryMax   int    `json:"retry_max,omitempty"`    // extra attempts (http)
	RatePerMin int    `json:"rate_per_min,omitempty"` // outbound budget (http)

	// Refresh is the cron spec for background listing refreshes.
	// Empty means "30 0 * * *" (shortly after the daily rollover).
	Refresh string `json:"refresh,omitempty"`
}

type CatalogItem struct {
	ID    string `json:"id,omitempty"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// ScheduleConfig controls the cron service.
type ScheduleConfig struct {
	Enabled bool `json:"enabled"`

	// Timezone is an IANA zone (e.g. "Europe/Berlin") for cron triggers
	// and, with pick.day_boundary=local, for the selection day boundary.
	// Empty means the host's local zone.
	Timezone string `json:"timezone,omitempty"`

	// Publish is the cron spec for the daily publish job (record + announce).
	// Empty means "0 0 * * *" (midnight).
	Publish string `json:"publish,omitempty"`
}

// ServerConfig controls the HTTP embed server.
type ServerConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:8390"

	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}

// TelegramConfig controls the optional daily announcement.
type TelegramConfig struct {
	Token    string `json:"token"`
	ChatID   int64  `json:"chat_id"`
	ThreadID int    `json:"thread_id,omitempty"`
	Silent   bool   `json:"silent,omitempty"` // send without notification sound
}

// StorageConfig controls the optional selection-history store.
//
// Driver values:
//   - "file": append-only JSON Lines history
//   - "sqlite": SQLite database file (build with -tags sqlite)
//
// Empty or "none" disables history.
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}
