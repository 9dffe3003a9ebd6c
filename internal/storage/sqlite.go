//go:build sqlite
// +build sqlite

package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"potd/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) AppendShown(ctx context.Context, e ShownEntry) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	// A re-run for the same day overwrites: selection is deterministic, so
	// the row can only change if the listing changed.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shown(day, date, cycle, pos, item_id, url, title, at)
		 VALUES(?,?,?,?,?,?,?,?)
		 ON CONFLICT(day) DO UPDATE SET
		   date=excluded.date, cycle=excluded.cycle, pos=excluded.pos,
		   item_id=excluded.item_id, url=excluded.url, title=excluded.title, at=excluded.at`,
		e.Day, e.Date, e.Cycle, e.Pos, e.ItemID, e.URL, nullStr(e.Title), e.At.Format(time.RFC3339Nano),
	)
	return err
}

func (s *sqliteStore) RecentShown(ctx context.Context, n int) ([]ShownEntry, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT day, date, cycle, pos, item_id, url, COALESCE(title, ''), at
		 FROM shown ORDER BY day DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShownEntry
	for rows.Next() {
		var e ShownEntry
		var at string
		if err := rows.Scan(&e.Day, &e.Date, &e.Cycle, &e.Pos, &e.ItemID, &e.URL, &e.Title, &at); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, at); err == nil {
			e.At = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
