// Package server exposes the picture of the day over HTTP: a JSON
// endpoint, a redirect to the image itself, and a minimal HTML embed page.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"potd/internal/catalog"
	"potd/internal/pick"
	"potd/internal/storage"
	"potd/pkg/logx"
)

// Config controls the optional HTTP server.
type Config struct {
	Enabled bool
	Addr    string // default: "127.0.0.1:8390"

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:8390"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 5 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 60 * time.Second
	}
	return c
}

// Deps are the server's collaborators. Today resolves the current day count
// and its YYYY-MM-DD rendering under the configured day-boundary policy.
type Deps struct {
	Catalog *catalog.Service
	Store   storage.Store // may be nil (history disabled)
	Today   func() (days int64, date string)
}

// Server manages lifecycle for the HTTP listener.
type Server struct {
	mu   sync.Mutex
	log  logx.Logger
	deps Deps
	srv  *http.Server
	ln   net.Listener
	addr string
}

func New(deps Deps, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Server{log: log.With(logx.String("comp", "server")), deps: deps}
}

// Addr returns the bound address, or "" when not listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Apply starts/stops the server according to cfg.
func (s *Server) Apply(ctx context.Context, cfg Config) {
	cfg = cfg.withDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !cfg.Enabled {
		s.stopLocked(ctx)
		return
	}
	if s.srv != nil && s.addr == cfg.Addr {
		return
	}
	s.stopLocked(ctx)
	s.startLocked(cfg)
}

func (s *Server) startLocked(cfg Config) {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		s.log.Warn("listen failed", logx.String("addr", cfg.Addr), logx.Err(err))
		return
	}

	s.srv = srv
	s.ln = ln
	s.addr = ln.Addr().String()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("server error", logx.Err(err))
		}
	}()
	s.log.Info("http server enabled", logx.String("addr", s.addr))
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(ctx)
}

func (s *Server) stopLocked(ctx context.Context) {
	if s.srv == nil {
		return
	}
	srv := s.srv
	ln := s.ln
	addr := s.addr
	s.srv = nil
	s.ln = nil
	s.addr = ""

	shutdownCtx := ctx
	if shutdownCtx == nil {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Warn("shutdown error", logx.String("addr", addr), logx.Err(err))
	}
	if ln != nil {
		_ = ln.Close()
	}
	s.log.Info("http server disabled", logx.String("addr", addr))
}

// Handler builds the route mux. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /today.json", s.handleTodayJSON)
	mux.HandleFunc("GET /today/image", s.handleTodayImage)
	mux.HandleFunc("GET /embed", s.handleEmbed)
	mux.HandleFunc("GET /history.json", s.handleHistory)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return mux
}

// Selection is the JSON shape of a daily pick.
type Selection struct {
	Date  string       `json:"date"`
	Day   int64        `json:"day"`
	Cycle int64        `json:"cycle"`
	Pos   int          `json:"pos"`
	Item  catalog.Item `json:"item"`
}

var errEmptyCatalog = errors.New("catalog is empty")

// selectToday composes the pure selection over the current snapshot.
func (s *Server) selectToday() (*Selection, error) {
	snap, err := s.deps.Catalog.Snapshot()
	if err != nil {
		return nil, err
	}
	days, date := s.deps.Today()
	seed, pos, ok := pick.Cycle(days, snap.Len())
	if !ok {
		return nil, errEmptyCatalog
	}
	item := pick.Shuffle(snap.Items, seed)[pos]
	return &Selection{Date: date, Day: days, Cycle: seed, Pos: pos, Item: item}, nil
}

func (s *Server) handleTodayJSON(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selectToday()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

func (s *Server) handleTodayImage(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selectToday()
	if err != nil {
		writeError(w, err)
		return
	}
	http.Redirect(w, r, sel.Item.URL, http.StatusFound)
}

var embedTmpl = template.Must(template.New("embed").Parse(`<!doctype html>
<meta charset="utf-8">
<title>Picture of the day</title>
<figure style="margin:0">
<img src="{{.Item.URL}}" alt="{{if .Item.Title}}{{.Item.Title}}{{else}}Picture of the day{{end}}" style="max-width:100%">
{{if .Item.Title}}<figcaption>{{.Item.Title}}</figcaption>{{end}}
</figure>
`))

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selectToday()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// The pick changes at most once a day; let embeds cache briefly.
	w.Header().Set("Cache-Control", "public, max-age=300")
	if err := embedTmpl.Execute(w, sel); err != nil {
		s.log.Warn("embed render failed", logx.Err(err))
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history disabled"})
		return
	}
	entries, err := s.deps.Store.RecentShown(r.Context(), 30)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []storage.ShownEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	type health struct {
		Status    string    `json:"status"`
		Items     int       `json:"items"`
		FetchedAt time.Time `json:"fetched_at,omitempty"`
		Source    string    `json:"source,omitempty"`
	}
	h := health{Status: "ok"}
	if snap, err := s.deps.Catalog.Snapshot(); err == nil {
		h.Items = snap.Len()
		h.FetchedAt = snap.FetchedAt
		h.Source = snap.Source
	} else {
		h.Status = "no listing"
	}
	code := http.StatusOK
	if h.Items == 0 {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, h)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errEmptyCatalog), errors.Is(err, catalog.ErrNoListing):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no image available"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	// Headers are already out; an encode failure here is unrecoverable.
	_ = json.NewEncoder(w).Encode(v)
}
