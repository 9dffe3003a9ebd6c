// Package schedule wraps robfig/cron with timezone handling and panic-safe
// job execution. Jobs are registered once and survive Stop/Start and
// timezone changes from config reloads.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"potd/pkg/logx"
)

type Config struct {
	Enabled  bool
	Timezone string // IANA TZ, e.g. "Europe/Berlin"; empty means host local
}

type jobDef struct {
	name    string
	spec    string
	timeout time.Duration
	run     func(ctx context.Context) error

	entry cron.EntryID
}

type Service struct {
	mu sync.Mutex

	log    logx.Logger
	cfg    Config
	parser cron.Parser

	c    *cron.Cron
	loc  *time.Location
	defs []*jobDef

	runCtx    context.Context
	runCancel context.CancelFunc
}

func New(cfg Config, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:    cfg,
		log:    log,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// ValidateSpec reports whether spec parses with the service's cron dialect.
func (s *Service) ValidateSpec(spec string) error {
	_, err := s.parser.Parse(strings.TrimSpace(spec))
	return err
}

// Add registers a named cron job. If the scheduler is running the job is
// armed immediately, otherwise on the next Start.
func (s *Service) Add(name, spec string, timeout time.Duration, run func(ctx context.Context) error) error {
	if run == nil {
		return errors.New("schedule: nil job")
	}
	spec = strings.TrimSpace(spec)
	if _, err := s.parser.Parse(spec); err != nil {
		return fmt.Errorf("schedule: job %s: invalid spec %q: %w", name, spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d := &jobDef{name: name, spec: spec, timeout: timeout, run: run}
	s.defs = append(s.defs, d)
	if s.c != nil {
		s.armLocked(d)
	}
	return nil
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil || !s.cfg.Enabled {
		return
	}
	s.runCtx, s.runCancel = context.WithCancel(ctx)

	s.loc = s.loadLocationLocked()
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(s.loc))
	for _, d := range s.defs {
		s.armLocked(d)
	}
	s.c.Start()
	s.log.Info("scheduler started",
		logx.Int("jobs", len(s.defs)),
		logx.String("tz", s.loc.String()))
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return
	}
	stop := s.c.Stop()
	s.c = nil
	if s.runCancel != nil {
		s.runCancel()
		s.runCancel = nil
	}
	<-stop.Done()
	s.log.Info("scheduler stopped")
}

// Apply handles config hot reload. A timezone change restarts cron and
// re-arms every job in the new location.
func (s *Service) Apply(ctx context.Context, cfg Config) {
	s.mu.Lock()
	oldTZ := strings.TrimSpace(s.cfg.Timezone)
	wasEnabled := s.cfg.Enabled
	s.cfg = cfg
	running := s.c != nil
	s.mu.Unlock()

	switch {
	case running && !cfg.Enabled:
		s.Stop()
	case !running && cfg.Enabled && !wasEnabled:
		s.Start(ctx)
	case running && oldTZ != strings.TrimSpace(cfg.Timezone):
		s.Stop()
		s.Start(ctx)
	}
}

// Location returns the zone cron triggers run in (also used for the
// local-midnight day boundary).
func (s *Service) Location() *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loc != nil {
		return s.loc
	}
	return s.loadLocationLocked()
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone; using local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

func (s *Service) armLocked(d *jobDef) {
	runCtx := s.runCtx
	id, err := s.c.AddFunc(d.spec, func() { s.runJob(runCtx, d) })
	if err != nil {
		// Spec was validated in Add; only a programming error gets here.
		s.log.Error("failed arming job", logx.String("job", d.name), logx.Err(err))
		return
	}
	d.entry = id
}

func (s *Service) runJob(ctx context.Context, d *jobDef) {
	if ctx == nil || ctx.Err() != nil {
		return
	}
	jctx := ctx
	var cancel context.CancelFunc
	if d.timeout > 0 {
		jctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("job panicked",
				logx.String("job", d.name),
				logx.Any("panic", r),
				logx.String("stack", string(debug.Stack())))
		}
	}()

	if err := d.run(jctx); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("job failed",
			logx.String("job", d.name),
			logx.Duration("took", time.Since(started)),
			logx.Err(err))
		return
	}
	s.log.Debug("job done",
		logx.String("job", d.name),
		logx.Duration("took", time.Since(started)))
}
