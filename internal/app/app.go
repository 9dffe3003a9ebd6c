// Package app is the composition root: it obtains the collection from the
// catalog, runs the pure daily selection, and hands the result to the
// rendering collaborators (HTTP server, Telegram announcer, history store).
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"potd/internal/catalog"
	"potd/internal/config"
	"potd/internal/runtime/supervisor"
	"potd/internal/server"
	"potd/internal/services/announce"
	"potd/internal/services/schedule"
	"potd/internal/storage"
	"potd/pkg/logx"
)

const (
	defaultPublishSpec = "0 0 * * *"  // midnight in the schedule timezone
	defaultRefreshSpec = "30 0 * * *" // re-list shortly after the rollover
)

type App struct {
	cfgPath string
	cfgm    *config.Manager

	logs *logx.Service
	log  logx.Logger

	sup *supervisor.Supervisor

	cat   *catalog.Service
	store storage.Store
	sched *schedule.Service
	srv   *server.Server
	ann   *announce.Service // nil when telegram is not configured

	boundaryMu  sync.Mutex
	dayBoundary string // "utc" (default) or "local"
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	a := &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		logs:    logSvc,
		log:     log,
	}
	a.setBoundary(cfg.Pick.DayBoundary)

	src, err := a.buildSource(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	a.cat = catalog.NewService(src, logSvc.Logger().With(logx.String("comp", "catalog")))

	if cfg.Storage != nil {
		busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
		if err != nil {
			return nil, err
		}
		st, err := storage.Open(storage.Config{
			Driver:      cfg.Storage.Driver,
			Path:        cfg.Storage.Path,
			BusyTimeout: busy,
		}, logSvc.Logger().With(logx.String("comp", "storage")))
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		a.store = st
	}

	a.sched = schedule.New(schedule.Config{
		Enabled:  cfg.Schedule.Enabled,
		Timezone: cfg.Schedule.Timezone,
	}, logSvc.Logger().With(logx.String("comp", "schedule")))

	a.srv = server.New(server.Deps{
		Catalog: a.cat,
		Store:   a.store,
		Today:   a.today,
	}, logSvc.Logger())

	if cfg.Telegram != nil && strings.TrimSpace(cfg.Telegram.Token) != "" {
		ann, err := announce.New(announce.Config{
			Token:    cfg.Telegram.Token,
			ChatID:   cfg.Telegram.ChatID,
			ThreadID: cfg.Telegram.ThreadID,
			Silent:   cfg.Telegram.Silent,
		}, logSvc.Logger().With(logx.String("comp", "announce")))
		if err != nil {
			return nil, err
		}
		a.ann = ann
	}

	// Fail fast on a config that Watch() would later reject.
	if err := a.validateConfig(context.Background(), cfg); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *App) buildSource(cfg config.CatalogConfig) (catalog.Source, error) {
	timeout, err := config.ParseDurationField("catalog.timeout", cfg.Timeout)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Source)) {
	case "http":
		return catalog.NewHTTP(catalog.HTTPConfig{
			URL:        cfg.URL,
			Timeout:    timeout,
			RetryMax:   cfg.RetryMax,
			RatePerMin: cfg.RatePerMin,
		}, a.logs.Logger().With(logx.String("comp", "catalog")))
	case "file":
		return catalog.NewFile(cfg.Path)
	case "static":
		items := make([]catalog.Item, 0, len(cfg.Items))
		for _, it := range cfg.Items {
			items = append(items, catalog.Item{ID: it.ID, URL: it.URL, Title: it.Title})
		}
		return catalog.NewStatic(items), nil
	default:
		return nil, fmt.Errorf("catalog.source: unknown source %q", cfg.Source)
	}
}

// Done is closed when the supervisor context is canceled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithCancelOnError(true))

	a.cfgm.SetLogger(a.logs.Logger().With(logx.String("comp", "config")))
	a.cfgm.SetValidator(a.validateConfig)

	cfg := a.cfgm.Get()

	// First listing fetch. A failure is not fatal: the refresh job and the
	// restartable fetch loop below will keep trying.
	fctx, cancel := context.WithTimeout(a.sup.Context(), 30*time.Second)
	err := a.cat.Refresh(fctx)
	cancel()
	if err != nil {
		a.log.Warn("initial listing fetch failed; will retry", logx.Err(err))
		a.sup.GoRestart("catalog.bootstrap", func(ctx context.Context) error {
			if _, err := a.cat.Snapshot(); err == nil {
				return nil
			}
			return a.cat.Refresh(ctx)
		})
	}

	publishSpec := strings.TrimSpace(cfg.Schedule.Publish)
	if publishSpec == "" {
		publishSpec = defaultPublishSpec
	}
	refreshSpec := strings.TrimSpace(cfg.Catalog.Refresh)
	if refreshSpec == "" {
		refreshSpec = defaultRefreshSpec
	}
	if err := a.sched.Add("publish", publishSpec, 2*time.Minute, a.publishJob); err != nil {
		return err
	}
	if err := a.sched.Add("catalog.refresh", refreshSpec, 5*time.Minute, a.cat.Refresh); err != nil {
		return err
	}
	a.sched.Start(a.sup.Context())

	if cfg.Server != nil {
		srvCfg, err := a.serverConfig(cfg.Server)
		if err != nil {
			return err
		}
		a.srv.Apply(a.sup.Context(), srvCfg)
	}

	// Record (and, when missed, announce) today's pick right away so a
	// restart after midnight still publishes the day.
	a.sup.Go("publish.startup", func(ctx context.Context) error {
		a.publishToday(ctx, false)
		return nil
	})

	a.sup.Go("config.watch", a.cfgm.Watch)
	a.sup.Go("config.apply", a.applyLoop)

	a.notifyReady()
	a.startWatchdog()

	a.log.Info("potd started", logx.String("config", a.cfgPath))
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	a.notifyStopping()

	if a.sup != nil {
		a.sup.Cancel()
	}
	a.sched.Stop()
	a.srv.Stop(ctx)

	var err error
	if a.sup != nil {
		err = a.sup.Wait(ctx)
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	_ = a.logs.Close()
	return err
}

func (a *App) serverConfig(cfg *config.ServerConfig) (server.Config, error) {
	read, err := config.ParseDurationField("server.read_timeout", cfg.ReadTimeout)
	if err != nil {
		return server.Config{}, err
	}
	write, err := config.ParseDurationField("server.write_timeout", cfg.WriteTimeout)
	if err != nil {
		return server.Config{}, err
	}
	idle, err := config.ParseDurationField("server.idle_timeout", cfg.IdleTimeout)
	if err != nil {
		return server.Config{}, err
	}
	return server.Config{
		Enabled:      cfg.Enabled,
		Addr:         cfg.Addr,
		ReadTimeout:  read,
		WriteTimeout: write,
		IdleTimeout:  idle,
	}, nil
}
