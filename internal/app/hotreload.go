package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"potd/internal/config"
	"potd/internal/services/schedule"
	"potd/pkg/logx"
)

// validateConfig is the reload gate: a config that fails here is rejected
// before anything is committed or published.
func (a *App) validateConfig(ctx context.Context, cfg *config.Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Pick.DayBoundary)) {
	case "", "utc", "local":
	default:
		return fmt.Errorf("pick.day_boundary: must be \"utc\" or \"local\", got %q", cfg.Pick.DayBoundary)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Catalog.Source)) {
	case "http":
		if strings.TrimSpace(cfg.Catalog.URL) == "" {
			return fmt.Errorf("catalog.url: required for source \"http\"")
		}
	case "file":
		if strings.TrimSpace(cfg.Catalog.Path) == "" {
			return fmt.Errorf("catalog.path: required for source \"file\"")
		}
	case "static":
	default:
		return fmt.Errorf("catalog.source: unknown source %q", cfg.Catalog.Source)
	}
	if _, err := config.ParseDurationField("catalog.timeout", cfg.Catalog.Timeout); err != nil {
		return err
	}

	if tz := strings.TrimSpace(cfg.Schedule.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("schedule.timezone: %w", err)
		}
	}
	for path, spec := range map[string]string{
		"schedule.publish": cfg.Schedule.Publish,
		"catalog.refresh":  cfg.Catalog.Refresh,
	} {
		if strings.TrimSpace(spec) == "" {
			continue
		}
		if err := a.sched.ValidateSpec(spec); err != nil {
			return fmt.Errorf("%s: invalid cron spec %q: %w", path, spec, err)
		}
	}

	if cfg.Server != nil {
		for path, raw := range map[string]string{
			"server.read_timeout":  cfg.Server.ReadTimeout,
			"server.write_timeout": cfg.Server.WriteTimeout,
			"server.idle_timeout":  cfg.Server.IdleTimeout,
		} {
			if _, err := config.ParseDurationField(path, raw); err != nil {
				return err
			}
		}
	}

	if cfg.Telegram != nil && strings.TrimSpace(cfg.Telegram.Token) != "" && cfg.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram.chat_id: required when a token is set")
	}

	if cfg.Storage != nil {
		if _, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
			return err
		}
	}

	return nil
}

// applyLoop consumes validated config updates and applies them to the
// running services. Sections that can't change at runtime (telegram,
// storage, cron specs) are logged as needing a restart.
func (a *App) applyLoop(ctx context.Context) error {
	ch := a.cfgm.Subscribe(4)
	defer a.cfgm.Unsubscribe(ch)

	old := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg, ok := <-ch:
			if !ok {
				return nil
			}
			if cfg == nil {
				continue
			}
			changed, attrs := config.SummarizeChange(old, cfg)
			if len(changed) == 0 {
				old = cfg
				continue
			}
			a.log.Info("applying config update",
				append([]logx.Field{logx.String("sections", strings.Join(changed, ","))}, attrs...)...)

			if slices.Contains(changed, "logging") {
				a.logs.Apply(logx.Config{
					Level:   cfg.Logging.Level,
					Console: cfg.Logging.Console,
					File: logx.FileConfig{
						Enabled: cfg.Logging.File.Enabled,
						Path:    cfg.Logging.File.Path,
					},
				})
			}
			if slices.Contains(changed, "pick") {
				a.setBoundary(cfg.Pick.DayBoundary)
			}
			if slices.Contains(changed, "catalog") {
				a.applyCatalog(ctx, old, cfg)
			}
			if slices.Contains(changed, "schedule") {
				a.applySchedule(ctx, old, cfg)
			}
			if slices.Contains(changed, "server") {
				a.applyServer(ctx, cfg)
			}
			if slices.Contains(changed, "telegram") {
				a.log.Warn("telegram settings changed; restart to apply")
			}
			if slices.Contains(changed, "storage") {
				a.log.Warn("storage settings changed; restart to apply")
			}

			old = cfg
		}
	}
}

func (a *App) applyCatalog(ctx context.Context, old, cfg *config.Config) {
	if strings.TrimSpace(old.Catalog.Refresh) != strings.TrimSpace(cfg.Catalog.Refresh) {
		a.log.Warn("catalog.refresh spec changed; restart to apply")
	}
	src, err := a.buildSource(cfg.Catalog)
	if err != nil {
		// Validation already vetted the shape; only odd runtime failures land
		// here. Keep the old source.
		a.log.Warn("keeping previous catalog source", logx.Err(err))
		return
	}
	a.cat.SetSource(src)
	a.sup.Go("catalog.reload", func(ctx context.Context) error {
		rctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := a.cat.Refresh(rctx); err != nil {
			a.log.Warn("refresh after source change failed", logx.Err(err))
		}
		return nil
	})
}

func (a *App) applySchedule(ctx context.Context, old, cfg *config.Config) {
	if strings.TrimSpace(old.Schedule.Publish) != strings.TrimSpace(cfg.Schedule.Publish) {
		a.log.Warn("schedule.publish spec changed; restart to apply")
	}
	a.sched.Apply(a.sup.Context(), schedule.Config{
		Enabled:  cfg.Schedule.Enabled,
		Timezone: cfg.Schedule.Timezone,
	})
}

func (a *App) applyServer(ctx context.Context, cfg *config.Config) {
	if cfg.Server == nil {
		a.srv.Stop(ctx)
		return
	}
	srvCfg, err := a.serverConfig(cfg.Server)
	if err != nil {
		a.log.Warn("keeping previous server settings", logx.Err(err))
		return
	}
	a.srv.Apply(a.sup.Context(), srvCfg)
}
