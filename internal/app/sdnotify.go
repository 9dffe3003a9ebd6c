package app

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"potd/pkg/logx"
)

// sd_notify integration. All of it degrades to no-ops outside systemd
// (NOTIFY_SOCKET unset).

func (a *App) notifyReady() {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		a.log.Debug("sd_notify READY failed", logx.Err(err))
		return
	}
	if sent {
		a.log.Debug("sd_notify: READY")
	}
}

func (a *App) notifyStopping() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
}

// startWatchdog pings the systemd watchdog at half the configured interval
// when WatchdogSec is set on the unit.
func (a *App) startWatchdog() {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		a.log.Warn("watchdog probe failed", logx.Err(err))
		return
	}
	if interval <= 0 {
		return
	}
	a.sup.Go("systemd.watchdog", func(ctx context.Context) error {
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
		}
	})
	a.log.Info("systemd watchdog enabled", logx.Duration("interval", interval))
}
