package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"potd/internal/pick"
	"potd/internal/storage"
	"potd/pkg/logx"
)

func (a *App) setBoundary(v string) {
	a.boundaryMu.Lock()
	a.dayBoundary = strings.ToLower(strings.TrimSpace(v))
	a.boundaryMu.Unlock()
}

func (a *App) boundary() string {
	a.boundaryMu.Lock()
	defer a.boundaryMu.Unlock()
	return a.dayBoundary
}

// today resolves the current day count and its YYYY-MM-DD rendering under
// the configured boundary policy. "utc" rolls over at UTC midnight, "local"
// at midnight in the schedule timezone.
func (a *App) today() (int64, string) {
	now := time.Now()
	if a.boundary() == "local" {
		now = now.In(a.sched.Location())
		return pick.CivilDays(now), now.Format("2006-01-02")
	}
	now = now.UTC()
	return pick.EpochDays(now), now.Format("2006-01-02")
}

// publishJob is the midnight cron job: record and announce the day's pick.
func (a *App) publishJob(ctx context.Context) error {
	return a.publishToday(ctx, true)
}

// publishToday records today's selection and, when appropriate, announces
// it. With announceAlways=false (startup), the announcement is only sent
// when the history store shows the day was missed, so restarts don't
// double-post.
func (a *App) publishToday(ctx context.Context, announceAlways bool) error {
	snap, err := a.cat.Snapshot()
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	days, date := a.today()
	seed, pos, ok := pick.Cycle(days, snap.Len())
	if !ok {
		a.log.Info("catalog is empty; nothing to publish", logx.String("date", date))
		return nil
	}
	item := pick.Shuffle(snap.Items, seed)[pos]

	recorded := false
	if a.store != nil {
		if recent, err := a.store.RecentShown(ctx, 1); err == nil && len(recent) > 0 && recent[0].Day == days {
			recorded = true
		}
		if !recorded {
			entry := storage.ShownEntry{
				Day:    days,
				Date:   date,
				Cycle:  seed,
				Pos:    pos,
				ItemID: item.ID,
				URL:    item.URL,
				Title:  item.Title,
				At:     time.Now().UTC(),
			}
			if err := a.store.AppendShown(ctx, entry); err != nil {
				a.log.Warn("failed recording selection", logx.String("item", item.ID), logx.Err(err))
			}
		}
	}

	a.log.Info("picture of the day",
		logx.String("date", date),
		logx.Int64("day", days),
		logx.Int64("cycle", seed),
		logx.Int("pos", pos),
		logx.String("item", item.ID))

	if a.ann == nil {
		return nil
	}
	if !announceAlways && (a.store == nil || recorded) {
		// Without history we can't tell whether today was already posted,
		// so startup stays silent and the cron job does the posting.
		return nil
	}
	return a.ann.Announce(ctx, item, date)
}
