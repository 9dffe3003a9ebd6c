package config

import (
	"reflect"
	"sort"
	"strings"

	"potd/pkg/logx"
)

// SummarizeChange returns a compact list of changed sections plus safe
// structured attrs for logging. Secrets (the telegram token) are reported
// only as set/unset.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 16)

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if !reflect.DeepEqual(oldCfg.Pick, newCfg.Pick) {
		changed = append(changed, "pick")
		attrs = append(attrs, logx.String("pick.day_boundary", strings.TrimSpace(newCfg.Pick.DayBoundary)))
	}

	if !reflect.DeepEqual(oldCfg.Catalog, newCfg.Catalog) {
		changed = append(changed, "catalog")
		attrs = append(attrs,
			logx.String("catalog.source", strings.TrimSpace(newCfg.Catalog.Source)),
			logx.Int("catalog.static_items", len(newCfg.Catalog.Items)),
			logx.String("catalog.refresh", strings.TrimSpace(newCfg.Catalog.Refresh)),
		)
	}

	if !reflect.DeepEqual(oldCfg.Schedule, newCfg.Schedule) {
		changed = append(changed, "schedule")
		attrs = append(attrs,
			logx.Bool("schedule.enabled", newCfg.Schedule.Enabled),
			logx.String("schedule.timezone", strings.TrimSpace(newCfg.Schedule.Timezone)),
			logx.String("schedule.publish", strings.TrimSpace(newCfg.Schedule.Publish)),
		)
	}

	if !sectionEqual(oldCfg.Server, newCfg.Server) {
		changed = append(changed, "server")
		if newCfg.Server != nil {
			attrs = append(attrs,
				logx.Bool("server.enabled", newCfg.Server.Enabled),
				logx.String("server.addr", strings.TrimSpace(newCfg.Server.Addr)),
			)
		} else {
			attrs = append(attrs, logx.Bool("server.enabled", false))
		}
	}

	if !sectionEqual(oldCfg.Telegram, newCfg.Telegram) {
		changed = append(changed, "telegram")
		var chatSet, tokenSet bool
		if newCfg.Telegram != nil {
			chatSet = newCfg.Telegram.ChatID != 0
			tokenSet = strings.TrimSpace(newCfg.Telegram.Token) != ""
		}
		attrs = append(attrs,
			logx.Bool("telegram.chat_set", chatSet),
			logx.Bool("telegram.token_set", tokenSet),
		)
	}

	if !sectionEqual(oldCfg.Storage, newCfg.Storage) {
		changed = append(changed, "storage")
		var driver string
		if newCfg.Storage != nil {
			driver = strings.TrimSpace(newCfg.Storage.Driver)
		}
		attrs = append(attrs, logx.String("storage.driver", driver))
	}

	sort.Strings(changed)
	return changed, attrs
}

func sectionEqual[T any](a, b *T) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return reflect.DeepEqual(*a, *b)
}
