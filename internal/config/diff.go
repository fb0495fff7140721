package config

import (
	"reflect"
	"strings"

	logx "rotabot/pkg/logx"
)

// SummarizeChange lists the config sections that differ between oldCfg and
// newCfg plus log fields describing the new values. Secrets are never included.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 12)

	ot, nt := oldCfg.Telegram, newCfg.Telegram
	if ot.Token != nt.Token || ot.PollTimeout != nt.PollTimeout ||
		strings.TrimSpace(ot.GroupLog) != strings.TrimSpace(nt.GroupLog) ||
		strings.TrimSpace(ot.AnnounceChat) != strings.TrimSpace(nt.AnnounceChat) ||
		ot.RatePerMin != nt.RatePerMin {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.Bool("telegram.token_changed", ot.Token != nt.Token),
			logx.String("telegram.poll_timeout", nt.PollTimeout),
			logx.Bool("telegram.group_log_set", strings.TrimSpace(nt.GroupLog) != ""),
			logx.Bool("telegram.announce_set", strings.TrimSpace(nt.AnnounceChat) != ""),
		)
	}
	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.chat_enabled", newCfg.Logging.Chat.Enabled),
		)
	}
	if oldCfg.Storage != newCfg.Storage {
		changed = append(changed, "storage")
		attrs = append(attrs, logx.String("storage.path", newCfg.Storage.Path))
	}
	if oldCfg.Scheduler != newCfg.Scheduler {
		changed = append(changed, "scheduler")
		attrs = append(attrs,
			logx.Bool("scheduler.enabled", newCfg.Scheduler.Enabled),
			logx.String("scheduler.topup", newCfg.Scheduler.TopUp),
		)
	}
	if !reflect.DeepEqual(oldCfg.Roster, newCfg.Roster) {
		changed = append(changed, "roster")
		attrs = append(attrs,
			logx.Int("roster.days", newCfg.Roster.Days),
			logx.Int("roster.tasks", len(newCfg.Roster.Tasks)),
		)
	}
	return changed, attrs
}
