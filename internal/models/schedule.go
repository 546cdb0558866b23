package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ChannelDestination is an opaque chat channel ID that alerts are posted to
type ChannelDestination string

// RecurrenceRule describes a weekly recurrence: the given weekdays at Hour:Minute
type RecurrenceRule struct {
	Weekdays []time.Weekday `json:"weekdays"`
	Hour     int            `json:"hour"`
	Minute   int            `json:"minute"`
}

// CronExpression renders the rule as a five-field cron expression
// (minute hour day-of-month month day-of-week).
func (r RecurrenceRule) CronExpression() string {
	days := make([]int, 0, len(r.Weekdays))
	seen := make(map[time.Weekday]bool)
	for _, d := range r.Weekdays {
		if seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, int(d))
	}
	sort.Ints(days)

	dow := "*"
	if len(days) > 0 {
		parts := make([]string, len(days))
		for i, d := range days {
			parts[i] = fmt.Sprintf("%d", d)
		}
		dow = strings.Join(parts, ",")
	}

	return fmt.Sprintf("%d %d * * %s", r.Minute, r.Hour, dow)
}

// String returns a short human description, e.g. "Mon,Tue at 12:00"
func (r RecurrenceRule) String() string {
	names := make([]string, 0, len(r.Weekdays))
	for _, d := range r.Weekdays {
		names = append(names, d.String()[:3])
	}
	if len(names) == 0 {
		names = append(names, "every day")
	}
	return fmt.Sprintf("%s at %02d:%02d", strings.Join(names, ","), r.Hour, r.Minute)
}
