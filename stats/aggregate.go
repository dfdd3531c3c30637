package stats

import "time"

// Aggregate counts events, distinct users, and distinct users whose event
// falls on the same calendar day as now in loc. A nil loc means time.Local.
//
// The sets are rebuilt from scratch on every call.
func Aggregate(events []GMed, now time.Time, loc *time.Location) Counts {
	if loc == nil {
		loc = time.Local
	}
	today := dateOf(now, loc)

	users := make(map[string]struct{}, len(events))
	daily := make(map[string]struct{})
	for _, e := range events {
		key := e.UserKey()
		users[key] = struct{}{}
		if dateOf(e.Timestamp, loc) == today {
			daily[key] = struct{}{}
		}
	}

	return Counts{
		TotalTx:     len(events),
		UniqueUsers: len(users),
		DailyUsers:  len(daily),
	}
}

type date struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time, loc *time.Location) date {
	y, m, d := t.In(loc).Date()
	return date{year: y, month: m, day: d}
}

// Window returns the inclusive block range read for a head block.
// It starts lookback blocks behind latest, or at genesis when the chain is shorter.
func Window(latest, lookback uint64) (from, to uint64) {
	if latest > lookback {
		return latest - lookback, latest
	}
	return 0, latest
}
