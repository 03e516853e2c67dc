package model

import "time"

// QueryWindow is the lookback interval [Start, End] a discussion's creation
// time must fall into to be eligible for notification.
type QueryWindow struct {
	Start       time.Time
	End         time.Time
	Granularity Granularity
}

// NewQueryWindow returns the window [now - days*24h, now]. Negative day
// counts are treated as zero.
func NewQueryWindow(now time.Time, days int, granularity Granularity) QueryWindow {
	if days < 0 {
		days = 0
	}
	if granularity == "" {
		granularity = GranularityDay
	}
	now = now.UTC()
	return QueryWindow{
		Start:       now.Add(-time.Duration(days) * 24 * time.Hour),
		End:         now,
		Granularity: granularity,
	}
}

// Contains reports whether t falls within the window at its granularity.
func (w QueryWindow) Contains(t time.Time) bool {
	if w.Granularity == GranularityInstant {
		return !t.Before(w.Start) && !t.After(w.End)
	}
	d := civilDate(t)
	return !d.Before(civilDate(w.Start)) && !d.After(civilDate(w.End))
}

// Earliest returns the oldest instant that can still satisfy Contains.
func (w QueryWindow) Earliest() time.Time {
	if w.Granularity == GranularityInstant {
		return w.Start
	}
	return civilDate(w.Start)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
