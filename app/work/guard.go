package work

import (
	"time"
)

var sentAtLayouts = []string{
	SentAtLayout,
	time.RFC3339,
	DateLayout,
}

// RecentlyNotified reports whether rec was sent within cooldown of now.
// A missing record or an unreadable timestamp counts as not recent.
func RecentlyNotified(rec *SentRecord, cooldown time.Duration, now time.Time) bool {
	if rec == nil {
		return false
	}

	sentAt, ok := parseSentAt(rec.SentAt)
	if !ok {
		return false
	}

	return sentAt.After(now.Add(-cooldown))
}

func parseSentAt(value string) (time.Time, bool) {
	for _, layout := range sentAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
