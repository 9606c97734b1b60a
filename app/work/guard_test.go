package work

import (
	"testing"
	"time"
)

func TestRecentlyNotified(t *testing.T) {
	now := time.Date(2025, 10, 19, 12, 0, 0, 0, time.UTC)
	cooldown := 3 * 24 * time.Hour
	day := 24 * time.Hour

	tests := []struct {
		name     string
		rec      *SentRecord
		expected bool
	}{
		{"no record", nil, false},
		{"inside cooldown", &SentRecord{SentAt: now.Add(-(cooldown - day)).Format(SentAtLayout)}, true},
		{"outside cooldown", &SentRecord{SentAt: now.Add(-(cooldown + day)).Format(SentAtLayout)}, false},
		{"rfc3339 with offset", &SentRecord{SentAt: now.Add(-day).In(time.FixedZone("MSK", 3*3600)).Format(time.RFC3339)}, true},
		{"bare date inside cooldown", &SentRecord{SentAt: "2025-10-18"}, true},
		{"bare date outside cooldown", &SentRecord{SentAt: "2025-10-10"}, false},
		{"malformed", &SentRecord{SentAt: "last tuesday"}, false},
		{"empty", &SentRecord{SentAt: ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecentlyNotified(tt.rec, cooldown, now)
			if got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSentRecordValue(t *testing.T) {
	at := time.Date(2025, 10, 19, 15, 4, 5, 0, time.FixedZone("MSK", 3*3600))
	rec := NewSentRecord("555", at)

	if rec.Value() != "sent:2025-10-19T12:04:05Z" {
		t.Errorf("Expected UTC sent record value, got: %s", rec.Value())
	}

	if parsed := ParseSentRecord("555", rec.Value()); parsed != rec {
		t.Errorf("Expected %+v, got %+v", rec, parsed)
	}
}

func TestMalformedSentRecordIsNotRecent(t *testing.T) {
	rec := ParseSentRecord("555", "garbage")

	if rec.SentAt != "" {
		t.Errorf("Expected empty sent_at, got: %q", rec.SentAt)
	}
	if RecentlyNotified(&rec, 72*time.Hour, time.Now()) {
		t.Error("Expected malformed record not to count as recent")
	}
}
