package clock

import (
	"testing"
	"time"
)

func TestBusinessDayUsesLocation(t *testing.T) {
	lapaz, err := time.LoadLocation("America/La_Paz")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	instant := time.Date(2025, 3, 2, 2, 30, 0, 0, time.UTC)

	if got := BusinessDay(instant, time.UTC); got != "2025-03-02" {
		t.Fatalf("expected UTC day 2025-03-02, got %s", got)
	}
	if got := BusinessDay(instant, lapaz); got != "2025-03-01" {
		t.Fatalf("expected La Paz day 2025-03-01, got %s", got)
	}
	if got := BusinessDay(instant, nil); got != "2025-03-02" {
		t.Fatalf("nil location should default to UTC, got %s", got)
	}
}

func TestParseDay(t *testing.T) {
	if _, err := ParseDay("2025-02-30"); err == nil {
		t.Fatal("expected invalid calendar day to fail")
	}
	if _, err := ParseDay("02/03/2025"); err == nil {
		t.Fatal("expected wrong layout to fail")
	}
	day, err := ParseDay("2025-02-28")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if day.Day() != 28 {
		t.Fatalf("unexpected parsed day %v", day)
	}
}

func TestFixedClockAdvance(t *testing.T) {
	c := &Fixed{At: time.Date(2025, 1, 1, 23, 59, 0, 0, time.UTC)}
	c.Advance(2 * time.Minute)
	if got := BusinessDay(c.Now(), time.UTC); got != "2025-01-02" {
		t.Fatalf("expected rollover to 2025-01-02, got %s", got)
	}
}
