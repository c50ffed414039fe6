package main

import (
	"testing"
	"time"
)

func kstTime(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, kst)
}

func TestSaleOpenAt(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		open bool
	}{
		// 2026-08-19 is a Wednesday, 2026-08-22 a Saturday.
		{"weekday morning", kstTime(2026, time.August, 19, 9, 0), true},
		{"weekday late evening", kstTime(2026, time.August, 19, 23, 59), true},
		{"weekday before opening", kstTime(2026, time.August, 19, 5, 59), false},
		{"weekday at opening", kstTime(2026, time.August, 19, 6, 0), true},
		{"nightly maintenance", kstTime(2026, time.August, 19, 2, 30), false},
		{"saturday before cutoff", kstTime(2026, time.August, 22, 19, 59), true},
		{"saturday at cutoff", kstTime(2026, time.August, 22, 20, 0), false},
		{"saturday after draw", kstTime(2026, time.August, 22, 21, 30), false},
		{"sunday evening", kstTime(2026, time.August, 23, 22, 0), true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := saleOpenAt(test.at); got != test.open {
				t.Errorf("saleOpenAt(%s) = %v, expected %v", test.at, got, test.open)
			}
		})
	}
}

func TestSaleOpenAtConvertsZones(t *testing.T) {
	// 21:00 UTC Friday is 06:00 KST Saturday - open.
	utc := time.Date(2026, time.August, 21, 21, 0, 0, 0, time.UTC)
	if !saleOpenAt(utc) {
		t.Error("Expected sales open at 06:00 KST Saturday")
	}

	// 11:00 UTC Saturday is 20:00 KST Saturday - closed for the draw.
	utc = time.Date(2026, time.August, 22, 11, 0, 0, 0, time.UTC)
	if saleOpenAt(utc) {
		t.Error("Expected sales closed at 20:00 KST Saturday")
	}
}

func TestNetClockUnsynced(t *testing.T) {
	clock := newNetClock(false)

	before := time.Now()
	got := clock.now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Unsynced clock should return local time, got %v", got)
	}
}

func TestNetClockOffset(t *testing.T) {
	clock := newNetClock(false)
	clock.offset = 2 * time.Minute
	clock.synced = true

	got := clock.now()
	expected := time.Now().Add(2 * time.Minute)

	diff := got.Sub(expected)
	if diff < -time.Second || diff > time.Second {
		t.Errorf("Synced clock off by %v from expected offset-adjusted time", diff)
	}
}

func TestNetClockSync(t *testing.T) {
	// Needs network access to real servers.
	t.Skip("Skipping network-dependent test")
}
