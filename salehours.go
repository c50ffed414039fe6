package main

import (
	"fmt"
	"net/http"
	"time"
)

// kst is the zone all dhlottery sale hours are published in.
var kst = time.FixedZone("KST", 9*60*60)

// saleOpenAt reports whether Lotto 6/45 online sales are open at t. Sales run
// 06:00-24:00 KST daily, closing early at 20:00 on Saturdays ahead of the
// draw. The site remains authoritative; this only saves a browser launch when
// the answer is obviously no.
func saleOpenAt(t time.Time) bool {
	k := t.In(kst)

	if k.Hour() < 6 {
		return false
	}
	if k.Weekday() == time.Saturday && k.Hour() >= 20 {
		return false
	}
	return true
}

// netClock estimates true wall-clock time from HTTP Date headers, so a skewed
// host clock cannot misjudge the sale window around its edges.
type netClock struct {
	offset time.Duration
	synced bool
	debug  bool
}

func newNetClock(debug bool) *netClock {
	return &netClock{debug: debug}
}

// sync averages the offset across a few well-behaved servers. Any one of them
// responding is enough.
func (c *netClock) sync() error {
	servers := []string{
		"https://www.dhlottery.co.kr",
		"https://www.google.com",
		"https://www.cloudflare.com",
	}

	var total time.Duration
	count := 0

	for _, server := range servers {
		offset, err := headerTimeOffset(server)
		if err != nil {
			if c.debug {
				fmt.Printf("[DEBUG] time sync failed for %s: %v\n", server, err)
			}
			continue
		}
		total += offset
		count++
	}

	if count == 0 {
		return fmt.Errorf("failed to sync time with any server")
	}

	c.offset = total / time.Duration(count)
	c.synced = true

	if c.debug {
		fmt.Printf("[DEBUG] time synchronized (average offset: %v)\n", c.offset)
	}
	return nil
}

// now returns offset-adjusted time, or plain local time when unsynced.
func (c *netClock) now() time.Time {
	if !c.synced {
		return time.Now()
	}
	return time.Now().Add(c.offset)
}

// headerTimeOffset makes one HEAD request and derives server-minus-local time
// from the Date header, compensating for half the round trip.
func headerTimeOffset(url string) (time.Duration, error) {
	client := &http.Client{Timeout: 5 * time.Second}

	before := time.Now()

	req, err := http.NewRequest("HEAD", url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	after := time.Now()

	dateHeader := resp.Header.Get("Date")
	if dateHeader == "" {
		return 0, fmt.Errorf("no Date header in response")
	}

	serverTime, err := http.ParseTime(dateHeader)
	if err != nil {
		return 0, fmt.Errorf("failed to parse Date header: %w", err)
	}

	latency := after.Sub(before) / 2
	local := before.Add(latency)

	return serverTime.Sub(local), nil
}

// saleOpenNow is the preflight: best-effort time sync, then the schedule
// check. A failed sync falls back to the local clock rather than blocking
// the run.
func saleOpenNow(debug bool) (bool, time.Time) {
	clock := newNetClock(debug)
	if err := clock.sync(); err != nil && debug {
		fmt.Printf("[DEBUG] time sync unavailable, using local clock: %v\n", err)
	}

	now := clock.now()
	return saleOpenAt(now), now
}
