package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestToLower(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello", "hello"},
		{"WORLD", "world"},
		{"MiXeD CaSe", "mixed case"},
		{"123ABC", "123abc"},
		{"", ""},
		{"already lowercase", "already lowercase"},
	}

	for _, test := range tests {
		result := toLower(test.input)
		if result != test.expected {
			t.Errorf("toLower(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		s        string
		substrs  []string
		expected bool
	}{
		{"https://dhlottery.co.kr/BANNER/week.jsp", []string{"banner"}, true},
		{"https://ad.dhlottery.co.kr/view", []string{"banner", "ad.dhlottery"}, true},
		{"https://el.dhlottery.co.kr/game/TotalGame.jsp?LottoId=LO40", []string{"banner", "popup", "event", "notice"}, false},
		{"Hello World", []string{"foo"}, false},
		{"", []string{"test"}, false},
		{"test", []string{""}, true},
	}

	for _, test := range tests {
		result := contains(test.s, test.substrs...)
		if result != test.expected {
			t.Errorf("contains(%q, %v) = %v, expected %v", test.s, test.substrs, result, test.expected)
		}
	}
}

func TestAdPatternsMatchTypicalPopups(t *testing.T) {
	config := DefaultConfig()

	adURLs := []string{
		"https://dhlottery.co.kr/banner/20260101.html",
		"https://dhlottery.co.kr/POPUP/notice2026.jsp",
		"https://dhlottery.co.kr/Event/newyear",
	}

	for _, url := range adURLs {
		if !contains(url, config.AdURLPatterns...) {
			t.Errorf("Expected %q to match the ad patterns", url)
		}
	}

	purchaseURL := "https://el.dhlottery.co.kr/game/TotalGame.jsp?LottoId=LO40"
	if contains(purchaseURL, config.AdURLPatterns...) {
		t.Errorf("Purchase page URL %q must not match the ad patterns", purchaseURL)
	}
}

func TestPurchasePatternMatching(t *testing.T) {
	patterns := []string{"game645.do?method=buyLotto"}
	urls := []string{
		"https://x/a",
		"https://x/game645.do?method=buyLotto",
	}

	// The fallback finder picks the first URL containing any pattern.
	matchIndex := -1
	for i, url := range urls {
		if contains(url, patterns...) {
			matchIndex = i
			break
		}
	}

	if matchIndex != 1 {
		t.Errorf("Expected match at index 1, got %d", matchIndex)
	}

	// No match yields the "not found" sentinel.
	matchIndex = -1
	for i, url := range []string{"https://x/a", "https://x/b"} {
		if contains(url, patterns...) {
			matchIndex = i
			break
		}
	}

	if matchIndex != -1 {
		t.Errorf("Expected no match, got index %d", matchIndex)
	}
}

func TestNewAutomation(t *testing.T) {
	config := DefaultConfig()
	automation := NewAutomation(config)

	if automation == nil {
		t.Fatal("NewAutomation returned nil")
	}

	if automation.config != config {
		t.Error("Automation config does not match provided config")
	}

	if automation.newPages == nil {
		t.Error("New-page channel not initialized")
	}

	if automation.screenshots == nil {
		t.Error("Screenshot func not initialized")
	}
}

func TestWaitForPageEventTimesOut(t *testing.T) {
	config := DefaultConfig()
	automation := NewAutomation(config)

	start := time.Now()
	page := automation.waitForPageEvent([]string{"game645.do"}, 50*time.Millisecond)
	elapsed := time.Since(start)

	if page != nil {
		t.Error("Expected nil page when no event arrives")
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("waitForPageEvent returned after %v, expected at least 50ms", elapsed)
	}
}

func TestDebugLog(t *testing.T) {
	config := DefaultConfig()
	automation := NewAutomation(config)

	// Should not panic in either mode.
	automation.debugLog("Test message: %s", "test")

	config.DebugMode = true
	automation.debugLog("Debug enabled: %d", 42)
}

func TestIsAdPopupURL(t *testing.T) {
	config := DefaultConfig()

	tests := []struct {
		url   string
		close bool
	}{
		{"https://dhlottery.co.kr/BANNER/week.jsp", true},
		{"https://dhlottery.co.kr/banner/week.jsp", true},
		{"https://dhlottery.co.kr/PopUp/today.html", true},
		{"https://el.dhlottery.co.kr/game/TotalGame.jsp?LottoId=LO40", false},
		{"https://ol.dhlottery.co.kr/olotto/game/game645.do?method=buyLotto", false},
		{"https://dhlottery.co.kr/common.do?method=main", false},
	}

	for _, test := range tests {
		if got := isAdPopupURL(test.url, config.AdURLPatterns); got != test.close {
			t.Errorf("isAdPopupURL(%q) = %v, expected %v", test.url, got, test.close)
		}
	}
}

func TestIsProbeTimeout(t *testing.T) {
	if !isProbeTimeout(context.DeadlineExceeded) {
		t.Error("Expected deadline exceeded to count as a probe timeout")
	}

	wrapped := fmt.Errorf("element lookup: %w", context.DeadlineExceeded)
	if !isProbeTimeout(wrapped) {
		t.Error("Expected wrapped deadline exceeded to count as a probe timeout")
	}

	if isProbeTimeout(errors.New("target destroyed")) {
		t.Error("Expected an unrelated failure not to count as a probe timeout")
	}
	if isProbeTimeout(nil) {
		t.Error("Expected nil not to count as a probe timeout")
	}
}

func TestProbeVisibleWaitsForVisibility(t *testing.T) {
	// Needs a live page with a pre-existing hidden overlay toggled visible
	// by script; probeVisible must report it present when the toggle lands
	// inside the bounded window. The timeout classification it relies on is
	// covered by TestIsProbeTimeout.
	t.Skip("Skipping browser-dependent test")
}

func TestSuppressIfAd(t *testing.T) {
	// Needs a live browser page; the close decision it relies on is covered
	// by TestIsAdPopupURL.
	t.Skip("Skipping browser-dependent test")
}
