package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

type Automation struct {
	config   *Config
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page // main dhlottery page

	// newPages receives every page the browser opens, fed by the same
	// TargetCreated observer that powers the popup suppressor.
	newPages    chan *rod.Page
	stopEvents  context.CancelFunc
	screenshots func(page *rod.Page, path string) error
}

func NewAutomation(config *Config) *Automation {
	return &Automation{
		config:      config,
		newPages:    make(chan *rod.Page, 8),
		screenshots: savePageScreenshot,
	}
}

func (a *Automation) Close() {
	fmt.Println(T("cleaning_up"))

	if a.stopEvents != nil {
		a.stopEvents()
	}

	if a.browser != nil {
		if err := a.browser.Close(); err != nil {
			a.debugLog("browser close: %v", err)
		}
	}

	if a.launcher != nil {
		a.launcher.Cleanup()
	}

	fmt.Println(T("browser_destroyed"))
}

func (a *Automation) debugLog(format string, args ...interface{}) {
	if a.config.DebugMode {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}

func (a *Automation) setupBrowser() error {
	fmt.Println(T("browser_launching"))

	// Disable leakless mode on Windows to prevent deadlock
	// See: https://github.com/go-rod/rod/issues/853
	useLeakless := runtime.GOOS != "windows"

	a.launcher = launcher.New().
		Leakless(useLeakless).
		Headless(a.config.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("exclude-switches", "enable-automation").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("window-size", fmt.Sprintf("%d,%d", a.config.ViewportWidth, a.config.ViewportHeight))

	if chromePath, ok := launcher.LookPath(); ok {
		a.launcher = a.launcher.Bin(chromePath)
		fmt.Println(T("browser_system_chrome"))
	} else {
		fmt.Println(T("browser_chrome_missing"))
	}

	url, err := a.launcher.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	a.browser = browser

	a.watchNewPages()

	page, err := stealth.Page(a.browser)
	if err != nil {
		return fmt.Errorf("failed to create stealth page: %w", err)
	}
	a.page = page

	userAgent := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
		a.debugLog("failed to set user agent: %v", err)
	}

	fmt.Println(T("browser_launched"))
	return nil
}

// watchNewPages installs the one TargetCreated observer for the session. Every
// new page is published to newPages for the purchase-page waiter and handed to
// the ad suppressor. The observer stops when stopEvents is called from Close.
func (a *Automation) watchNewPages() {
	ctx, cancel := context.WithCancel(context.Background())
	a.stopEvents = cancel

	browser := a.browser.Context(ctx)
	go browser.EachEvent(func(e *proto.TargetTargetCreated) {
		if e.TargetInfo.Type != "page" {
			return
		}

		page, err := a.browser.PageFromTarget(e.TargetInfo.TargetID)
		if err != nil {
			a.debugLog("page from target: %v", err)
			return
		}

		select {
		case a.newPages <- page:
		default:
			// Waiter not listening and buffer full; the suppressor still runs.
		}

		go a.suppressIfAd(page)
	})()
}

// suppressIfAd closes the page if its URL matches the ad patterns. It runs
// concurrently with the purchase sequence and must never escalate: any error
// here is logged and dropped.
func (a *Automation) suppressIfAd(page *rod.Page) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("popup handler recovered: %v", r)
		}
	}()

	// Give the popup a moment to resolve its final URL.
	time.Sleep(time.Duration(a.config.PopupCheckDelayMs) * time.Millisecond)

	info, err := page.Info()
	if err != nil {
		a.debugLog("popup info: %v", err)
		return
	}

	if !isAdPopupURL(info.URL, a.config.AdURLPatterns) {
		return
	}

	time.Sleep(time.Duration(a.config.PopupCloseDelayMs) * time.Millisecond)

	if err := page.Close(); err != nil {
		log.Printf(T("popup_close_failed"), info.URL, err)
		return
	}
	fmt.Printf(T("popup_closed")+"\n", info.URL)
}

// waitForPageEvent waits for a newly opened page whose URL matches any of the
// patterns. Pages that do not match are discarded. Returns nil on timeout;
// the caller falls back to findPageByURL, which covers pages that opened
// before we started listening.
func (a *Automation) waitForPageEvent(patterns []string, timeout time.Duration) *rod.Page {
	deadline := time.After(timeout)

	for {
		select {
		case page := <-a.newPages:
			info, err := page.Info()
			if err != nil {
				a.debugLog("new page info: %v", err)
				continue
			}
			if contains(info.URL, patterns...) {
				if _, err := page.Activate(); err != nil {
					a.debugLog("activate page: %v", err)
				}
				return page
			}
			a.debugLog("ignoring new page %s", info.URL)
		case <-deadline:
			return nil
		}
	}
}

// findPageByURL scans all currently open pages for the first one matching any
// of the patterns and brings it to the foreground. Returns nil when no page
// matches.
func (a *Automation) findPageByURL(patterns []string) *rod.Page {
	pages, err := a.browser.Pages()
	if err != nil {
		a.debugLog("list pages: %v", err)
		return nil
	}

	for _, page := range pages {
		info, err := page.Info()
		if err != nil {
			continue
		}
		if contains(info.URL, patterns...) {
			if _, err := page.Activate(); err != nil {
				a.debugLog("activate page: %v", err)
			}
			return page
		}
	}

	return nil
}

// probeVisible is the shared optional-step check: wait up to timeout for the
// selector to exist AND become visible. The site's layer overlays sit hidden
// in the DOM until JS toggles them, so a one-shot visibility read right after
// the element is found would miss them. Timeout means "absent", never an
// error - interstitials and popups are best-effort; other failures are
// logged and also treated as absent.
func (a *Automation) probeVisible(page *rod.Page, selector string, timeout time.Duration) (*rod.Element, bool) {
	el, err := page.Timeout(timeout).Element(selector)
	if err != nil {
		a.logProbeFailure(selector, err)
		return nil, false
	}

	// el shares the timed page context, so this wait stays inside the
	// same bounded window instead of sampling visibility once.
	if err := el.WaitVisible(); err != nil {
		a.logProbeFailure(selector, err)
		return nil, false
	}

	return el.CancelTimeout(), true
}

func (a *Automation) logProbeFailure(selector string, err error) {
	if isProbeTimeout(err) {
		return
	}
	log.Printf("probe %s: %v", selector, err)
}

// isProbeTimeout distinguishes the expected "element never showed up" case
// from real failures worth a log line.
func isProbeTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// waitQuiet blocks until network traffic on the page has been idle for a
// short window, bounded by the page-load timeout.
func (a *Automation) waitQuiet(page *rod.Page) {
	timed := page.Timeout(time.Duration(a.config.PageLoadTimeout) * time.Second)
	wait := timed.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
	wait()
	timed.CancelTimeout()
}

// dumpDiagnostics records the failure context before the error propagates:
// in CI a full-page screenshot of every open page, always the open page URLs
// and the error itself. Diagnostic failures are logged individually and never
// replace the original error.
func (a *Automation) dumpDiagnostics(cause error) {
	defer log.Printf("purchase failed: %v", cause)

	if a.browser == nil {
		return
	}

	pages, err := a.browser.Pages()
	if err != nil {
		log.Printf("could not list pages for diagnostics: %v", err)
		return
	}

	if isCI() {
		for i, page := range pages {
			path := fmt.Sprintf("failure-page-%d.png", i)
			if err := a.screenshots(page, path); err != nil {
				log.Printf(T("diag_screenshot_fail"), i, err)
				continue
			}
			log.Printf(T("diag_screenshot_ok"), path)
		}
	}

	log.Println(T("diag_pages_header"))
	for i, page := range pages {
		info, err := page.Info()
		if err != nil {
			log.Printf("  [%d] <unavailable: %v>", i, err)
			continue
		}
		log.Printf("  [%d] %s", i, info.URL)
	}
}

func savePageScreenshot(page *rod.Page, path string) error {
	data, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// isAdPopupURL is the suppressor's close decision: a page whose URL matches
// any ad pattern gets closed, everything else is left alone.
func isAdPopupURL(url string, adPatterns []string) bool {
	return contains(url, adPatterns...)
}

// contains reports whether s contains any of substrs, case-insensitively.
func contains(s string, substrs ...string) bool {
	s = toLower(s)
	for _, substr := range substrs {
		if len(s) >= len(substr) {
			for i := 0; i <= len(s)-len(substr); i++ {
				if s[i:i+len(substr)] == toLower(substr) {
					return true
				}
			}
		}
	}
	return false
}

func toLower(s string) string {
	result := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		result[i] = c
	}
	return string(result)
}
