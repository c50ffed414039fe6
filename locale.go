package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Locale struct {
	translations map[string]string
	locale       string
}

var globalLocale *Locale

// builtinLocales are compiled-in translation tables. A yaml file in lang/
// next to the executable overrides individual keys.
var builtinLocales = map[string]map[string]string{
	"en_US": {
		"cleaning_up":             "🧹 Cleaning up browser session...",
		"browser_destroyed":       "✓ Browser session closed",
		"browser_launching":       "🌐 Launching browser...",
		"browser_launched":        "✓ Browser ready",
		"browser_system_chrome":   "✓ Using system Chrome",
		"browser_chrome_missing":  "⚠️  System Chrome not found, downloading Chromium...",
		"hours_closed":            "🕐 Lotto 6/45 sales are closed right now (KST %s) - nothing to do",
		"hours_check_skipped":     "Sale-hours preflight skipped by config",
		"stage_main_page":         "🌐 Loading dhlottery main page...",
		"stage_login":             "🔑 Logging in as %s...",
		"login_done":              "✓ Logged in",
		"password_nag_later":      "↩️  Password-change notice dismissed (change later)",
		"stage_balance":           "💰 Checking deposit balance...",
		"balance_current":         "💰 Deposit balance: %d won",
		"stage_open_purchase":     "🛒 Opening the Lotto 6/45 purchase page...",
		"purchase_page_event":     "✓ Purchase tab opened",
		"purchase_page_scan":      "✓ Purchase tab found by scanning open pages",
		"stage_iframe":            "🖼  Locating purchase frame...",
		"sale_closed":             "🕐 The site reports sales are closed - exiting without purchase",
		"stage_select":            "🎲 Selecting %d auto-pick lines...",
		"dry_run_stop":            "🧪 DRY RUN - stopping before the buy button",
		"stage_buy":               "💳 Confirming purchase...",
		"limit_after_confirm":     "⚠️  Weekly purchase limit popup appeared AFTER confirmation - whether the spend went through is not verified here",
		"stage_receipt":           "🧾 Reading receipt...",
		"receipt_round":           "🧾 Round: %s",
		"receipt_date":            "🧾 Issued: %s",
		"receipt_amount":          "🧾 Amount: %s",
		"receipt_line":            "   %s: %s",
		"purchase_done":           "✓ Purchase complete",
		"popup_closed":            "🚫 Closed ad popup: %s",
		"popup_close_failed":      "⚠️  Failed to close ad popup %s: %v",
		"diag_pages_header":       "Open pages at time of failure:",
		"diag_screenshot_ok":      "📸 Screenshot saved: %s",
		"diag_screenshot_fail":    "⚠️  Screenshot of page %d failed: %v",
		"err_missing_credentials": "DHLOTTERY_ID and DHLOTTERY_PASSWORD must both be set",
	},
	"ko_KR": {
		"cleaning_up":             "🧹 브라우저 세션 정리 중...",
		"browser_destroyed":       "✓ 브라우저 세션 종료",
		"browser_launching":       "🌐 브라우저 실행 중...",
		"browser_launched":        "✓ 브라우저 준비 완료",
		"browser_system_chrome":   "✓ 시스템 크롬 사용",
		"browser_chrome_missing":  "⚠️  시스템 크롬을 찾지 못해 크로미움을 내려받습니다...",
		"hours_closed":            "🕐 지금은 로또 6/45 판매시간이 아닙니다 (KST %s) - 종료합니다",
		"hours_check_skipped":     "판매시간 사전 확인을 건너뜁니다",
		"stage_main_page":         "🌐 동행복권 메인 페이지 로딩 중...",
		"stage_login":             "🔑 %s 계정으로 로그인 중...",
		"login_done":              "✓ 로그인 성공",
		"password_nag_later":      "↩️  비밀번호 변경 안내를 다음에 변경으로 넘겼습니다",
		"stage_balance":           "💰 예치금 확인 중...",
		"balance_current":         "💰 예치금: %d원",
		"stage_open_purchase":     "🛒 로또 6/45 구매 페이지 여는 중...",
		"purchase_page_event":     "✓ 구매 탭이 열렸습니다",
		"purchase_page_scan":      "✓ 열린 페이지 탐색으로 구매 탭을 찾았습니다",
		"stage_iframe":            "🖼  구매 프레임 찾는 중...",
		"sale_closed":             "🕐 현재 시간은 판매시간이 아닙니다 - 구매 없이 종료합니다",
		"stage_select":            "🎲 자동 %d게임 선택 중...",
		"dry_run_stop":            "🧪 DRY RUN - 구매 버튼 직전에서 중단합니다",
		"stage_buy":               "💳 구매 확정 중...",
		"limit_after_confirm":     "⚠️  구매 확정 후 주간 한도 팝업이 떴습니다 - 이번 결제가 실제로 이루어졌는지는 확인되지 않았습니다",
		"stage_receipt":           "🧾 구매 내역 확인 중...",
		"receipt_round":           "🧾 회차: %s",
		"receipt_date":            "🧾 발행일: %s",
		"receipt_amount":          "🧾 금액: %s",
		"receipt_line":            "   %s: %s",
		"purchase_done":           "✓ 구매 완료",
		"popup_closed":            "🚫 광고 팝업을 닫았습니다: %s",
		"popup_close_failed":      "⚠️  광고 팝업 닫기 실패 %s: %v",
		"diag_pages_header":       "실패 시점에 열려 있던 페이지:",
		"diag_screenshot_ok":      "📸 스크린샷 저장: %s",
		"diag_screenshot_fail":    "⚠️  페이지 %d 스크린샷 실패: %v",
		"err_missing_credentials": "DHLOTTERY_ID 와 DHLOTTERY_PASSWORD 를 모두 설정해야 합니다",
	},
}

// InitLocale initializes the global locale system
func InitLocale() error {
	locale := DetectSystemLocale()

	l, err := LoadLocale(locale)
	if err != nil {
		fmt.Printf("Warning: Failed to load locale '%s', falling back to en_US: %v\n", locale, err)
		l, err = LoadLocale("en_US")
		if err != nil {
			return fmt.Errorf("failed to load fallback locale en_US: %w", err)
		}
	}

	globalLocale = l
	return nil
}

// DetectSystemLocale detects the user's locale from the usual environment
// variables, defaulting to en_US.
func DetectSystemLocale() string {
	for _, env := range []string{"LANG", "LC_ALL", "LC_MESSAGES"} {
		if locale := os.Getenv(env); locale != "" {
			// Typically "ko_KR.UTF-8"
			parts := strings.Split(locale, ".")
			if len(parts) > 0 && parts[0] != "" {
				return parts[0]
			}
		}
	}
	return "en_US"
}

// LoadLocale builds a locale from the compiled-in table, with optional
// per-key overrides from lang/<locale>.yaml next to the executable.
func LoadLocale(locale string) (*Locale, error) {
	base, ok := builtinLocales[locale]
	if !ok {
		return nil, fmt.Errorf("no builtin translations for locale %s", locale)
	}

	translations := make(map[string]string, len(base))
	for k, v := range base {
		translations[k] = v
	}

	if overrides, err := loadLocaleFile(locale); err == nil {
		for k, v := range overrides {
			translations[k] = v
		}
	}

	return &Locale{
		translations: translations,
		locale:       locale,
	}, nil
}

func loadLocaleFile(locale string) (map[string]string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(exePath), "lang", locale+".yaml"))
	if err != nil {
		return nil, err
	}

	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, err
	}
	return overrides, nil
}

// T translates a key with optional fmt.Sprintf parameters. Unknown keys are
// returned as-is so a missing translation never hides a log line.
func T(key string, params ...interface{}) string {
	if globalLocale == nil {
		return key
	}

	translation, ok := globalLocale.translations[key]
	if !ok {
		return key
	}

	if len(params) > 0 {
		return fmt.Sprintf(translation, params...)
	}

	return translation
}

// GetLocale returns the active locale code (e.g., "en_US", "ko_KR").
func GetLocale() string {
	if globalLocale == nil {
		return "en_US"
	}
	return globalLocale.locale
}
