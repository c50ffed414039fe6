package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	MainURL string `yaml:"main_url"`

	// Timeouts in seconds unless noted otherwise.
	PageLoadTimeout     int `yaml:"page_load_timeout"`
	ElementTimeout      int `yaml:"element_timeout"`
	ProbeTimeout        int `yaml:"probe_timeout"`
	ReceiptTimeout      int `yaml:"receipt_timeout"`
	PurchasePageTimeout int `yaml:"purchase_page_timeout"`

	FrameSettleDelayMs int `yaml:"frame_settle_delay_ms"`
	PopupCheckDelayMs  int `yaml:"popup_check_delay_ms"`
	PopupCloseDelayMs  int `yaml:"popup_close_delay_ms"`

	// MinBalance is the deposit (in won) required before a purchase is
	// attempted. One Lotto 6/45 line costs 1000 won.
	MinBalance  int `yaml:"min_balance"`
	TicketCount int `yaml:"ticket_count"`

	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`

	Headless       bool `yaml:"headless"`
	SkipHoursCheck bool `yaml:"skip_hours_check"`

	DryRun    bool `yaml:"dry_run"`
	DebugMode bool `yaml:"debug_mode"`

	// New tabs whose URL contains any of these substrings (case-insensitive)
	// are treated as ad popups and closed.
	AdURLPatterns []string `yaml:"ad_url_patterns"`

	// The purchase tab is recognized by these URL substrings. None of them
	// may overlap AdURLPatterns or the popup suppressor would close it.
	PurchaseURLPatterns []string `yaml:"purchase_url_patterns"`

	Selectors SelectorConfig `yaml:"selectors"`
}

// SelectorConfig is the site's DOM surface. dhlottery ships no API, so these
// selectors are effectively the wire protocol and break when the markup
// changes; keeping them in the config file makes a hotfix a one-line edit.
type SelectorConfig struct {
	UserIDInput   string `yaml:"user_id_input"`
	PasswordInput string `yaml:"password_input"`
	LoginButton   string `yaml:"login_button"`

	PasswordLaterButton string `yaml:"password_later_button"`

	BalanceText string `yaml:"balance_text"`

	BuyMenu       string `yaml:"buy_menu"`
	LottoMenuLink string `yaml:"lotto_menu_link"`

	PurchaseFrame string `yaml:"purchase_frame"`

	AlertLayer   string `yaml:"alert_layer"`
	AlertConfirm string `yaml:"alert_confirm"`

	AutoTab        string `yaml:"auto_tab"`
	QuantitySelect string `yaml:"quantity_select"`
	ApplyButton    string `yaml:"apply_button"`
	BuyButton      string `yaml:"buy_button"`
	ConfirmButton  string `yaml:"confirm_button"`

	ReceiptLayer       string `yaml:"receipt_layer"`
	ReceiptRound       string `yaml:"receipt_round"`
	ReceiptDate        string `yaml:"receipt_date"`
	ReceiptAmount      string `yaml:"receipt_amount"`
	ReceiptLines       string `yaml:"receipt_lines"`
	ReceiptLineLabel   string `yaml:"receipt_line_label"`
	ReceiptLineNumbers string `yaml:"receipt_line_numbers"`
	ReceiptClose       string `yaml:"receipt_close"`
}

func DefaultConfig() *Config {
	return &Config{
		MainURL: "https://dhlottery.co.kr/common.do?method=main",

		PageLoadTimeout:     60,
		ElementTimeout:      15,
		ProbeTimeout:        3,
		ReceiptTimeout:      20,
		PurchasePageTimeout: 10,

		FrameSettleDelayMs: 2000,
		PopupCheckDelayMs:  1500,
		PopupCloseDelayMs:  500,

		MinBalance:  5000,
		TicketCount: 5,

		ViewportWidth:  1920,
		ViewportHeight: 1080,

		Headless:       false,
		SkipHoursCheck: false,
		DryRun:         false,
		DebugMode:      false,

		AdURLPatterns: []string{
			"banner",
			"popup",
			"event",
			"notice",
			"promotion",
			"ad.dhlottery",
		},

		PurchaseURLPatterns: []string{
			"el.dhlottery.co.kr/game/TotalGame.jsp",
			"game645.do?method=buyLotto",
			"LottoId=LO40",
		},

		Selectors: SelectorConfig{
			UserIDInput:   "#userId",
			PasswordInput: "form[name='jform'] input[name='password']",
			LoginButton:   "form[name='jform'] a.btn_common.lrg.blu",

			PasswordLaterButton: "input[value='다음에 변경하기'], a[onclick*='doPwdChangeLater']",

			BalanceText: "ul.information li.money a strong",

			BuyMenu:       "#gnb ul li.menu3 a",
			LottoMenuLink: "#gnb a[href*='TotalGame.jsp?LottoId=LO40']",

			PurchaseFrame: "#ifrm_tab",

			AlertLayer:   "#popupLayerAlert",
			AlertConfirm: "#popupLayerAlert input[value='확인']",

			AutoTab:        "#num2",
			QuantitySelect: "#amoundApply",
			ApplyButton:    "#btnSelectNum",
			BuyButton:      "#btnBuy",
			ConfirmButton:  "#popupLayerConfirm input[value='확인']",

			ReceiptLayer:       "#report",
			ReceiptRound:       "#report .head strong",
			ReceiptDate:        "#report .date",
			ReceiptAmount:      "#report .amount strong",
			ReceiptLines:       "#report .bx_list li",
			ReceiptLineLabel:   "strong",
			ReceiptLineNumbers: ".nums span",
			ReceiptClose:       "#report input[value='닫기']",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path); err != nil {
			return nil, err
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	if config.TicketCount < 1 || config.TicketCount > 5 {
		return nil, fmt.Errorf("ticket_count must be between 1 and 5, got %d", config.TicketCount)
	}

	return config, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Credentials is the dhlottery login pair. Sourced once at startup from the
// environment, never persisted.
type Credentials struct {
	UserID   string
	Password string
}

// LoadCredentials reads DHLOTTERY_ID and DHLOTTERY_PASSWORD, honoring a .env
// file in the working directory when present. Both must be non-empty.
func LoadCredentials() (*Credentials, error) {
	_ = godotenv.Load()

	id := strings.TrimSpace(os.Getenv("DHLOTTERY_ID"))
	password := os.Getenv("DHLOTTERY_PASSWORD")

	if id == "" || password == "" {
		return nil, errors.New(T("err_missing_credentials"))
	}

	return &Credentials{UserID: id, Password: password}, nil
}

// isCI reports whether we are running under a CI workflow. CI runs are
// headless and capture screenshots on failure.
func isCI() bool {
	return os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
}
