package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Overlay messages the purchase frame can show. The alert layer is reused by
// the site for several conditions, so the text decides which one we hit.
const (
	saleClosedMarker = "판매시간이 아닙니다"
	limitMarker      = "구매한도"
)

// Outcome is the terminal state of one purchase run. Every outcome maps to
// exit code 0; only errors are non-zero.
type Outcome int

const (
	// OutcomeNone is the zero value; it is never a valid terminal state and
	// only ever travels next to a non-nil error.
	OutcomeNone Outcome = iota
	// OutcomePurchased means the receipt was read after a confirmed buy.
	OutcomePurchased
	// OutcomeSaleClosed means the site reported we are outside the sale
	// window; no purchase was attempted.
	OutcomeSaleClosed
	// OutcomeLimitAfterConfirm means the weekly purchase-limit popup
	// appeared after the confirm click. The site does not tell us whether
	// the confirmed buy went through or was rejected by the limit check,
	// so this state is deliberately kept apart from OutcomePurchased.
	OutcomeLimitAfterConfirm
	// OutcomeDryRun means the run stopped before the buy button on purpose.
	OutcomeDryRun
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomePurchased:
		return "purchased"
	case OutcomeSaleClosed:
		return "sale-closed"
	case OutcomeLimitAfterConfirm:
		return "limit-after-confirm"
	case OutcomeDryRun:
		return "dry-run"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// InsufficientBalanceError aborts the run before any purchase is attempted.
type InsufficientBalanceError struct {
	Balance int
	Minimum int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("deposit balance %d won is below the %d won minimum", e.Balance, e.Minimum)
}

// ErrPurchasePageNotFound means neither the page-open event nor a scan of the
// open pages produced the purchase tab.
var ErrPurchasePageNotFound = errors.New("purchase page not found")

type Purchase struct {
	config *Config
	auto   *Automation
	creds  *Credentials
}

func NewPurchase(config *Config, auto *Automation, creds *Credentials) *Purchase {
	return &Purchase{config: config, auto: auto, creds: creds}
}

// Run drives the whole sequence. Each stage either advances or returns an
// error that unwinds to the caller; no stage is retried, and stages already
// completed are not undone.
func (p *Purchase) Run() (Outcome, error) {
	if err := p.openMainPage(); err != nil {
		return OutcomeNone, err
	}

	if err := p.login(); err != nil {
		return OutcomeNone, err
	}

	p.dismissPasswordNag()

	if err := p.checkBalance(); err != nil {
		return OutcomeNone, err
	}

	buyPage, err := p.openPurchasePage()
	if err != nil {
		return OutcomeNone, err
	}

	frame, err := p.locateFrame(buyPage)
	if err != nil {
		return OutcomeNone, err
	}

	if p.saleWindowClosed(frame) {
		fmt.Println(T("sale_closed"))
		p.closePage(buyPage)
		return OutcomeSaleClosed, nil
	}

	if err := p.selectNumbers(frame); err != nil {
		return OutcomeNone, err
	}

	if p.config.DryRun {
		fmt.Println(T("dry_run_stop"))
		p.closePage(buyPage)
		return OutcomeDryRun, nil
	}

	if err := p.confirmPurchase(frame); err != nil {
		return OutcomeNone, err
	}

	if p.limitPopupShown(frame) {
		fmt.Println(T("limit_after_confirm"))
		p.closePage(buyPage)
		return OutcomeLimitAfterConfirm, nil
	}

	if err := p.readReceipt(frame); err != nil {
		return OutcomeNone, err
	}

	p.closePage(buyPage)
	fmt.Println(T("purchase_done"))
	return OutcomePurchased, nil
}

func (p *Purchase) openMainPage() error {
	fmt.Println(T("stage_main_page"))

	page := p.auto.page
	if err := page.Navigate(p.config.MainURL); err != nil {
		return fmt.Errorf("failed to navigate to main page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("main page failed to load: %w", err)
	}
	p.auto.waitQuiet(page)

	return nil
}

func (p *Purchase) login() error {
	fmt.Printf(T("stage_login")+"\n", p.creds.UserID)

	page := p.auto.page
	sel := p.config.Selectors

	// The login form renders after hydration; wait for it before touching it.
	idField, err := page.Timeout(p.elementTimeout()).Element(sel.UserIDInput)
	if err != nil {
		return fmt.Errorf("login form did not appear: %w", err)
	}
	idField = idField.CancelTimeout()
	if err := idField.Timeout(p.elementTimeout()).WaitVisible(); err != nil {
		return fmt.Errorf("login form never became visible: %w", err)
	}

	if err := idField.Input(p.creds.UserID); err != nil {
		return fmt.Errorf("failed to fill user id: %w", err)
	}

	pwField, err := page.Timeout(p.elementTimeout()).Element(sel.PasswordInput)
	if err != nil {
		return fmt.Errorf("password field not found: %w", err)
	}
	if err := pwField.CancelTimeout().Input(p.creds.Password); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}

	loginBtn, err := page.Timeout(p.elementTimeout()).Element(sel.LoginButton)
	if err != nil {
		return fmt.Errorf("login button not found: %w", err)
	}
	if err := loginBtn.CancelTimeout().Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click login: %w", err)
	}

	p.auto.waitQuiet(page)
	fmt.Println(T("login_done"))
	return nil
}

// dismissPasswordNag clicks through the periodic "change your password"
// interstitial when it shows up. Absence is the normal case.
func (p *Purchase) dismissPasswordNag() {
	later, ok := p.auto.probeVisible(p.auto.page, p.config.Selectors.PasswordLaterButton, p.probeTimeout())
	if !ok {
		return
	}

	if err := later.Click(proto.InputMouseButtonLeft, 1); err != nil {
		p.auto.debugLog("password nag dismiss failed: %v", err)
		return
	}
	p.auto.waitQuiet(p.auto.page)
	fmt.Println(T("password_nag_later"))
}

func (p *Purchase) checkBalance() error {
	fmt.Println(T("stage_balance"))

	el, err := p.auto.page.Timeout(p.elementTimeout()).Element(p.config.Selectors.BalanceText)
	if err != nil {
		return fmt.Errorf("balance element did not appear: %w", err)
	}

	text, err := el.CancelTimeout().Text()
	if err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}

	balance := parseBalance(text)
	fmt.Printf(T("balance_current")+"\n", balance)

	return validateBalance(balance, p.config.MinBalance)
}

// parseBalance extracts the integer amount from display text like "15,000원".
// Empty or unparsable text is 0, not an error; the threshold check decides.
func parseBalance(text string) int {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	if digits.Len() == 0 {
		return 0
	}

	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n
}

// validateBalance is inclusive at the minimum: exactly min proceeds.
func validateBalance(balance, min int) error {
	if balance < min {
		return &InsufficientBalanceError{Balance: balance, Minimum: min}
	}
	return nil
}

// openPurchasePage hovers the purchase menu (the link renders lazily), clicks
// the Lotto 6/45 entry and waits for the new tab. If the page-open event is
// missed or never fires, a scan of the open pages is the fallback.
func (p *Purchase) openPurchasePage() (*rod.Page, error) {
	fmt.Println(T("stage_open_purchase"))

	page := p.auto.page
	sel := p.config.Selectors

	menu, err := page.Timeout(p.elementTimeout()).Element(sel.BuyMenu)
	if err != nil {
		return nil, fmt.Errorf("purchase menu not found: %w", err)
	}
	if err := menu.CancelTimeout().Hover(); err != nil {
		return nil, fmt.Errorf("failed to hover purchase menu: %w", err)
	}

	link, err := page.Timeout(p.elementTimeout()).Element(sel.LottoMenuLink)
	if err != nil {
		return nil, fmt.Errorf("lotto menu link not found: %w", err)
	}
	if err := link.CancelTimeout().Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, fmt.Errorf("failed to click lotto menu link: %w", err)
	}

	timeout := time.Duration(p.config.PurchasePageTimeout) * time.Second
	if buyPage := p.auto.waitForPageEvent(p.config.PurchaseURLPatterns, timeout); buyPage != nil {
		fmt.Println(T("purchase_page_event"))
		return buyPage, nil
	}

	if buyPage := p.auto.findPageByURL(p.config.PurchaseURLPatterns); buyPage != nil {
		fmt.Println(T("purchase_page_scan"))
		return buyPage, nil
	}

	return nil, ErrPurchasePageNotFound
}

// locateFrame scopes all further interaction to the purchase iframe. The
// trailing sleep absorbs the frame's own asynchronous rendering; there is no
// readiness signal to wait on.
func (p *Purchase) locateFrame(buyPage *rod.Page) (*rod.Page, error) {
	fmt.Println(T("stage_iframe"))

	p.auto.waitQuiet(buyPage)

	frameEl, err := buyPage.Timeout(p.elementTimeout()).Element(p.config.Selectors.PurchaseFrame)
	if err != nil {
		return nil, fmt.Errorf("purchase iframe did not appear: %w", err)
	}

	frame, err := frameEl.CancelTimeout().Frame()
	if err != nil {
		return nil, fmt.Errorf("failed to enter purchase iframe: %w", err)
	}

	time.Sleep(time.Duration(p.config.FrameSettleDelayMs) * time.Millisecond)
	return frame, nil
}

// saleWindowClosed probes the alert layer for the "not a sale window"
// message. This is a normal early exit for the caller, not a failure.
func (p *Purchase) saleWindowClosed(frame *rod.Page) bool {
	alert, ok := p.auto.probeVisible(frame, p.config.Selectors.AlertLayer, p.probeTimeout())
	if !ok {
		return false
	}

	text, err := alert.Text()
	if err != nil {
		p.auto.debugLog("alert text: %v", err)
		return false
	}
	if !strings.Contains(text, saleClosedMarker) {
		return false
	}

	p.clickIfPresent(frame, p.config.Selectors.AlertConfirm)
	return true
}

func (p *Purchase) selectNumbers(frame *rod.Page) error {
	fmt.Printf(T("stage_select")+"\n", p.config.TicketCount)

	sel := p.config.Selectors

	autoTab, err := frame.Timeout(p.elementTimeout()).Element(sel.AutoTab)
	if err != nil {
		return fmt.Errorf("auto-pick tab not found: %w", err)
	}
	if err := autoTab.CancelTimeout().Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to select auto-pick: %w", err)
	}

	quantity, err := frame.Timeout(p.elementTimeout()).Element(sel.QuantitySelect)
	if err != nil {
		return fmt.Errorf("quantity select not found: %w", err)
	}
	if err := quantity.CancelTimeout().Select([]string{strconv.Itoa(p.config.TicketCount)}, true, rod.SelectorTypeText); err != nil {
		return fmt.Errorf("failed to set quantity: %w", err)
	}

	apply, err := frame.Timeout(p.elementTimeout()).Element(sel.ApplyButton)
	if err != nil {
		return fmt.Errorf("apply button not found: %w", err)
	}
	if err := apply.CancelTimeout().Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to apply selection: %w", err)
	}

	return nil
}

func (p *Purchase) confirmPurchase(frame *rod.Page) error {
	fmt.Println(T("stage_buy"))

	sel := p.config.Selectors

	buy, err := frame.Timeout(p.elementTimeout()).Element(sel.BuyButton)
	if err != nil {
		return fmt.Errorf("buy button not found: %w", err)
	}
	if err := buy.CancelTimeout().Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click buy: %w", err)
	}

	confirm, err := frame.Timeout(p.elementTimeout()).Element(sel.ConfirmButton)
	if err != nil {
		return fmt.Errorf("confirm button not found: %w", err)
	}
	if err := confirm.CancelTimeout().Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to confirm purchase: %w", err)
	}

	return nil
}

// limitPopupShown probes for the weekly purchase-limit alert that can appear
// after confirmation. See OutcomeLimitAfterConfirm for why this is its own
// terminal state.
func (p *Purchase) limitPopupShown(frame *rod.Page) bool {
	alert, ok := p.auto.probeVisible(frame, p.config.Selectors.AlertLayer, p.probeTimeout())
	if !ok {
		return false
	}

	text, err := alert.Text()
	if err != nil {
		p.auto.debugLog("alert text: %v", err)
		return false
	}
	if !strings.Contains(text, limitMarker) {
		return false
	}

	p.clickIfPresent(frame, p.config.Selectors.AlertConfirm)
	return true
}

// ReceiptLine is one purchased game: its slot label and selected numbers.
type ReceiptLine struct {
	Label   string
	Numbers []string
}

// Receipt is the unstructured bundle scraped from the receipt overlay.
// Missing fields stay empty; only a receipt that never appears is fatal.
type Receipt struct {
	Round     string
	IssueDate string
	Amount    string
	Lines     []ReceiptLine
}

// readReceipt waits for the receipt overlay and logs what it says. By this
// point money may have been spent, so an unreadable overlay is an error.
func (p *Purchase) readReceipt(frame *rod.Page) error {
	fmt.Println(T("stage_receipt"))

	sel := p.config.Selectors

	layer, err := frame.Timeout(p.receiptTimeout()).Element(sel.ReceiptLayer)
	if err != nil {
		return fmt.Errorf("receipt never appeared: %w", err)
	}
	layer = layer.CancelTimeout()
	if err := layer.WaitVisible(); err != nil {
		return fmt.Errorf("receipt never became visible: %w", err)
	}

	receipt := Receipt{
		Round:     p.textOrEmpty(frame, sel.ReceiptRound),
		IssueDate: p.textOrEmpty(frame, sel.ReceiptDate),
		Amount:    p.textOrEmpty(frame, sel.ReceiptAmount),
	}

	items, err := frame.Elements(sel.ReceiptLines)
	if err != nil {
		p.auto.debugLog("receipt lines: %v", err)
	}
	for _, item := range items {
		line := ReceiptLine{}
		if label, err := item.Element(sel.ReceiptLineLabel); err == nil {
			if text, err := label.Text(); err == nil {
				line.Label = strings.TrimSpace(text)
			}
		}
		if spans, err := item.Elements(sel.ReceiptLineNumbers); err == nil {
			for _, span := range spans {
				if text, err := span.Text(); err == nil {
					line.Numbers = append(line.Numbers, strings.TrimSpace(text))
				}
			}
		}
		receipt.Lines = append(receipt.Lines, line)
	}

	fmt.Printf(T("receipt_round")+"\n", receipt.Round)
	fmt.Printf(T("receipt_date")+"\n", receipt.IssueDate)
	fmt.Printf(T("receipt_amount")+"\n", receipt.Amount)
	for _, line := range receipt.Lines {
		fmt.Printf(T("receipt_line")+"\n", line.Label, strings.Join(line.Numbers, " "))
	}

	p.clickIfPresent(frame, sel.ReceiptClose)
	return nil
}

// textOrEmpty reads an element's text with a short bound; a missing field is
// logged as empty, never fatal.
func (p *Purchase) textOrEmpty(frame *rod.Page, selector string) string {
	el, err := frame.Timeout(p.probeTimeout()).Element(selector)
	if err != nil {
		return ""
	}
	text, err := el.CancelTimeout().Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (p *Purchase) clickIfPresent(frame *rod.Page, selector string) {
	el, ok := p.auto.probeVisible(frame, selector, p.probeTimeout())
	if !ok {
		return
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		p.auto.debugLog("click %s: %v", selector, err)
	}
}

func (p *Purchase) closePage(page *rod.Page) {
	if err := page.Close(); err != nil {
		p.auto.debugLog("close purchase page: %v", err)
	}
}

func (p *Purchase) elementTimeout() time.Duration {
	return time.Duration(p.config.ElementTimeout) * time.Second
}

func (p *Purchase) probeTimeout() time.Duration {
	return time.Duration(p.config.ProbeTimeout) * time.Second
}

func (p *Purchase) receiptTimeout() time.Duration {
	return time.Duration(p.config.ReceiptTimeout) * time.Second
}
