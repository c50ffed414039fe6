package main

import (
	"errors"
	"testing"
)

func TestParseBalance(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"15,000원", 15000},
		{"1,000원", 1000},
		{"5000", 5000},
		{"  12,345 원 ", 12345},
		{"", 0},
		{"원", 0},
		{"no digits here", 0},
		{"0원", 0},
	}

	for _, test := range tests {
		result := parseBalance(test.input)
		if result != test.expected {
			t.Errorf("parseBalance(%q) = %d, expected %d", test.input, result, test.expected)
		}
	}
}

func TestValidateBalance(t *testing.T) {
	// The minimum is inclusive: exactly 5000 proceeds.
	if err := validateBalance(5000, 5000); err != nil {
		t.Errorf("validateBalance(5000, 5000) = %v, expected nil", err)
	}

	if err := validateBalance(15000, 5000); err != nil {
		t.Errorf("validateBalance(15000, 5000) = %v, expected nil", err)
	}

	err := validateBalance(4999, 5000)
	if err == nil {
		t.Fatal("validateBalance(4999, 5000) = nil, expected error")
	}

	var insufficient *InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientBalanceError, got %T", err)
	}

	// The failure carries the observed amount.
	if insufficient.Balance != 4999 {
		t.Errorf("Expected Balance 4999, got %d", insufficient.Balance)
	}
	if insufficient.Minimum != 5000 {
		t.Errorf("Expected Minimum 5000, got %d", insufficient.Minimum)
	}
}

func TestInsufficientBalanceErrorMessage(t *testing.T) {
	err := &InsufficientBalanceError{Balance: 3000, Minimum: 5000}

	msg := err.Error()
	if msg == "" {
		t.Fatal("Error message is empty")
	}
	if !contains(msg, "3000") || !contains(msg, "5000") {
		t.Errorf("Error message should carry both amounts, got %q", msg)
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		outcome  Outcome
		expected string
	}{
		{OutcomeNone, "none"},
		{OutcomePurchased, "purchased"},
		{OutcomeSaleClosed, "sale-closed"},
		{OutcomeLimitAfterConfirm, "limit-after-confirm"},
		{OutcomeDryRun, "dry-run"},
	}

	for _, test := range tests {
		if got := test.outcome.String(); got != test.expected {
			t.Errorf("Outcome(%d).String() = %q, expected %q", int(test.outcome), got, test.expected)
		}
	}
}

func TestOutcomeZeroValueIsNotPurchased(t *testing.T) {
	// The zero value must never read as a successful purchase; error paths
	// return it alongside a non-nil error.
	var outcome Outcome
	if outcome == OutcomePurchased {
		t.Error("Zero Outcome value must not equal OutcomePurchased")
	}
	if outcome != OutcomeNone {
		t.Errorf("Zero Outcome value = %v, expected OutcomeNone", outcome)
	}
}

func TestNewPurchase(t *testing.T) {
	config := DefaultConfig()
	auto := NewAutomation(config)
	creds := &Credentials{UserID: "someone", Password: "hunter2"}

	purchase := NewPurchase(config, auto, creds)
	if purchase == nil {
		t.Fatal("NewPurchase returned nil")
	}

	if purchase.config != config {
		t.Error("Purchase config does not match provided config")
	}
	if purchase.creds != creds {
		t.Error("Purchase credentials do not match provided credentials")
	}
}

func TestPurchaseRun(t *testing.T) {
	// The full sequence needs a live browser and the dhlottery site.
	t.Skip("Skipping browser-dependent test")
}
