package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	dryRun := flag.Bool("dry-run", false, "Test mode: stop before the buy button")
	debug := flag.Bool("debug", false, "Enable detailed debug logging")
	headless := flag.Bool("headless", false, "Run the browser headless (implied in CI)")
	skipHours := flag.Bool("skip-hours-check", false, "Skip the local sale-hours preflight")
	flag.Parse()

	if err := InitLocale(); err != nil {
		log.Printf("Warning: Locale initialization failed, using default English: %v", err)
	}

	// Credentials are checked before anything touches a browser.
	creds, err := LoadCredentials()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	config, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		config.DryRun = true
	}
	if *debug {
		config.DebugMode = true
	}
	if *skipHours {
		config.SkipHoursCheck = true
	}
	if *headless || isCI() {
		config.Headless = true
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║            dhlottery Lotto 6/45 Purchase Bot              ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Account: %s\n", creds.UserID)
	fmt.Printf("Tickets: %d auto-pick lines\n", config.TicketCount)

	if config.DryRun {
		fmt.Println("🧪 DRY RUN MODE - No purchase will be made")
	}
	if config.DebugMode {
		fmt.Println("🔍 DEBUG MODE - Detailed logging enabled")
		fmt.Printf("   Locale: %s\n", GetLocale())
	}
	if config.Headless {
		fmt.Println("👻 HEADLESS MODE")
	}
	fmt.Println()

	os.Exit(run(config, creds))
}

// run owns the browser session lifetime: the deferred Close executes on every
// exit path, which log.Fatalf would not guarantee.
func run(config *Config, creds *Credentials) int {
	if config.SkipHoursCheck {
		fmt.Println(T("hours_check_skipped"))
	} else {
		open, now := saleOpenNow(config.DebugMode)
		if !open {
			fmt.Printf(T("hours_closed")+"\n", now.In(kst).Format("Mon 15:04"))
			return 0
		}
	}

	automation := NewAutomation(config)
	defer automation.Close()

	if err := automation.setupBrowser(); err != nil {
		log.Printf("Failed to setup browser: %v", err)
		return 1
	}

	purchase := NewPurchase(config, automation, creds)
	outcome, err := purchase.Run()
	if err != nil {
		automation.dumpDiagnostics(err)
		return 1
	}

	fmt.Println()
	fmt.Printf("Run finished: %s\n", outcome)
	return 0
}
