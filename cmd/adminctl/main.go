// Command adminctl drives the Sorvide backend's admin endpoints from a
// terminal, using the same client as the web console.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/makkenzo/sorvide-admin/internal/backend"
	"github.com/makkenzo/sorvide-admin/internal/config"
	"github.com/makkenzo/sorvide-admin/internal/dashboard"
	"github.com/makkenzo/sorvide-admin/pkg/logger"
)

const usage = `Usage: adminctl [flags] <command> [args]

Commands:
  licenses [-filter F] [-search S]   list licenses
  activity                           show the activity feed
  revenue                            estimated revenue
  stats                              license counts
  create -email E [-name N] [-days D]
  deactivate KEY
  delete KEY
  email KEY [-email E] [-name N]     resend the license email
  test-email -email E [-type payment|renewal]
  health                             backend health
  hash-password PASSWORD             bcrypt hash for auth.fallbackPasswordHash

Flags:
`

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	token := flag.String("token", os.Getenv("SORVIDE_ADMIN_TOKEN"), "Admin token (defaults to $SORVIDE_ADMIN_TOKEN)")
	noColor := flag.Bool("no-color", false, "Disable coloured output")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	appLogger, err := logger.NewCLILogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	policy, err := dashboard.ParseRevenuePolicy(cfg.Dashboard.RevenuePolicy)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := newCLI(backend.NewClient(&cfg.Backend, nil, appLogger), *token, dashboard.Options{
		Prices: dashboard.Prices{Monthly: cfg.Dashboard.MonthlyPrice, Yearly: cfg.Dashboard.YearlyPrice},
		Policy: policy,
	}, os.Stdout)

	if err := c.run(ctx, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}
