// Command reconcile replays the stock ledger and reports integrity
// violations and orphaned history. It never modifies data.
//
// Exit status is 0 when the ledger is consistent, 2 when violations or
// orphans are found, and 1 on any other failure.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"stockledger/internal/bootstrap"
	"stockledger/pkg/logger"
)

func main() {
	envFile := flag.String("env", ".env", "optional env file")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	flag.Parse()

	cfg, err := bootstrap.LoadConfig(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.Development(), OutputPaths: []string{"stderr"}})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	ctx := logger.WithLogger(context.Background(), log)

	os.Exit(run(ctx, cfg, *asJSON))
}

func run(ctx context.Context, cfg bootstrap.Config, asJSON bool) int {
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "failed to initialize services", "error", err)
		return 1
	}
	defer app.Close()

	report, err := app.Reconciler.Report(ctx)
	if err != nil {
		logger.Error(ctx, "reconciliation failed", "error", err)
		return 1
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logger.Error(ctx, "encode report", "error", err)
			return 1
		}
	} else {
		fmt.Printf("checked %d products at %s\n", report.Products, report.CheckedAt.Format("2006-01-02 15:04:05"))
		for _, v := range report.Violations {
			fmt.Printf("  %s\n", v.Message)
		}
		for _, o := range report.Orphans {
			fmt.Printf("  orphaned history record %s\n", o)
		}
		if report.Healthy() {
			fmt.Println("ledger is consistent")
		}
	}

	if !report.Healthy() {
		return 2
	}
	return 0
}
