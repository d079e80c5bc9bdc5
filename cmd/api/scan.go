package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/counselor-presence/internal/api/dto"
	"github.com/spec-kit/counselor-presence/internal/api/http/handlers"
	"github.com/spec-kit/counselor-presence/internal/persistence"
	"github.com/spec-kit/counselor-presence/internal/service"
)

var (
	scanAutoReassign bool
	scanStore        storeFlags
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one inactivity scan and print the alerts as JSON",
	Long: `Run one inactivity scan against the configured store and print the
alerts. With --reassign the alert-driven reassignment policy is applied
to the result, as the serve worker does when AUTO_REASSIGN_ENABLED is set.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanAutoReassign, "reassign", false, "Apply auto reassignment to the alerts")
	scanCmd.Flags().StringVar(&scanStore.migrationsDir, "migrations", persistence.DefaultMigrationsDir, "Directory of SQL migrations")
	scanCmd.Flags().StringVar(&scanStore.seedFile, "seed", "", "YAML fixture loaded into the in-memory store when no DSN is set")
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime("stderr")
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if scanAutoReassign {
		cfg.Presence.AutoReassign = true
	}
	ctx := cmd.Context()
	app, err := buildApplication(ctx, cfg, logger, scanStore)
	if err != nil {
		return err
	}
	defer app.close()

	now := app.presence.Now()
	alerts, err := app.scanner.Scan(ctx, now)
	if err != nil {
		return err
	}

	out := struct {
		dto.ScanResponse
		Reassign *service.AutoReassignReport `json:"reassign,omitempty"`
	}{ScanResponse: handlers.ScanResult(now, app.scanner.Threshold(), alerts)}
	if app.auto != nil {
		report := app.auto.Handle(ctx, alerts)
		logger.Info("auto reassign pass", zap.Int("reassigned", report.Reassigned), zap.Int("failed", report.Failed))
		out.Reassign = &report
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
