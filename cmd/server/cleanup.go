package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCleanupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete logs past retention (errors and warnings are kept 30 days longer)",
		RunE:  runCleanup,
	}
	cmd.Flags().Int("days", 0, "days to keep (default maintenance.days_to_keep)")
	return cmd
}

func newResolveStaleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve-stale",
		Short: "Mark info and debug logs older than 7 days as resolved",
		RunE:  runResolveStale,
	}
}

// withApp wires the app for a one-shot command and drains it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	return fn(ctx, a)
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		days, _ := cmd.Flags().GetInt("days")
		if days == 0 {
			days = a.cfg.Maintenance.DaysToKeep
		}

		res, err := a.maintenance.CleanupOldLogs(ctx, days)
		if err != nil {
			return err
		}
		a.logger.Info("cleanup finished",
			zap.Int("days_to_keep", days),
			zap.Int64("info_deleted", res.InfoDeleted),
			zap.Int64("error_deleted", res.ErrorDeleted))
		fmt.Fprintf(cmd.OutOrStdout(), "Cleaned up %d old log entries (info/debug: %d, error/warning: %d)\n",
			res.Total(), res.InfoDeleted, res.ErrorDeleted)
		return nil
	})
}

func runResolveStale(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		n, err := a.maintenance.AutoResolveStale(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Resolved %d stale log entries\n", n)
		return nil
	})
}
