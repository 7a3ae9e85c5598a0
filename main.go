package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tournevent/courier/internal/reconcile"
	"github.com/tournevent/courier/internal/server"
	"github.com/tournevent/courier/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var envFile string

var rootCmd = &cobra.Command{
	Use:     "courier",
	Short:   "Courier dispatch and reconciliation service for Pathao, RedX, Steadfast and Paperfly",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the reconciliation scheduler",
	RunE:  runServe,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one reconciliation pass and print the result as JSON",
	RunE:  runReconcile,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")
	rootCmd.AddCommand(serveCmd, reconcileCmd, migrateCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newApp(ctx, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	app.logger.Info("Starting courier service",
		zap.Int("port", app.cfg.Port),
		zap.String("version", app.cfg.Version),
		zap.Duration("reconcile_interval", app.cfg.ReconcileInterval),
	)

	sched := reconcile.NewScheduler(app.job, app.cfg.ReconcileInterval, app.logger)
	srv := server.New(server.Config{
		Port:      app.cfg.Port,
		CronToken: app.cfg.CronToken,
		Gatherer:  prometheus.DefaultGatherer,
	}, app.dispatch, sched, app.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Run(gctx); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sched.Run(gctx)
	})
	return g.Wait()
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newApp(ctx, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	res, err := app.job.Run(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := store.Open(cfg.DBDriver, cfg.DBDSN, false)
	if err != nil {
		return err
	}
	defer store.Close(db)

	if err := store.Migrate(ctx, db); err != nil {
		return err
	}
	logger.Info("Database schema up to date", zap.String("driver", cfg.DBDriver))
	return nil
}
