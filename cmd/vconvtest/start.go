package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/MrKrishnabhagat/video-convert-analysis/internal/config"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run tests on the configured cron schedule",
	Long: "Starts a long-running scheduler that executes the configured test on " +
		"every cron tick. A tick is skipped while a previous run is still in flight.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger()

		cfg, err := config.Resolve(cfgFile)
		if err != nil {
			return err
		}
		if cfg.Schedule == nil {
			return fmt.Errorf("config has no schedule section")
		}

		testName := cfg.Schedule.TestName
		if testName == "" {
			testName = "youtube_conversion"
		}

		var inFlight atomic.Bool
		ctx := context.Background()

		c := cron.New()
		_, err = c.AddFunc(cfg.Schedule.Cron, func() {
			if !inFlight.CompareAndSwap(false, true) {
				logger.Warn("previous run still in flight, skipping tick")
				return
			}
			defer inFlight.Store(false)

			res, err := executeRun(ctx, cfg, logger, testName, cfg.Schedule.YoutubeURL)
			if err != nil {
				logger.Error("scheduled run failed to start", "error", err)
				return
			}
			logger.Info("scheduled run finished",
				"status", res.OverallStatus, "steps", len(res.Steps), "duration", res.Duration())
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", cfg.Schedule.Cron, err)
		}

		logger.Info("scheduler started", "cron", cfg.Schedule.Cron, "url", cfg.Schedule.YoutubeURL)
		c.Start()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		logger.Info("shutting down, waiting for running job")
		<-c.Stop().Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
