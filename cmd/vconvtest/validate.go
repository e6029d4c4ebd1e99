package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrKrishnabhagat/video-convert-analysis/internal/config"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/notify"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long:  "Loads the configuration, checks required fields, and verifies that every notify entry references a usable service.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve(cfgFile)
		if err != nil {
			return err
		}

		if err := notify.Validate(cfg.Notify, cfg.Services); err != nil {
			return fmt.Errorf("notify configuration: %w", err)
		}

		fmt.Println("Configuration is valid.")
		fmt.Printf("  Target URL: %s\n", cfg.TargetURL)
		fmt.Printf("  Hostname:   %s\n", cfg.Hostname)
		if cfg.Schedule != nil {
			fmt.Printf("  Schedule:   %s (%s)\n", cfg.Schedule.Cron, cfg.Schedule.YoutubeURL)
		}
		if cfg.Webhook != nil {
			fmt.Printf("  Webhook:    %s\n", cfg.Webhook.URL)
		}
		if cfg.Upload != nil {
			fmt.Printf("  Upload:     %s\n", cfg.Upload.Provider)
		}
		if len(cfg.Notify) > 0 {
			fmt.Printf("  Notify:     %d target(s)\n", len(cfg.Notify))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
