package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrKrishnabhagat/video-convert-analysis/internal/artifact"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/browser"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/classify"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/config"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/ocr"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/result"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one conversion test",
	Long: "Runs the full checkpoint sequence against the configured conversion site " +
		"for a single YouTube URL and prints the result as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")
		name, _ := cmd.Flags().GetString("name")
		logger := setupLogger()

		cfg, err := config.Resolve(cfgFile)
		if err != nil {
			return err
		}

		ctx := context.Background()
		res, err := executeRun(ctx, cfg, logger, name, url)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		fmt.Println(string(out))

		if res.OverallStatus != result.StatusSuccess {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().String("url", "", "YouTube URL to convert")
	runCmd.Flags().String("name", "youtube_conversion", "test name used in artifact file names")
	_ = runCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(runCmd)
}

// executeRun wires the collaborators, runs the test, and performs post-run
// delivery. Shared by the run and start commands.
func executeRun(ctx context.Context, cfg *config.Config, logger *slog.Logger, name, url string) (*result.TestResult, error) {
	store := artifact.NewStore(artifact.Dirs{
		Screenshots: cfg.Dirs.Screenshots,
		Videos:      cfg.Dirs.Videos,
		Logs:        cfg.Dirs.Logs,
	}, logger)
	if err := store.EnsureDirs(); err != nil {
		return nil, err
	}

	driver, err := browser.NewPlaywrightDriver(cfg.Browser.Headless)
	if err != nil {
		return nil, fmt.Errorf("starting browser driver: %w", err)
	}
	defer driver.Close()

	extractor := ocr.NewTesseract(cfg.OCR.Binary, config.Duration(cfg.OCR.Timeout, 30*time.Second), logger)
	classifier := classify.NewGroq(classify.Config{
		APIKey:   cfg.Groq.APIKey,
		Endpoint: cfg.Groq.Endpoint,
		Model:    cfg.Groq.Model,
		Timeout:  config.Duration(cfg.Groq.Timeout, 30*time.Second),
	}, logger)

	r := runner.New(cfg, driver, extractor, classifier, store, logger)
	res := r.Run(ctx, name, url)

	deliver(ctx, cfg, logger, res)
	return res, nil
}
