package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrKrishnabhagat/video-convert-analysis/internal/artifact"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/config"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/notify"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/report"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/result"
)

// deliver pushes a finished result to the configured sinks: webhook, artifact
// upload, and notifications. Delivery failures are logged and recorded on the
// result; they never change the run's status.
func deliver(ctx context.Context, cfg *config.Config, logger *slog.Logger, res *result.TestResult) {
	if cfg.Webhook != nil {
		sendWebhook(ctx, cfg.Webhook, logger, res)
	}
	if cfg.Upload != nil {
		uploadArtifacts(ctx, cfg.Upload, logger, res)
	}
	if len(cfg.Notify) > 0 {
		sendNotifications(cfg, logger, res)
	}
}

func sendWebhook(ctx context.Context, whCfg *config.Webhook, logger *slog.Logger, res *result.TestResult) {
	rc := report.DefaultRetryConfig()
	if whCfg.Retries > 0 {
		rc.MaxRetries = whCfg.Retries
	}
	rc.InitialDelay = config.Duration(whCfg.RetryDelay, rc.InitialDelay)

	client := report.NewClient(report.Config{
		URL:       whCfg.URL,
		Headers:   whCfg.Headers,
		Timeout:   config.Duration(whCfg.Timeout, 30*time.Second),
		AuthType:  whCfg.AuthType,
		AuthToken: whCfg.AuthToken,
	}, &rc, logger)

	if err := client.Send(ctx, res); err != nil {
		logger.Error("webhook delivery failed", "error", err)
		res.WebhookError = err.Error()
		return
	}
	res.WebhookSent = true
}

func uploadArtifacts(ctx context.Context, upCfg *config.Upload, logger *slog.Logger, res *result.TestResult) {
	provider, err := artifact.NewProvider(upCfg.Provider)
	if err != nil {
		logger.Error("upload provider unavailable", "error", err)
		return
	}
	if err := provider.Configure(upCfg.Settings); err != nil {
		logger.Error("upload provider configuration failed", "provider", provider.Name(), "error", err)
		return
	}

	var paths []string
	for _, step := range res.Steps {
		paths = append(paths, step.ScreenshotPath)
	}
	paths = append(paths, res.VideoPath, res.LogPath)

	prefix := fmt.Sprintf("%s/%s", res.TestName, res.StartTime.Format("20060102_150405"))
	for _, err := range artifact.UploadFiles(ctx, provider, prefix, paths) {
		logger.Error("artifact upload failed", "error", err)
	}
}

func sendNotifications(cfg *config.Config, logger *slog.Logger, res *result.TestResult) {
	data := notify.BuildTemplateData(res, res.Analysis, res.Troubleshooting)
	targets, err := notify.ResolveTargets(cfg.Notify, cfg.Services, data)
	if err != nil {
		logger.Error("resolving notification targets failed", "error", err)
		return
	}
	for _, t := range targets {
		if err := notify.Send(t); err != nil {
			logger.Error("notification failed", "service", t.ServiceName, "error", err)
			continue
		}
		logger.Info("notification sent", "service", t.ServiceName)
	}
}
