// Package runner orchestrates one conversion test: it walks the checkpoint
// sequence against a live browser session, collecting steps, screenshots,
// and classifier verdicts into a TestResult.
package runner

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/MrKrishnabhagat/video-convert-analysis/internal/artifact"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/browser"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/classify"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/config"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/logging"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/monitor"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/ocr"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/result"
)

// Code classifies how a checkpoint ended.
type Code int

const (
	// CodeSuccess lets the run proceed to the next checkpoint.
	CodeSuccess Code = iota
	// CodeSoft records a warning but the run continues.
	CodeSoft
	// CodeHard terminates the run with an error status.
	CodeHard
)

// Outcome is a checkpoint's report back to the orchestrator. The checkpoint
// body has already appended its step; Message carries the terminal error for
// hard outcomes.
type Outcome struct {
	Code    Code
	Message string
}

func success() Outcome        { return Outcome{Code: CodeSuccess} }
func soft(msg string) Outcome { return Outcome{Code: CodeSoft, Message: msg} }
func hard(msg string) Outcome { return Outcome{Code: CodeHard, Message: msg} }

// Runner wires the collaborators for test runs. One Runner serves many runs;
// each run gets its own session, logger, and TestResult.
type Runner struct {
	cfg        *config.Config
	driver     browser.Driver
	ocr        ocr.Extractor
	classifier classify.Client
	store      *artifact.Store
	monitor    *monitor.Monitor
	clock      monitor.Clock
	logger     *slog.Logger

	// logMirror additionally receives each run's log lines; nil keeps them
	// in the log file only.
	logMirror io.Writer
}

func New(
	cfg *config.Config,
	driver browser.Driver,
	extractor ocr.Extractor,
	classifier classify.Client,
	store *artifact.Store,
	logger *slog.Logger,
) *Runner {
	clock := monitor.SystemClock()
	mon := monitor.New(logger)
	mon.FindTimeout = config.Duration(cfg.Timeouts.IndicatorFind, 5*time.Second)
	mon.PollInterval = config.Duration(cfg.Timeouts.PollInterval, 5*time.Second)
	mon.Budget = config.Duration(cfg.Timeouts.MaxConversionWait, 120*time.Second)
	mon.FallbackSleep = config.Duration(cfg.Timeouts.FallbackWait, 60*time.Second)
	mon.Clock = clock

	return &Runner{
		cfg:        cfg,
		driver:     driver,
		ocr:        extractor,
		classifier: classifier,
		store:      store,
		monitor:    mon,
		clock:      clock,
		logger:     logger,
		logMirror:  os.Stderr,
	}
}

type checkpoint struct {
	name string
	fn   func(ctx context.Context) Outcome
}

// Run executes the full checkpoint sequence and returns the completed
// result. The result always reaches a terminal status; the session is closed
// on every exit path.
func (r *Runner) Run(ctx context.Context, testName, youtubeURL string) *result.TestResult {
	res := result.New(testName, youtubeURL, "mp4")

	runLogger, logPath, closeLog, err := logging.NewRunLogger(
		r.store.LogsDir(), testName, youtubeURL, slog.LevelInfo, r.logMirror)
	if err != nil {
		r.logger.Error("cannot create run log, using base logger", "error", err)
		runLogger = r.logger
	} else {
		res.LogPath = logPath
		defer closeLog()
	}

	session, err := r.driver.NewSession(ctx, browser.SessionOptions{
		RecordVideo: r.cfg.Browser.RecordVideo,
		VideoDir:    r.store.VideoDir(),
	})
	if err != nil {
		runLogger.Error("test failed with error", "error", err)
		res.AddStep(result.TestStep{
			Name:         "test_execution_failed",
			Status:       result.StepError,
			ErrorMessage: err.Error(),
		})
		res.Complete(result.StatusError)
		return res
	}

	runLogger.Info("starting test", "test", testName, "url", youtubeURL)

	s := &run{
		r:          r,
		page:       session.Page(),
		res:        res,
		logger:     runLogger,
		youtubeURL: youtubeURL,
		stageOCR:   make(map[string]string),
	}

	// Checkpoints in execution order. Only select_mp4_format is soft.
	checkpoints := []checkpoint{
		{"navigate_to_site", s.navigateToSite},
		{"click_url_link", s.clickURLLink},
		{"input_youtube_url", s.inputYoutubeURL},
		{"select_mp4_format", s.selectMP4Format},
		{"click_convert_button", s.clickConvertButton},
		{"wait_for_conversion", s.waitForConversion},
		{"check_download_availability", s.checkDownloadAvailability},
	}

	status := result.StatusSuccess
	for _, cp := range checkpoints {
		out := cp.fn(ctx)
		switch out.Code {
		case CodeHard:
			runLogger.Error("checkpoint failed", "checkpoint", cp.name, "error", out.Message)
			status = result.StatusError
		case CodeSoft:
			runLogger.Warn("checkpoint degraded", "checkpoint", cp.name, "warning", out.Message)
			continue
		default:
			continue
		}
		break
	}

	if status == result.StatusSuccess {
		// Let pending page work settle before teardown.
		r.clock.Sleep(5 * time.Second)
		runLogger.Info("test completed successfully")
	}

	generated := session.VideoPath()
	grace := config.Duration(r.cfg.Timeouts.CloseGrace, 3*time.Second)
	if err := session.Close(grace); err != nil {
		runLogger.Error("error closing browser session", "error", err)
	} else {
		runLogger.Info("browser session closed")
	}

	if generated != "" {
		videoPath, err := r.store.RenameVideo(generated, testName, res.StartTime)
		if err != nil {
			runLogger.Error("cannot move session recording", "error", err)
		} else {
			res.VideoPath = videoPath
		}
	}

	res.Complete(status)
	return res
}

// run carries the per-run state the checkpoint bodies share.
type run struct {
	r          *Runner
	page       browser.Page
	res        *result.TestResult
	logger     *slog.Logger
	youtubeURL string

	// stageOCR collects the OCR text of the three key screenshots for the
	// final summary call: initial, before_conversion, final.
	stageOCR map[string]string
}

// screenshot captures the page and verifies the file landed on disk.
// A capture failure is logged and yields an empty path, never an error.
func (s *run) screenshot(label string) string {
	path := s.r.store.ScreenshotPath(s.res.TestName, label, time.Now())
	if err := s.page.Screenshot(path); err != nil {
		s.logger.Error("screenshot capture failed", "label", label, "error", err)
		return ""
	}
	return s.r.store.WaitForFile(path)
}

// extractOCR runs OCR on a screenshot, tolerating a missing capture.
func (s *run) extractOCR(ctx context.Context, screenshotPath string) string {
	if screenshotPath == "" {
		return "Image file not found"
	}
	return s.r.ocr.ExtractText(ctx, screenshotPath)
}
