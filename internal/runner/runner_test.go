package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrKrishnabhagat/video-convert-analysis/internal/artifact"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/browser"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/browser/browsertest"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/classify"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/config"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/result"
)

type fakeOCR struct {
	text string
}

func (f *fakeOCR) ExtractText(_ context.Context, _ string) string { return f.text }

// fakeClassifier returns canned verdicts keyed by the context label.
type fakeClassifier struct {
	verdicts map[string]classify.Verdict
	final    classify.FinalVerdict
	summary  classify.Summary

	summarizedStages map[string]string
}

func (f *fakeClassifier) CheckScreenshot(_ context.Context, _, contextLabel string) classify.Verdict {
	return f.verdicts[contextLabel]
}

func (f *fakeClassifier) CheckFinalState(_ context.Context, _ string) classify.FinalVerdict {
	return f.final
}

func (f *fakeClassifier) Summarize(_ context.Context, stages map[string]string) classify.Summary {
	f.summarizedStages = stages
	return f.summary
}

type fakeClock struct {
	slept time.Duration
}

func (c *fakeClock) Now() time.Time        { return time.Unix(0, 0).Add(c.slept) }
func (c *fakeClock) Sleep(d time.Duration) { c.slept += d }

type harness struct {
	runner     *Runner
	page       *browsertest.FakePage
	classifier *fakeClassifier
	clock      *fakeClock
}

func newHarness(t *testing.T, page *browsertest.FakePage) *harness {
	t.Helper()

	root := t.TempDir()
	store := artifact.NewStore(artifact.Dirs{
		Screenshots: filepath.Join(root, "screenshots"),
		Videos:      filepath.Join(root, "videos"),
		Logs:        filepath.Join(root, "logs"),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := store.EnsureDirs(); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		TargetURL: "https://converter.example.com",
		Groq:      config.Groq{APIKey: "gsk_test"},
	}

	classifier := &fakeClassifier{
		verdicts: map[string]classify.Verdict{},
		final:    classify.FinalVerdict{DownloadAvailable: true},
		summary: classify.Summary{
			Analysis:        "Test ran cleanly.",
			Troubleshooting: "No issues found.",
		},
	}

	driver := &browsertest.FakeDriver{
		Session: &browsertest.FakeSession{FakePage: page},
	}

	r := New(cfg, driver, &fakeOCR{text: "Video Converter ready"}, classifier, store,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	clock := &fakeClock{}
	r.clock = clock
	r.monitor.Clock = clock
	r.logMirror = nil

	return &harness{runner: r, page: page, classifier: classifier, clock: clock}
}

// happyPage wires up every element the full checkpoint sequence needs.
func happyPage() *browsertest.FakePage {
	return &browsertest.FakePage{
		Selectors: map[string]browser.Element{
			"a#open_link":       &browsertest.FakeElement{Text: "URL", Visible: true},
			"select":            &browsertest.FakeElement{Text: "MP4", Visible: true},
			".button_1_smaller": &browsertest.FakeElement{Text: "Convert", Visible: true},
		},
	}
}

func stepNames(res *result.TestResult) []string {
	names := make([]string, len(res.Steps))
	for i, s := range res.Steps {
		names[i] = s.Name
	}
	return names
}

func TestRunHappyPath(t *testing.T) {
	h := newHarness(t, happyPage())

	res := h.runner.Run(context.Background(), "youtube_conversion", "https://youtu.be/abc123")

	if res.OverallStatus != result.StatusSuccess {
		t.Fatalf("status = %s, steps = %v", res.OverallStatus, stepNames(res))
	}
	want := []string{
		"navigate_to_site",
		"click_url_link",
		"input_youtube_url",
		"select_mp4_format",
		"click_convert_button",
		"wait_for_conversion",
		"check_download_availability",
	}
	got := stepNames(res)
	if len(got) != len(want) {
		t.Fatalf("steps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step[%d] = %q, want %q", i, got[i], want[i])
		}
		if res.Steps[i].Status == result.StepError {
			t.Errorf("step %q has error status", got[i])
		}
	}
	if !res.Completed() {
		t.Error("result not completed")
	}
	if res.Analysis != "Test ran cleanly." {
		t.Errorf("analysis = %q", res.Analysis)
	}
	if res.LogPath == "" {
		t.Error("log path not recorded")
	}
	if h.page.DialogAccept != "https://youtu.be/abc123" {
		t.Errorf("dialog armed with %q", h.page.DialogAccept)
	}
}

func TestRunSummarizeReceivesAllStages(t *testing.T) {
	h := newHarness(t, happyPage())

	h.runner.Run(context.Background(), "youtube_conversion", "https://youtu.be/abc123")

	for _, stage := range []string{"initial", "before_conversion", "final"} {
		if h.classifier.summarizedStages[stage] == "" {
			t.Errorf("stage %q missing from summary call", stage)
		}
	}
}

func TestRunNavigationGateFailure(t *testing.T) {
	h := newHarness(t, happyPage())
	h.classifier.verdicts["site navigation"] = classify.Verdict{
		Error:   true,
		Message: "Site displays a maintenance banner",
	}

	res := h.runner.Run(context.Background(), "youtube_conversion", "https://youtu.be/abc123")

	if res.OverallStatus != result.StatusError {
		t.Fatalf("status = %s", res.OverallStatus)
	}
	if len(res.Steps) != 1 {
		t.Fatalf("steps = %v, run must stop at the failed gate", stepNames(res))
	}
	last := res.LastStep()
	if last.Name != "navigate_to_site" || last.Status != result.StepError {
		t.Errorf("last step = %+v", last)
	}
	if last.ErrorMessage != "Site displays a maintenance banner" {
		t.Errorf("error message = %q", last.ErrorMessage)
	}
	if !res.Completed() {
		t.Error("result not completed")
	}
}

func TestRunFormatSelectionDegradesToWarning(t *testing.T) {
	page := happyPage()
	page.Selectors["select"] = &browsertest.FakeElement{
		Visible:  true,
		ClickErr: errors.New("element obscured by overlay"),
	}
	h := newHarness(t, page)

	res := h.runner.Run(context.Background(), "youtube_conversion", "https://youtu.be/abc123")

	if res.OverallStatus != result.StatusSuccess {
		t.Fatalf("status = %s, a soft checkpoint must not fail the run", res.OverallStatus)
	}

	var warnings int
	for _, s := range res.Steps {
		if s.Status == result.StepWarning {
			warnings++
			if s.Name != "select_mp4_format" {
				t.Errorf("unexpected warning step %q", s.Name)
			}
		}
	}
	if warnings != 1 {
		t.Errorf("warnings = %d, want exactly 1", warnings)
	}
	if last := res.LastStep(); last.Name != "check_download_availability" {
		t.Errorf("run stopped early, last step = %q", last.Name)
	}
}

func TestRunFormatSelectorMissingIsWarning(t *testing.T) {
	page := happyPage()
	delete(page.Selectors, "select")
	h := newHarness(t, page)

	res := h.runner.Run(context.Background(), "youtube_conversion", "https://youtu.be/abc123")

	if res.OverallStatus != result.StatusSuccess {
		t.Fatalf("status = %s, a soft checkpoint must not fail the run", res.OverallStatus)
	}

	var warnings []result.TestStep
	for _, s := range res.Steps {
		if s.Status == result.StepWarning {
			warnings = append(warnings, s)
		}
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %d, want exactly 1", len(warnings))
	}
	if warnings[0].Name != "select_mp4_format" {
		t.Errorf("warning step = %q", warnings[0].Name)
	}
	if warnings[0].ErrorMessage != "Could not explicitly select MP4 format, may be using default" {
		t.Errorf("warning message = %q", warnings[0].ErrorMessage)
	}
	if last := res.LastStep(); last.Name != "check_download_availability" {
		t.Errorf("run stopped early, last step = %q", last.Name)
	}
}

func TestRunPreConvertGateFailure(t *testing.T) {
	h := newHarness(t, happyPage())
	h.classifier.verdicts["before conversion"] = classify.Verdict{
		Error:   true,
		Message: "Conversion failed",
	}

	res := h.runner.Run(context.Background(), "youtube_conversion", "https://youtu.be/abc123")

	if res.OverallStatus != result.StatusError {
		t.Fatalf("status = %s", res.OverallStatus)
	}
	last := res.LastStep()
	if last.Name != "before_convert_button" || last.Status != result.StepError {
		t.Fatalf("last step = %+v, run must stop at the pre-convert gate", last)
	}
	if last.ErrorMessage != "Conversion failed" {
		t.Errorf("error message = %q", last.ErrorMessage)
	}
	for _, s := range res.Steps[:len(res.Steps)-1] {
		if s.Name == "click_convert_button" || s.Name == "wait_for_conversion" {
			t.Errorf("step %q recorded after failed gate", s.Name)
		}
	}
}

func TestRunSessionFailure(t *testing.T) {
	h := newHarness(t, happyPage())
	driver := &browsertest.FakeDriver{SessionErr: errors.New("browser binary missing")}
	h.runner.driver = driver

	res := h.runner.Run(context.Background(), "youtube_conversion", "https://youtu.be/abc123")

	if res.OverallStatus != result.StatusError {
		t.Fatalf("status = %s", res.OverallStatus)
	}
	last := res.LastStep()
	if last == nil || last.Name != "test_execution_failed" {
		t.Fatalf("last step = %+v", last)
	}
}

func TestRunClosesSession(t *testing.T) {
	page := happyPage()
	h := newHarness(t, page)
	session := h.runner.driver.(*browsertest.FakeDriver).Session

	h.runner.Run(context.Background(), "youtube_conversion", "https://youtu.be/abc123")

	if !session.Closed {
		t.Error("session not closed")
	}
	if session.CloseGrace <= 0 {
		t.Errorf("close grace = %v, want a positive flush delay", session.CloseGrace)
	}
}

func TestRunConvertButtonMissingIsHard(t *testing.T) {
	page := happyPage()
	delete(page.Selectors, ".button_1_smaller")
	h := newHarness(t, page)

	res := h.runner.Run(context.Background(), "youtube_conversion", "https://youtu.be/abc123")

	if res.OverallStatus != result.StatusError {
		t.Fatalf("status = %s", res.OverallStatus)
	}
	last := res.LastStep()
	if last.Name != "click_convert_button" || last.ErrorMessage != "Could not find convert button" {
		t.Errorf("last step = %+v", last)
	}
}

func TestMonitorTimeoutIndependentOfSelector(t *testing.T) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := artifact.NewStore(artifact.Dirs{}, discard)
	newRunner := func(timeouts config.Timeouts) *Runner {
		cfg := &config.Config{Timeouts: timeouts}
		return New(cfg, &browsertest.FakeDriver{}, &fakeOCR{}, &fakeClassifier{}, store, discard)
	}

	r := newRunner(config.Timeouts{Selector: "1s"})
	if r.monitor.FindTimeout != 5*time.Second {
		t.Errorf("find timeout = %v, checkpoint selector timeout must not leak into the monitor", r.monitor.FindTimeout)
	}

	r = newRunner(config.Timeouts{IndicatorFind: "7s"})
	if r.monitor.FindTimeout != 7*time.Second {
		t.Errorf("find timeout = %v, want 7s", r.monitor.FindTimeout)
	}
}

func TestRunFinalStateInconclusiveIsWarning(t *testing.T) {
	h := newHarness(t, happyPage())
	h.classifier.final = classify.FinalVerdict{DownloadAvailable: false}

	res := h.runner.Run(context.Background(), "youtube_conversion", "https://youtu.be/abc123")

	if res.OverallStatus != result.StatusSuccess {
		t.Fatalf("status = %s, inconclusive final state must not fail the run", res.OverallStatus)
	}
	last := res.LastStep()
	if last.Status != result.StepWarning {
		t.Errorf("last step = %+v, want warning", last)
	}
	if last.ErrorMessage != "No clear download button or success message found" {
		t.Errorf("message = %q", last.ErrorMessage)
	}
}
