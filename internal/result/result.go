package result

import (
	"encoding/json"
	"time"
)

// Status is the overall outcome of a test run.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// StepStatus is the outcome of a single checkpoint.
type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepFailure StepStatus = "failure"
	StepError   StepStatus = "error"
	StepWarning StepStatus = "warning"
)

// MetaOCRText is the metadata key carrying OCR-extracted text for a step.
const MetaOCRText = "ocr_text"

// TestStep records one checkpoint of a run. Steps are appended in execution
// order and never mutated afterwards.
type TestStep struct {
	Name           string            `json:"name"`
	Status         StepStatus        `json:"status"`
	ScreenshotPath string            `json:"screenshot_path,omitempty"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// TestResult aggregates everything produced by one test run. It is owned by
// the orchestrator for the duration of the run and handed off read-only
// afterwards.
type TestResult struct {
	TestName        string
	YoutubeURL      string
	Format          string
	Steps           []TestStep
	StartTime       time.Time
	EndTime         time.Time
	OverallStatus   Status
	Analysis        string
	Troubleshooting string
	VideoPath       string
	LogPath         string

	// Delivery status for the reporting webhook. Kept on the local result
	// only, never part of the payload sent out.
	WebhookSent  bool
	WebhookError string
}

// New creates a pending result with the start timestamp set.
func New(testName, youtubeURL, format string) *TestResult {
	if format == "" {
		format = "mp4"
	}
	return &TestResult{
		TestName:      testName,
		YoutubeURL:    youtubeURL,
		Format:        format,
		StartTime:     time.Now(),
		OverallStatus: StatusPending,
	}
}

// AddStep appends a step, stamping it if the caller did not.
func (r *TestResult) AddStep(step TestStep) {
	if step.Timestamp.IsZero() {
		step.Timestamp = time.Now()
	}
	r.Steps = append(r.Steps, step)
}

// Complete sets the terminal status and end timestamp. The first call wins;
// later calls are ignored so a single writer owns the terminal transition.
func (r *TestResult) Complete(status Status) {
	if !r.EndTime.IsZero() {
		return
	}
	r.EndTime = time.Now()
	r.OverallStatus = status
}

// Completed reports whether the run has reached a terminal status.
func (r *TestResult) Completed() bool {
	return !r.EndTime.IsZero()
}

// Duration returns the elapsed run time, zero until completion.
func (r *TestResult) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// LastStep returns the most recently appended step, or nil when none exist.
func (r *TestResult) LastStep() *TestStep {
	if len(r.Steps) == 0 {
		return nil
	}
	return &r.Steps[len(r.Steps)-1]
}

type stepJSON struct {
	Name           string            `json:"name"`
	Status         StepStatus        `json:"status"`
	ScreenshotPath string            `json:"screenshot_path,omitempty"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	Timestamp      string            `json:"timestamp"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type resultJSON struct {
	TestName        string     `json:"test_name"`
	YoutubeURL      string     `json:"youtube_url"`
	Format          string     `json:"format"`
	Steps           []stepJSON `json:"steps"`
	StartTime       string     `json:"start_time"`
	EndTime         *string    `json:"end_time"`
	OverallStatus   Status     `json:"overall_status"`
	Analysis        string     `json:"analysis,omitempty"`
	Troubleshooting string     `json:"troubleshooting,omitempty"`
	VideoPath       string     `json:"video_path,omitempty"`
	LogPath         string     `json:"log_path,omitempty"`
	DurationSeconds *float64   `json:"duration_seconds"`
}

// MarshalJSON emits the serializable shape handed to reporting collaborators:
// ISO-8601 timestamps and a derived duration_seconds (null until completion).
func (r *TestResult) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		TestName:        r.TestName,
		YoutubeURL:      r.YoutubeURL,
		Format:          r.Format,
		StartTime:       r.StartTime.Format(time.RFC3339),
		OverallStatus:   r.OverallStatus,
		Analysis:        r.Analysis,
		Troubleshooting: r.Troubleshooting,
		VideoPath:       r.VideoPath,
		LogPath:         r.LogPath,
	}
	if !r.EndTime.IsZero() {
		end := r.EndTime.Format(time.RFC3339)
		out.EndTime = &end
		secs := r.EndTime.Sub(r.StartTime).Seconds()
		out.DurationSeconds = &secs
	}
	out.Steps = make([]stepJSON, len(r.Steps))
	for i, s := range r.Steps {
		out.Steps[i] = stepJSON{
			Name:           s.Name,
			Status:         s.Status,
			ScreenshotPath: s.ScreenshotPath,
			ErrorMessage:   s.ErrorMessage,
			Timestamp:      s.Timestamp.Format(time.RFC3339),
			Metadata:       s.Metadata,
		}
	}
	return json.Marshal(out)
}
