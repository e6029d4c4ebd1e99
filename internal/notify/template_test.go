package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/MrKrishnabhagat/video-convert-analysis/internal/result"
)

func finishedResult(status result.Status) *result.TestResult {
	res := result.New("youtube_conversion", "https://youtu.be/abc123", "mp4")
	res.StartTime = time.Now().Add(-90 * time.Second)
	if status == result.StatusError {
		res.AddStep(result.TestStep{
			Name:         "input_youtube_url",
			Status:       result.StepError,
			ErrorMessage: "Could not find URL input field",
		})
	}
	res.Complete(status)
	return res
}

func TestRender_Basic(t *testing.T) {
	data := BuildTemplateData(finishedResult(result.StatusSuccess), "", "")

	got, err := Render(`{{run.status | upper}} {{run.test_name}}`, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "SUCCESS youtube_conversion" {
		t.Errorf("result = %q", got)
	}
}

func TestRender_StatusEmoji(t *testing.T) {
	tests := []struct {
		status result.Status
		emoji  string
	}{
		{result.StatusSuccess, "\U0001f7e2"},
		{result.StatusError, "\U0001f534"},
	}
	for _, tt := range tests {
		data := BuildTemplateData(finishedResult(tt.status), "", "")
		got, err := Render(`{{run.status_emoji}}`, data)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.status, err)
		}
		if got != tt.emoji {
			t.Errorf("status=%s: emoji = %q, want %q", tt.status, got, tt.emoji)
		}
	}
}

func TestRender_ErrorField(t *testing.T) {
	data := BuildTemplateData(finishedResult(result.StatusError), "", "")

	got, err := Render(DefaultTemplate, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "Error: Could not find URL input field"; !strings.Contains(got, want) {
		t.Errorf("result = %q, want it to contain %q", got, want)
	}
}

func TestRender_SuccessOmitsError(t *testing.T) {
	data := BuildTemplateData(finishedResult(result.StatusSuccess), "", "")

	got, err := Render(DefaultTemplate, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, "Error:") {
		t.Errorf("result = %q, success must not carry an error line", got)
	}
}

func TestRender_AnalysisAccess(t *testing.T) {
	data := BuildTemplateData(finishedResult(result.StatusSuccess),
		"All checkpoints passed.", "Nothing to do.")

	got, err := Render(`{{analysis.analysis}}`, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "All checkpoints passed." {
		t.Errorf("result = %q", got)
	}
}

func TestRender_SprigFunctions(t *testing.T) {
	data := BuildTemplateData(finishedResult(result.StatusSuccess), "", "")

	got, err := Render(`{{run.test_name | upper | trunc 7}}`, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "YOUTUBE" {
		t.Errorf("result = %q", got)
	}
}

func TestRender_InvalidTemplate(t *testing.T) {
	data := BuildTemplateData(finishedResult(result.StatusSuccess), "", "")

	if _, err := Render(`{{run.status | nonexistent}}`, data); err == nil {
		t.Fatal("expected error for invalid template function")
	}
}
