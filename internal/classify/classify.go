// Package classify turns OCR text into structured verdicts about the state
// of the conversion site, using a language-model completion endpoint.
//
// The classifier is fail-closed: transport failures and malformed model
// output degrade to an "error detected" verdict carrying diagnostic detail,
// and no call ever returns an error to its caller.
package classify

import (
	"context"
	"fmt"
	"strings"
)

// Verdict is the judgment for a mid-run checkpoint screenshot.
type Verdict struct {
	Error   bool   `json:"error"`
	Message string `json:"message,omitempty"`
}

// FinalVerdict additionally reports whether a download affordance is present.
type FinalVerdict struct {
	Error             bool   `json:"error"`
	Message           string `json:"message,omitempty"`
	DownloadAvailable bool   `json:"download_available,omitempty"`
}

// Summary is the batch analysis over the run's key screenshots.
type Summary struct {
	Analysis        string `json:"analysis"`
	Troubleshooting string `json:"troubleshooting"`
}

// Client is the outcome-classification surface consumed by the orchestrator.
type Client interface {
	CheckScreenshot(ctx context.Context, ocrText, contextLabel string) Verdict
	CheckFinalState(ctx context.Context, ocrText string) FinalVerdict
	Summarize(ctx context.Context, stages map[string]string) Summary
}

const noOCRText = "No OCR text available"

func screenshotPrompt(ocrText, contextLabel string) string {
	of := ""
	if contextLabel != "" {
		of = " of " + contextLabel
	}
	return fmt.Sprintf(`Analyze this OCR text from a screenshot%s and determine if there are any error messages or failures.

Important: Ignore non-ASCII characters or special symbols that appear due to OCR processing. Only flag an error if clear error text like "error", "failed", "cannot", etc. is present with high confidence.

You must respond with valid JSON in exactly this format, with NO additional text:

Example 1 (no error):
{
    "error": false
}

Example 2 (error found):
{
    "error": true,
    "message": "description of the error"
}

OCR Text:
%s`, of, ocrText)
}

func finalStatePrompt(ocrText string) string {
	return fmt.Sprintf(`Analyze this OCR text from the final screenshot of a YouTube video conversion process.
Look for error messages, failure notifications, or any indications that the process failed.
Also check if there are download links available or success messages indicating completion.

You must respond with valid JSON in exactly this format, with NO additional text:

Example 1 (no error, download available):
{
    "error": false,
    "download_available": true
}

Example 2 (error found):
{
    "error": true,
    "message": "description of the error"
}

Example 3 (no error, no download available):
{
    "error": false,
    "download_available": false
}

OCR Text:
%s`, ocrText)
}

func summaryPrompt(stages map[string]string) string {
	stage := func(key string) string {
		if v, ok := stages[key]; ok && v != "" {
			return v
		}
		return noOCRText
	}
	return fmt.Sprintf(`Provide a comprehensive analysis of this YouTube video conversion test based on the OCR text from key screenshots.

Screenshot 1 (Initial Navigation):
%s

Screenshot 2 (Before Conversion):
%s

Screenshot 3 (Final State):
%s

You must respond with valid JSON in exactly this format, with NO additional text:

{
    "analysis": "detailed explanation of what happened during the test",
    "troubleshooting": "recommendations for addressing any issues found"
}

If the test appears successful, note that in your analysis and provide any relevant observations.`,
		stage("initial"), stage("before_conversion"), stage("final"))
}

// truncate keeps diagnostic raw-response excerpts bounded in log and verdict
// messages.
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
