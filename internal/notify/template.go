// Package notify renders and delivers run-outcome notifications through
// Shoutrrr service URLs (Slack, Discord, Telegram, email, and the rest).
package notify

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/MrKrishnabhagat/video-convert-analysis/internal/result"
)

// TemplateData holds everything a notification template can reference.
type TemplateData struct {
	Run      map[string]string
	Analysis map[string]string
}

// DefaultTemplate is used when neither the target nor the config overrides it.
const DefaultTemplate = `{{run.status_emoji}} {{run.test_name}}: {{run.status}} in {{run.duration}}{{if run.error}}
Error: {{run.error}}{{end}}`

// BuildTemplateData flattens a finished run into template fields.
func BuildTemplateData(res *result.TestResult, analysis, troubleshooting string) TemplateData {
	run := map[string]string{
		"test_name":    res.TestName,
		"youtube_url":  res.YoutubeURL,
		"status":       string(res.OverallStatus),
		"status_emoji": statusEmoji(res.OverallStatus),
		"duration":     res.Duration().Round(time.Millisecond).String(),
		"error":        "",
	}
	if last := res.LastStep(); last != nil && res.OverallStatus == result.StatusError {
		run["error"] = last.ErrorMessage
	}

	return TemplateData{
		Run: run,
		Analysis: map[string]string{
			"analysis":        analysis,
			"troubleshooting": troubleshooting,
		},
	}
}

func statusEmoji(status result.Status) string {
	switch status {
	case result.StatusSuccess:
		return "\U0001f7e2" // 🟢
	case result.StatusError:
		return "\U0001f534" // 🔴
	default:
		return "\u2753" // ❓
	}
}

// Render executes a template string with Sprig functions plus the accessor
// functions run and analysis, so {{run.status}} reads a field.
func Render(tmplStr string, data TemplateData) (string, error) {
	funcMap := sprig.TxtFuncMap()
	funcMap["run"] = func() map[string]string { return data.Run }
	funcMap["analysis"] = func() map[string]string { return data.Analysis }

	t, err := template.New("notify").Funcs(funcMap).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}
