// Package monitor watches the conversion-progress phase of a run. The target
// site's progress UI is not guaranteed to exist or behave consistently, so
// the monitor trades precision for robustness: it never fails the run just
// because progress tracking was inconclusive.
package monitor

import (
	"log/slog"
	"strings"
	"time"

	"github.com/MrKrishnabhagat/video-convert-analysis/internal/browser"
)

// Clock abstracts time so the bounded-wait property is testable.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// progressSelectors are tried in order; earlier entries are the more common
// progress widgets.
var progressSelectors = []string{
	"progress",
	".progress-bar",
	".loading",
	".converting",
	"div[role='progressbar']",
	".loader",
	".spinner",
	".progress",
	".conversion-progress",
}

// Monitor polls for progress-indicator disappearance or download-affordance
// appearance, bounded by Budget.
type Monitor struct {
	FindTimeout   time.Duration // per progress selector
	PollInterval  time.Duration
	Budget        time.Duration // maximum wall-clock polling window
	FallbackSleep time.Duration // fixed wait when no indicator exists
	Clock         Clock
	Logger        *slog.Logger
}

func New(logger *slog.Logger) *Monitor {
	return &Monitor{
		FindTimeout:   5 * time.Second,
		PollInterval:  5 * time.Second,
		Budget:        120 * time.Second,
		FallbackSleep: 60 * time.Second,
		Clock:         systemClock{},
		Logger:        logger,
	}
}

// Outcome describes how the wait ended. None of the variants is an error:
// exceeding the budget simply ends polling and the caller proceeds to final
// verification regardless.
type Outcome struct {
	IndicatorFound   bool
	IndicatorCleared bool
	DownloadAppeared bool
	BudgetExceeded   bool
}

// Wait blocks until the conversion looks finished or the budget runs out.
func (m *Monitor) Wait(page browser.Page) Outcome {
	indicator := m.findIndicator(page)
	if indicator == nil {
		m.Logger.Info("no explicit progress indicator found, waiting fixed time", "wait", m.FallbackSleep)
		m.Clock.Sleep(m.FallbackSleep)
		return Outcome{}
	}

	out := Outcome{IndicatorFound: true}
	start := m.Clock.Now()
	for m.Clock.Now().Sub(start) < m.Budget {
		if !indicator.IsVisible() {
			m.Logger.Info("progress indicator disappeared, conversion may be complete")
			out.IndicatorCleared = true
			return out
		}
		if m.downloadAffordancePresent(page) {
			m.Logger.Info("download element appeared, conversion is complete")
			out.DownloadAppeared = true
			return out
		}
		m.Clock.Sleep(m.PollInterval)
	}

	m.Logger.Warn("conversion wait budget exhausted", "budget", m.Budget)
	out.BudgetExceeded = true
	return out
}

func (m *Monitor) findIndicator(page browser.Page) browser.Element {
	for _, sel := range progressSelectors {
		el, err := page.Find(sel, m.FindTimeout)
		if err != nil {
			m.Logger.Warn("progress selector query failed", "selector", sel, "error", err)
			continue
		}
		if el != nil {
			m.Logger.Info("found progress indicator", "selector", sel)
			return el
		}
	}
	return nil
}

func (m *Monitor) downloadAffordancePresent(page browser.Page) bool {
	elements, err := page.FindAll("a, button")
	if err != nil {
		return false
	}
	for _, el := range elements {
		text, err := el.InnerText()
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(text), "download") && el.IsVisible() {
			return true
		}
	}
	return false
}
