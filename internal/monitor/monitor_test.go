package monitor

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/MrKrishnabhagat/video-convert-analysis/internal/browser"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/browser/browsertest"
)

// fakeClock advances only when Sleep is called, so polling loops run at full
// speed while the wall-clock arithmetic stays realistic.
type fakeClock struct {
	now     time.Time
	slept   time.Duration
	onSleep func()
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
	c.slept += d
	if c.onSleep != nil {
		c.onSleep()
	}
}

func newTestMonitor(clock *fakeClock) *Monitor {
	m := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.Clock = clock
	return m
}

func TestWaitNoIndicatorFallsBackToFixedSleep(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	m := newTestMonitor(clock)

	out := m.Wait(&browsertest.FakePage{})

	if out.IndicatorFound {
		t.Error("no indicator was configured")
	}
	if clock.slept != m.FallbackSleep {
		t.Errorf("slept %v, want fixed fallback %v", clock.slept, m.FallbackSleep)
	}
}

func TestWaitIndicatorClears(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	m := newTestMonitor(clock)

	spinner := &browsertest.FakeElement{Visible: true}
	page := &browsertest.FakePage{
		Selectors: map[string]browser.Element{".spinner": spinner},
	}

	polls := 0
	clock.onSleep = func() {
		polls++
		if polls == 2 {
			spinner.Visible = false
		}
	}

	out := m.Wait(page)

	if !out.IndicatorFound || !out.IndicatorCleared {
		t.Errorf("outcome = %+v, want indicator found and cleared", out)
	}
	if out.BudgetExceeded {
		t.Error("budget must not be exceeded when the indicator clears")
	}
}

func TestWaitDownloadAppears(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	m := newTestMonitor(clock)

	spinner := &browsertest.FakeElement{Visible: true}
	download := &browsertest.FakeElement{Text: "Download MP4", Visible: true}
	page := &browsertest.FakePage{
		Selectors: map[string]browser.Element{"progress": spinner},
		All: map[string][]browser.Element{
			"a, button": {download},
		},
	}

	out := m.Wait(page)

	if !out.DownloadAppeared {
		t.Errorf("outcome = %+v, want download appeared", out)
	}
	if clock.slept != 0 {
		t.Errorf("slept %v before first check, want 0", clock.slept)
	}
}

// A permanently visible indicator must never stall the run: total polling
// time stays within one interval of the budget.
func TestWaitBoundedByBudget(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	m := newTestMonitor(clock)

	page := &browsertest.FakePage{
		Selectors: map[string]browser.Element{
			".loading": &browsertest.FakeElement{Visible: true},
		},
	}

	out := m.Wait(page)

	if !out.BudgetExceeded {
		t.Fatalf("outcome = %+v, want budget exceeded", out)
	}
	if clock.slept < m.Budget || clock.slept > m.Budget+m.PollInterval {
		t.Errorf("slept %v, want within one interval of budget %v", clock.slept, m.Budget)
	}
}
