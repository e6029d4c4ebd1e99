// Package browsertest provides in-memory fakes of the browser capability
// surface for tests.
package browsertest

import (
	"context"
	"os"
	"time"

	"github.com/MrKrishnabhagat/video-convert-analysis/internal/browser"
)

// FakeElement is a scriptable browser.Element.
type FakeElement struct {
	Text     string
	Visible  bool
	ClickErr error
	FillErr  error

	Clicks      int
	ForceClicks int
	Filled      []string
	Typed       []string
	Focused     int
}

func (e *FakeElement) Click(force bool) error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	if force {
		e.ForceClicks++
	}
	return nil
}

func (e *FakeElement) Fill(text string) error {
	if e.FillErr != nil {
		return e.FillErr
	}
	e.Filled = append(e.Filled, text)
	return nil
}

func (e *FakeElement) Type(text string, _ time.Duration) error {
	e.Typed = append(e.Typed, text)
	return nil
}

func (e *FakeElement) Focus() error {
	e.Focused++
	return nil
}

func (e *FakeElement) InnerText() (string, error) { return e.Text, nil }

func (e *FakeElement) IsVisible() bool { return e.Visible }

// FakePage is a scriptable browser.Page. Selectors drives Find; All drives
// FindAll, keyed by the exact selector string.
type FakePage struct {
	Selectors map[string]browser.Element
	All       map[string][]browser.Element

	NavigateErr   error
	ScreenshotErr error
	EvaluateFunc  func(script string, args ...any) (any, error)

	NavigatedTo   []string
	LoadWaits     []browser.LoadState
	FindCalls     []string
	Screenshots   []string
	DialogAccept  string
	dialogHandler func(message string)
	dialogSeen    func(message string)
}

func (p *FakePage) Navigate(_ context.Context, url string) error {
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	p.NavigatedTo = append(p.NavigatedTo, url)
	return nil
}

func (p *FakePage) WaitForLoad(state browser.LoadState, _ time.Duration) error {
	p.LoadWaits = append(p.LoadWaits, state)
	return nil
}

func (p *FakePage) Find(selector string, _ time.Duration) (browser.Element, error) {
	p.FindCalls = append(p.FindCalls, selector)
	el, ok := p.Selectors[selector]
	if !ok {
		return nil, nil
	}
	return el, nil
}

func (p *FakePage) FindAll(selector string) ([]browser.Element, error) {
	return p.All[selector], nil
}

func (p *FakePage) Evaluate(script string, args ...any) (any, error) {
	if p.EvaluateFunc != nil {
		return p.EvaluateFunc(script, args...)
	}
	return false, nil
}

func (p *FakePage) OnceDialog(accept string, seen func(message string)) {
	p.DialogAccept = accept
	p.dialogSeen = seen
}

// TriggerDialog simulates the site opening a prompt dialog.
func (p *FakePage) TriggerDialog(message string) {
	if p.dialogSeen != nil {
		p.dialogSeen(message)
	}
}

// Screenshot records the capture and writes a placeholder file so artifact
// existence checks behave as they would with a real driver.
func (p *FakePage) Screenshot(path string) error {
	if p.ScreenshotErr != nil {
		return p.ScreenshotErr
	}
	if err := os.WriteFile(path, []byte("fake-png"), 0o644); err != nil {
		return err
	}
	p.Screenshots = append(p.Screenshots, path)
	return nil
}

// FakeSession wraps a FakePage with session lifecycle bookkeeping.
type FakeSession struct {
	FakePage *FakePage
	Video    string

	Closed     bool
	CloseGrace time.Duration
}

func (s *FakeSession) Page() browser.Page { return s.FakePage }

func (s *FakeSession) VideoPath() string { return s.Video }

func (s *FakeSession) Close(grace time.Duration) error {
	s.Closed = true
	s.CloseGrace = grace
	return nil
}

// FakeDriver hands out a single prepared session.
type FakeDriver struct {
	Session    *FakeSession
	SessionErr error
	LastOpts   browser.SessionOptions
}

func (d *FakeDriver) NewSession(_ context.Context, opts browser.SessionOptions) (browser.Session, error) {
	if d.SessionErr != nil {
		return nil, d.SessionErr
	}
	d.LastOpts = opts
	return d.Session, nil
}

func (d *FakeDriver) Close() error { return nil }
