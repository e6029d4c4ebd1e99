package browser

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightDriver implements Driver over a launched Chromium instance.
type PlaywrightDriver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewPlaywrightDriver starts the playwright runtime and launches Chromium.
func NewPlaywrightDriver(headless bool) (*PlaywrightDriver, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launching chromium: %w", err)
	}

	return &PlaywrightDriver{pw: pw, browser: b}, nil
}

func (d *PlaywrightDriver) NewSession(ctx context.Context, opts SessionOptions) (Session, error) {
	ctxOpts := playwright.BrowserNewContextOptions{}
	if opts.RecordVideo {
		ctxOpts.RecordVideo = &playwright.RecordVideo{Dir: opts.VideoDir}
	}

	bctx, err := d.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("creating browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("creating page: %w", err)
	}

	return &playwrightSession{ctx: bctx, page: &playwrightPage{page: page}, recording: opts.RecordVideo}, nil
}

func (d *PlaywrightDriver) Close() error {
	if err := d.browser.Close(); err != nil {
		_ = d.pw.Stop()
		return fmt.Errorf("closing browser: %w", err)
	}
	return d.pw.Stop()
}

type playwrightSession struct {
	ctx       playwright.BrowserContext
	page      *playwrightPage
	recording bool
}

func (s *playwrightSession) Page() Page { return s.page }

func (s *playwrightSession) VideoPath() string {
	if !s.recording {
		return ""
	}
	video := s.page.page.Video()
	if video == nil {
		return ""
	}
	path, err := video.Path()
	if err != nil {
		return ""
	}
	return path
}

func (s *playwrightSession) Close(grace time.Duration) error {
	if grace > 0 {
		time.Sleep(grace)
	}
	return s.ctx.Close()
}

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Navigate(ctx context.Context, url string) error {
	_, err := p.page.Goto(url)
	return err
}

func (p *playwrightPage) WaitForLoad(state LoadState, timeout time.Duration) error {
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   mapLoadState(state),
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (p *playwrightPage) Find(selector string, timeout time.Duration) (Element, error) {
	handle, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		// Timeouts are misses, not driver failures.
		return nil, nil
	}
	if handle == nil {
		return nil, nil
	}
	return &playwrightElement{handle: handle}, nil
}

func (p *playwrightPage) FindAll(selector string) ([]Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	elems := make([]Element, len(handles))
	for i, h := range handles {
		elems[i] = &playwrightElement{handle: h}
	}
	return elems, nil
}

func (p *playwrightPage) Evaluate(script string, args ...any) (any, error) {
	if len(args) > 0 {
		return p.page.Evaluate(script, args[0])
	}
	return p.page.Evaluate(script)
}

func (p *playwrightPage) OnceDialog(accept string, seen func(message string)) {
	p.page.OnDialog(onceDialogHandler(accept, seen))
}

// onceDialogHandler accepts the first dialog with the given value and
// dismisses every later one. OnDialog listeners are persistent, and a
// registered listener disables playwright's auto-dismiss, so later dialogs
// must be dismissed explicitly or the page stalls.
func onceDialogHandler(accept string, seen func(message string)) func(playwright.Dialog) {
	var fired atomic.Bool
	return func(dialog playwright.Dialog) {
		if !fired.CompareAndSwap(false, true) {
			_ = dialog.Dismiss()
			return
		}
		if seen != nil {
			seen(dialog.Message())
		}
		_ = dialog.Accept(accept)
	}
}

func (p *playwrightPage) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

type playwrightElement struct {
	handle playwright.ElementHandle
}

func (e *playwrightElement) Click(force bool) error {
	return e.handle.Click(playwright.ElementHandleClickOptions{Force: playwright.Bool(force)})
}

func (e *playwrightElement) Fill(text string) error {
	return e.handle.Fill(text)
}

func (e *playwrightElement) Type(text string, delay time.Duration) error {
	return e.handle.Type(text, playwright.ElementHandleTypeOptions{
		Delay: playwright.Float(float64(delay.Milliseconds())),
	})
}

func (e *playwrightElement) Focus() error {
	return e.handle.Focus()
}

func (e *playwrightElement) InnerText() (string, error) {
	return e.handle.InnerText()
}

func (e *playwrightElement) IsVisible() bool {
	visible, err := e.handle.IsVisible()
	return err == nil && visible
}

func mapLoadState(state LoadState) *playwright.LoadState {
	switch state {
	case LoadStateDOMContentLoaded:
		return playwright.LoadStateDomcontentloaded
	case LoadStateNetworkIdle:
		return playwright.LoadStateNetworkidle
	default:
		return playwright.LoadStateLoad
	}
}
