package browser

import (
	"context"
	"time"
)

// LoadState mirrors the page lifecycle conditions the driver can wait on.
type LoadState string

const (
	LoadStateLoad             LoadState = "load"
	LoadStateDOMContentLoaded LoadState = "domcontentloaded"
	LoadStateNetworkIdle      LoadState = "networkidle"
)

// StrategyKind tags the variants of a selector strategy.
type StrategyKind int

const (
	// KindCSS matches a CSS selector via the driver's selector engine.
	KindCSS StrategyKind = iota
	// KindTextContains scans clickable-tagged elements for visible text
	// containing the target (case-insensitive).
	KindTextContains
	// KindRoleWithText scans elements of a given tag for visible text
	// containing the target (case-insensitive).
	KindRoleWithText
)

// Strategy describes one way to find an element. Within a list, earlier
// entries are site-specific and precise; later ones generic and brittle.
type Strategy struct {
	Kind     StrategyKind
	Selector string // KindCSS
	Role     string // KindRoleWithText: element tag, e.g. "button"
	Text     string // KindTextContains, KindRoleWithText
}

func CSS(selector string) Strategy {
	return Strategy{Kind: KindCSS, Selector: selector}
}

func TextContains(text string) Strategy {
	return Strategy{Kind: KindTextContains, Text: text}
}

func RoleWithText(role, text string) Strategy {
	return Strategy{Kind: KindRoleWithText, Role: role, Text: text}
}

// String renders a strategy for log lines.
func (s Strategy) String() string {
	switch s.Kind {
	case KindTextContains:
		return "text~" + s.Text
	case KindRoleWithText:
		return s.Role + ":has-text(" + s.Text + ")"
	default:
		return s.Selector
	}
}

// Element is a live handle to a DOM element.
type Element interface {
	Click(force bool) error
	Fill(text string) error
	Type(text string, delay time.Duration) error
	Focus() error
	InnerText() (string, error)
	IsVisible() bool
}

// Page is the single-page capability surface the test core consumes.
// Find returns (nil, nil) when nothing matched within the timeout; an error
// means the driver itself failed.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitForLoad(state LoadState, timeout time.Duration) error
	Find(selector string, timeout time.Duration) (Element, error)
	FindAll(selector string) ([]Element, error)
	Evaluate(script string, args ...any) (any, error)
	// OnceDialog registers a one-shot handler that accepts the next dialog
	// with the given value. seen, if non-nil, receives the dialog message.
	OnceDialog(accept string, seen func(message string))
	Screenshot(path string) error
}

// Session is a scoped browser context plus page, acquired at run start and
// closed on all exit paths.
type Session interface {
	Page() Page
	// VideoPath returns the recording path, empty when recording is off.
	VideoPath() string
	// Close tears the session down after a grace delay that lets in-flight
	// recording flush to disk.
	Close(grace time.Duration) error
}

// SessionOptions configure one session.
type SessionOptions struct {
	RecordVideo bool
	VideoDir    string
}

// Driver creates sessions against an automation backend.
type Driver interface {
	NewSession(ctx context.Context, opts SessionOptions) (Session, error)
	Close() error
}
