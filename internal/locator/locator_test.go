package locator

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/MrKrishnabhagat/video-convert-analysis/internal/browser"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/browser/browsertest"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFindRespectsPriorityOrder(t *testing.T) {
	// Strategies A, B, C where only B and C match: the result must be B.
	b := &browsertest.FakeElement{Visible: true}
	c := &browsertest.FakeElement{Visible: true}
	page := &browsertest.FakePage{
		Selectors: map[string]browser.Element{
			"#b": b,
			"#c": c,
		},
	}

	q := Query{
		Strategies: []browser.Strategy{
			browser.CSS("#a"),
			browser.CSS("#b"),
			browser.CSS("#c"),
		},
		PerStrategyTimeout: 10 * time.Millisecond,
	}

	match := Find(page, q, discard())
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.Element != b {
		t.Errorf("matched %q, want #b", match.Via)
	}
	if match.Via != "#b" {
		t.Errorf("via = %q", match.Via)
	}
}

func TestFindShortCircuits(t *testing.T) {
	a := &browsertest.FakeElement{Visible: true}
	page := &browsertest.FakePage{
		Selectors: map[string]browser.Element{"#a": a, "#b": a},
	}

	q := Query{Strategies: []browser.Strategy{browser.CSS("#a"), browser.CSS("#b")}}
	Find(page, q, discard())

	if len(page.FindCalls) != 1 {
		t.Errorf("find calls = %v, want short-circuit after first hit", page.FindCalls)
	}
}

func TestFindRoleWithText(t *testing.T) {
	mp4 := &browsertest.FakeElement{Text: "Convert to MP4", Visible: true}
	other := &browsertest.FakeElement{Text: "WebM", Visible: true}
	page := &browsertest.FakePage{
		All: map[string][]browser.Element{
			"button": {other, mp4},
		},
	}

	q := Query{Strategies: []browser.Strategy{browser.RoleWithText("button", "mp4")}}
	match := Find(page, q, discard())
	if match == nil || match.Element != mp4 {
		t.Fatal("case-insensitive role text scan failed")
	}
}

func TestFindFallbackKeywords(t *testing.T) {
	hidden := &browsertest.FakeElement{Text: "URL input", Visible: false}
	link := &browsertest.FakeElement{Text: "Paste URL here", Visible: true}
	page := &browsertest.FakePage{
		All: map[string][]browser.Element{
			"a, button, div.clickable": {hidden, link},
		},
	}

	q := Query{
		Strategies:       []browser.Strategy{browser.CSS("#missing")},
		FallbackKeywords: []string{"url"},
	}
	match := Find(page, q, discard())
	if match == nil {
		t.Fatal("expected fallback match")
	}
	if match.Element != link {
		t.Error("fallback returned an invisible element")
	}
}

func TestFindMissReturnsNil(t *testing.T) {
	page := &browsertest.FakePage{}
	q := Query{
		Strategies:       []browser.Strategy{browser.CSS("#a"), browser.TextContains("url")},
		FallbackKeywords: []string{"url"},
	}
	if match := Find(page, q, discard()); match != nil {
		t.Fatalf("match = %+v, want nil on exhaustion", match)
	}
}
