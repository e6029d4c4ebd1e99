package browser

import (
	"testing"

	"github.com/playwright-community/playwright-go"
)

type fakeDialog struct {
	message   string
	accepted  []string
	dismissed int
}

func (d *fakeDialog) Accept(texts ...string) error {
	d.accepted = append(d.accepted, texts...)
	return nil
}

func (d *fakeDialog) DefaultValue() string  { return "" }
func (d *fakeDialog) Dismiss() error        { d.dismissed++; return nil }
func (d *fakeDialog) Message() string       { return d.message }
func (d *fakeDialog) Page() playwright.Page { return nil }
func (d *fakeDialog) Type() string          { return "prompt" }

func TestOnceDialogHandlerAcceptsFirstOnly(t *testing.T) {
	var seen []string
	handler := onceDialogHandler("https://youtu.be/abc123", func(msg string) {
		seen = append(seen, msg)
	})

	first := &fakeDialog{message: "Enter the video URL"}
	handler(first)
	if len(first.accepted) != 1 || first.accepted[0] != "https://youtu.be/abc123" {
		t.Fatalf("first dialog accepted = %v", first.accepted)
	}
	if first.dismissed != 0 {
		t.Errorf("first dialog dismissed %d times", first.dismissed)
	}
	if len(seen) != 1 || seen[0] != "Enter the video URL" {
		t.Errorf("seen = %v", seen)
	}

	// Later dialogs must not receive the URL again.
	second := &fakeDialog{message: "Enter the video URL"}
	handler(second)
	if len(second.accepted) != 0 {
		t.Errorf("second dialog accepted = %v, want none", second.accepted)
	}
	if second.dismissed != 1 {
		t.Errorf("second dialog dismissed = %d, want 1", second.dismissed)
	}
	if len(seen) != 1 {
		t.Errorf("seen grew on second dialog: %v", seen)
	}
}

func TestOnceDialogHandlerNilSeen(t *testing.T) {
	handler := onceDialogHandler("value", nil)
	d := &fakeDialog{message: "prompt"}
	handler(d)
	if len(d.accepted) != 1 || d.accepted[0] != "value" {
		t.Errorf("accepted = %v", d.accepted)
	}
}
