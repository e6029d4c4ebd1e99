package locator

import (
	"log/slog"
	"strings"
	"time"

	"github.com/MrKrishnabhagat/video-convert-analysis/internal/browser"
)

// clickableSelector covers the tags scanned by the text-content fallback.
const clickableSelector = "a, button, div.clickable"

// Query describes one element lookup: an ordered priority list of strategies
// and an optional keyword fallback over clickable elements.
type Query struct {
	Strategies []browser.Strategy
	// FallbackKeywords, when non-empty, trigger a scan of clickable-tagged
	// elements after all strategies miss; the first element whose visible
	// text contains any keyword (case-insensitive) wins.
	FallbackKeywords []string
	// PerStrategyTimeout bounds each CSS strategy attempt.
	PerStrategyTimeout time.Duration
}

// Match is a successful lookup: the element and the strategy that found it.
type Match struct {
	Element browser.Element
	Via     string
}

// Find attempts each strategy in order and short-circuits on the first hit.
// A miss returns nil — never an error; the caller decides whether a miss is
// fatal. Failed strategies are not retried.
func Find(page browser.Page, q Query, logger *slog.Logger) *Match {
	timeout := q.PerStrategyTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	for _, strat := range q.Strategies {
		var el browser.Element
		switch strat.Kind {
		case browser.KindCSS:
			found, err := page.Find(strat.Selector, timeout)
			if err != nil {
				logger.Warn("selector query failed", "strategy", strat.String(), "error", err)
				continue
			}
			el = found
		case browser.KindTextContains:
			el = scanByText(page, clickableSelector, strat.Text)
		case browser.KindRoleWithText:
			el = scanByText(page, strat.Role, strat.Text)
		}
		if el != nil {
			logger.Info("element found", "strategy", strat.String())
			return &Match{Element: el, Via: strat.String()}
		}
	}

	if len(q.FallbackKeywords) > 0 {
		logger.Info("strategies exhausted, scanning clickable elements", "keywords", strings.Join(q.FallbackKeywords, ","))
		if el, kw := scanByKeywords(page, clickableSelector, q.FallbackKeywords); el != nil {
			logger.Info("element found by text content", "keyword", kw)
			return &Match{Element: el, Via: "text-scan:" + kw}
		}
	}

	return nil
}

func scanByText(page browser.Page, selector, text string) browser.Element {
	el, _ := scanByKeywords(page, selector, []string{text})
	return el
}

func scanByKeywords(page browser.Page, selector string, keywords []string) (browser.Element, string) {
	elements, err := page.FindAll(selector)
	if err != nil {
		return nil, ""
	}
	for _, el := range elements {
		text, err := el.InnerText()
		if err != nil {
			continue
		}
		lower := strings.ToLower(text)
		for _, kw := range keywords {
			if strings.Contains(lower, strings.ToLower(kw)) && el.IsVisible() {
				return el, kw
			}
		}
	}
	return nil, ""
}
