package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/MrKrishnabhagat/video-convert-analysis/internal/browser"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/config"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/locator"
	"github.com/MrKrishnabhagat/video-convert-analysis/internal/result"
)

// visibleInputProbe reports whether a visible URL/text input exists, which
// distinguishes inline prompts from native dialogs.
const visibleInputProbe = `() => {
	const inputs = document.querySelectorAll('input[type="url"], input[type="text"], textarea');
	const visibleInputs = Array.from(inputs).filter(input => {
		const style = window.getComputedStyle(input);
		return style.display !== 'none' && style.visibility !== 'hidden';
	});
	return visibleInputs.length > 0;
}`

// conversionTrigger is the last-resort script when no convert button is
// locatable: known conversion entry points first, then any button whose text
// suggests conversion.
const conversionTrigger = `() => {
	if (typeof startConversion !== 'undefined') {
		startConversion();
		return true;
	}
	if (typeof convertVideo !== 'undefined') {
		convertVideo();
		return true;
	}
	const buttons = document.querySelectorAll('button');
	for (const button of buttons) {
		if (button.innerText.toLowerCase().includes('convert') ||
			button.innerText.toLowerCase().includes('download') ||
			button.innerText.toLowerCase().includes('start')) {
			button.click();
			return true;
		}
	}
	return false;
}`

func (s *run) selectorTimeout() time.Duration {
	return config.Duration(s.r.cfg.Timeouts.Selector, 2*time.Second)
}

func (s *run) loadTimeout() time.Duration {
	return config.Duration(s.r.cfg.Timeouts.LoadState, 10*time.Second)
}

// navigateToSite opens the target site and gates on the first OCR verdict.
func (s *run) navigateToSite(ctx context.Context) Outcome {
	s.logger.Info("navigating to site", "url", s.r.cfg.TargetURL)

	if err := s.page.Navigate(ctx, s.r.cfg.TargetURL); err != nil {
		s.logger.Error("failed to navigate to site", "error", err)
		s.res.AddStep(result.TestStep{
			Name:         "navigate_to_site",
			Status:       result.StepError,
			ErrorMessage: err.Error(),
		})
		return hard(err.Error())
	}
	if err := s.page.WaitForLoad(browser.LoadStateNetworkIdle, config.Duration(s.r.cfg.Timeouts.Navigation, 30*time.Second)); err != nil {
		s.logger.Warn("page did not reach network idle", "error", err)
	}

	shot := s.screenshot("site_navigation")
	ocrText := s.extractOCR(ctx, shot)
	s.logger.Info("OCR text from navigation screenshot", "text", ocrText)
	s.stageOCR["initial"] = ocrText
	metadata := map[string]string{result.MetaOCRText: ocrText}

	verdict := s.r.classifier.CheckScreenshot(ctx, ocrText, "site navigation")
	if verdict.Error {
		msg := verdict.Message
		if msg == "" {
			msg = "Unknown error detected in OCR text"
		}
		s.logger.Error("error detected in navigation", "error", msg)
		s.res.AddStep(result.TestStep{
			Name:           "navigate_to_site",
			Status:         result.StepError,
			ErrorMessage:   msg,
			ScreenshotPath: shot,
			Metadata:       metadata,
		})
		return hard(fmt.Sprintf("Navigation error: %s", msg))
	}

	s.res.AddStep(result.TestStep{
		Name:           "navigate_to_site",
		Status:         result.StepSuccess,
		ScreenshotPath: shot,
		Metadata:       metadata,
	})
	s.logger.Info("successfully navigated to the site")
	return success()
}

// clickURLLink finds the URL entry affordance, arms the dialog handler with
// the YouTube URL, and clicks.
func (s *run) clickURLLink(ctx context.Context) Outcome {
	s.logger.Info("clicking on URL link to open prompt")

	if err := s.page.WaitForLoad(browser.LoadStateDOMContentLoaded, s.loadTimeout()); err != nil {
		s.logger.Warn("dom content load wait failed", "error", err)
	}
	s.r.clock.Sleep(2 * time.Second)

	match := locator.Find(s.page, locator.Query{
		Strategies: []browser.Strategy{
			browser.CSS("a#open_link"),
			browser.CSS("a.item_url"),
			browser.RoleWithText("a", "URL"),
			browser.CSS(".item.url"),
			browser.RoleWithText("button", "URL"),
			browser.CSS("div.url-button"),
			browser.CSS("[data-testid='url-input']"),
			browser.CSS(".url-section button"),
			browser.CSS(".url-tab"),
		},
		FallbackKeywords:   []string{"url"},
		PerStrategyTimeout: s.selectorTimeout(),
	}, s.logger)
	if match == nil {
		msg := "Could not find URL link element"
		s.logger.Error("failed to click URL link", "error", msg)
		s.res.AddStep(result.TestStep{
			Name:           "click_url_link",
			Status:         result.StepError,
			ErrorMessage:   msg,
			ScreenshotPath: s.screenshot("url_link_error"),
		})
		return hard(msg)
	}

	// The site may open a native prompt; answer it with the YouTube URL.
	s.page.OnceDialog(s.youtubeURL, func(message string) {
		s.logger.Info("dialog detected", "message", message)
	})

	s.logger.Info("clicking URL link element", "via", match.Via)
	if err := match.Element.Click(false); err != nil {
		s.logger.Warn("direct click failed, dispatching click event", "error", err)
		if _, evalErr := s.page.Evaluate(urlLinkClickFallback); evalErr != nil {
			s.logger.Warn("alternative click method also failed", "error", evalErr)
		}
	}

	s.res.AddStep(result.TestStep{
		Name:           "click_url_link",
		Status:         result.StepSuccess,
		ScreenshotPath: s.screenshot("click_url_link"),
	})
	s.logger.Info("URL link clicked")
	return success()
}

// urlLinkClickFallback dispatches a synthetic click on the first known URL
// affordance when the element handle refuses a direct click.
const urlLinkClickFallback = `() => {
	const elem = document.querySelector('a#open_link, a.item_url, .item.url, div.url-button');
	if (!elem) return false;
	const event = new MouseEvent('click', { bubbles: true, cancelable: true, view: window });
	elem.dispatchEvent(event);
	return true;
}`

// inputYoutubeURL fills an inline URL input when one is visible. When the
// prompt was a native dialog the armed handler has already supplied the URL.
func (s *run) inputYoutubeURL(ctx context.Context) Outcome {
	s.logger.Info("inputting YouTube URL in prompt", "url", s.youtubeURL)

	visible, err := s.page.Evaluate(visibleInputProbe)
	if err != nil {
		s.logger.Error("failed to probe for input fields", "error", err)
		s.res.AddStep(result.TestStep{
			Name:           "input_youtube_url",
			Status:         result.StepError,
			ErrorMessage:   err.Error(),
			ScreenshotPath: s.screenshot("input_url_error"),
		})
		return hard(err.Error())
	}

	needsInput, _ := visible.(bool)
	s.logger.Info("input field needed", "needed", needsInput)

	if needsInput {
		match := locator.Find(s.page, locator.Query{
			Strategies: []browser.Strategy{
				browser.CSS("input[type='url']"),
				browser.CSS("input[placeholder*='URL']"),
				browser.CSS("textarea[placeholder*='URL']"),
				browser.CSS(".prompt input"),
				browser.CSS("dialog input"),
				browser.CSS("input.url-input"),
				browser.CSS("[data-testid='url-input']"),
				browser.CSS("form input"),
				browser.CSS(".url-form input"),
				browser.CSS(".modal input"),
				browser.CSS(".popup input"),
				browser.CSS("input[type='text']"),
			},
			PerStrategyTimeout: s.selectorTimeout(),
		}, s.logger)
		if match != nil {
			if err := s.fillURLInput(match.Element); err != nil {
				s.logger.Error("failed to input YouTube URL", "error", err)
				s.res.AddStep(result.TestStep{
					Name:           "input_youtube_url",
					Status:         result.StepError,
					ErrorMessage:   err.Error(),
					ScreenshotPath: s.screenshot("input_url_error"),
				})
				return hard(err.Error())
			}
		} else {
			s.logger.Warn("visible input probe hit but no input field matched")
		}
	}

	s.res.AddStep(result.TestStep{
		Name:           "input_youtube_url",
		Status:         result.StepSuccess,
		ScreenshotPath: s.screenshot("input_youtube_url"),
	})
	s.logger.Info("YouTube URL input step completed")
	return success()
}

func (s *run) fillURLInput(el browser.Element) error {
	if err := el.Focus(); err != nil {
		return fmt.Errorf("focusing input: %w", err)
	}
	if err := el.Fill(""); err != nil {
		return fmt.Errorf("clearing input: %w", err)
	}
	s.r.clock.Sleep(500 * time.Millisecond)
	// Typed with a small delay so flaky widgets register every keystroke.
	if err := el.Type(s.youtubeURL, 50*time.Millisecond); err != nil {
		return fmt.Errorf("typing URL: %w", err)
	}
	s.r.clock.Sleep(time.Second)
	return nil
}

// selectMP4Format is the one soft checkpoint: the site may default to MP4,
// so a miss degrades to a warning and the run continues.
func (s *run) selectMP4Format(ctx context.Context) Outcome {
	s.logger.Info("setting MP4 as output format")

	s.r.clock.Sleep(3 * time.Second)
	if err := s.page.WaitForLoad(browser.LoadStateNetworkIdle, s.loadTimeout()); err != nil {
		s.logger.Warn("network idle wait failed", "error", err)
	}

	match := locator.Find(s.page, locator.Query{
		Strategies: []browser.Strategy{
			browser.CSS("select"),
			browser.CSS(".format-selection"),
			browser.RoleWithText("button", "MP4"),
			browser.CSS("[data-format='mp4']"),
			browser.CSS(".mp4-option"),
		},
		PerStrategyTimeout: s.selectorTimeout(),
	}, s.logger)

	if match == nil {
		msg := "Could not explicitly select MP4 format, may be using default"
		s.logger.Info(msg)
		s.res.AddStep(result.TestStep{
			Name:           "select_mp4_format",
			Status:         result.StepWarning,
			ErrorMessage:   msg,
			ScreenshotPath: s.screenshot("select_format_warning"),
		})
		return soft(msg)
	}

	if err := match.Element.Click(false); err != nil {
		msg := "Could not explicitly select MP4 format, may be using default"
		s.logger.Info(msg, "error", err)
		s.res.AddStep(result.TestStep{
			Name:           "select_mp4_format",
			Status:         result.StepWarning,
			ErrorMessage:   msg,
			ScreenshotPath: s.screenshot("select_format_warning"),
		})
		return soft(msg)
	}
	s.r.clock.Sleep(time.Second)

	if opt := locator.Find(s.page, locator.Query{
		Strategies: []browser.Strategy{
			browser.RoleWithText("option", "MP4"),
			browser.RoleWithText("li", "MP4"),
			browser.CSS("[value='mp4']"),
		},
		PerStrategyTimeout: time.Second,
	}, s.logger); opt != nil {
		if err := opt.Element.Click(false); err != nil {
			s.logger.Warn("mp4 option click failed", "error", err)
		} else {
			s.logger.Info("selected MP4 format")
		}
	}

	s.res.AddStep(result.TestStep{
		Name:           "select_mp4_format",
		Status:         result.StepSuccess,
		ScreenshotPath: s.screenshot("select_format"),
	})
	s.logger.Info("selected MP4 format (if available)")
	return success()
}

// clickConvertButton gates on a pre-conversion OCR verdict, then finds and
// clicks the convert button, falling back to a scripted trigger.
func (s *run) clickConvertButton(ctx context.Context) Outcome {
	s.logger.Info("preparing to click convert button")
	s.r.clock.Sleep(2 * time.Second)

	shot := s.screenshot("before_convert_click")
	ocrText := s.extractOCR(ctx, shot)
	s.logger.Info("OCR text before clicking convert", "text", ocrText)
	s.stageOCR["before_conversion"] = ocrText
	metadata := map[string]string{result.MetaOCRText: ocrText}

	verdict := s.r.classifier.CheckScreenshot(ctx, ocrText, "before conversion")
	if verdict.Error {
		msg := verdict.Message
		if msg == "" {
			msg = "Unknown error detected in OCR text"
		}
		s.logger.Error("error detected before convert click", "error", msg)
		s.res.AddStep(result.TestStep{
			Name:           "before_convert_button",
			Status:         result.StepError,
			ErrorMessage:   msg,
			ScreenshotPath: shot,
			Metadata:       metadata,
		})
		return hard(fmt.Sprintf("Pre-conversion error: %s", msg))
	}

	s.logger.Info("clicking convert button")
	match := locator.Find(s.page, locator.Query{
		Strategies: []browser.Strategy{
			browser.CSS(".button_1_smaller"),
		},
		FallbackKeywords:   []string{"convert", "download", "start"},
		PerStrategyTimeout: s.selectorTimeout(),
	}, s.logger)

	if match != nil {
		if err := match.Element.Click(true); err != nil {
			s.logger.Error("failed to click convert button", "error", err)
			s.res.AddStep(result.TestStep{
				Name:           "click_convert_button",
				Status:         result.StepError,
				ErrorMessage:   err.Error(),
				ScreenshotPath: s.screenshot("convert_button_error"),
			})
			return hard(err.Error())
		}
		s.r.clock.Sleep(2 * time.Second)
		s.res.AddStep(result.TestStep{
			Name:           "click_convert_button",
			Status:         result.StepSuccess,
			ScreenshotPath: s.screenshot("click_convert"),
			Metadata:       metadata,
		})
		s.logger.Info("successfully clicked convert button")
		return success()
	}

	s.logger.Info("no convert button found, trying script trigger")
	triggered, err := s.page.Evaluate(conversionTrigger)
	if err == nil {
		if ok, _ := triggered.(bool); ok {
			s.logger.Info("successfully triggered conversion via script")
			s.res.AddStep(result.TestStep{
				Name:           "click_convert_button",
				Status:         result.StepSuccess,
				ScreenshotPath: s.screenshot("js_convert"),
				Metadata:       metadata,
			})
			return success()
		}
	} else {
		s.logger.Warn("script trigger failed", "error", err)
	}

	msg := "Could not find convert button"
	s.logger.Error("failed to click convert button", "error", msg)
	s.res.AddStep(result.TestStep{
		Name:           "click_convert_button",
		Status:         result.StepError,
		ErrorMessage:   msg,
		ScreenshotPath: s.screenshot("convert_button_not_found"),
	})
	return hard(msg)
}

// waitForConversion hands the progress phase to the monitor. Inconclusive
// monitoring never fails the run; the final checkpoint judges the outcome.
func (s *run) waitForConversion(ctx context.Context) Outcome {
	s.logger.Info("waiting for conversion process")

	if err := s.page.WaitForLoad(browser.LoadStateNetworkIdle, s.loadTimeout()); err != nil {
		s.logger.Warn("network idle wait failed", "error", err)
	}

	out := s.r.monitor.Wait(s.page)
	if out.IndicatorFound {
		s.res.AddStep(result.TestStep{
			Name:           "conversion_in_progress",
			Status:         result.StepSuccess,
			ScreenshotPath: s.screenshot("conversion_progress"),
		})
	}

	s.res.AddStep(result.TestStep{
		Name:           "wait_for_conversion",
		Status:         result.StepSuccess,
		ScreenshotPath: s.screenshot("conversion_complete"),
	})
	s.logger.Info("conversion process wait completed")
	return success()
}

// checkDownloadAvailability captures the final state, gates on the final
// classifier verdict, falls back to DOM heuristics, and requests the summary.
func (s *run) checkDownloadAvailability(ctx context.Context) Outcome {
	s.logger.Info("checking for download availability")

	if err := s.page.WaitForLoad(browser.LoadStateNetworkIdle, s.loadTimeout()); err != nil {
		s.logger.Warn("network idle wait failed", "error", err)
	}
	s.r.clock.Sleep(3 * time.Second)

	shot := s.screenshot("final_state")
	ocrText := s.extractOCR(ctx, shot)
	s.logger.Info("OCR text from final state screenshot", "text", ocrText)
	s.stageOCR["final"] = ocrText
	metadata := map[string]string{result.MetaOCRText: ocrText}

	final := s.r.classifier.CheckFinalState(ctx, ocrText)
	if final.Error {
		msg := final.Message
		if msg == "" {
			msg = "Unknown error detected in OCR text"
		}
		s.logger.Error("error detected in final state", "error", msg)
		s.res.AddStep(result.TestStep{
			Name:           "check_download_availability",
			Status:         result.StepFailure,
			ErrorMessage:   msg,
			ScreenshotPath: shot,
			Metadata:       metadata,
		})
		return hard(fmt.Sprintf("Conversion failed: %s", msg))
	}

	downloadAvailable := final.DownloadAvailable
	if !downloadAvailable {
		downloadAvailable = s.probeDownloadAffordance()
	}
	if !downloadAvailable {
		if errText, found := s.probeErrorMessage(); found {
			s.logger.Error("conversion error found", "error", errText)
			s.res.AddStep(result.TestStep{
				Name:           "check_download_availability",
				Status:         result.StepFailure,
				ErrorMessage:   errText,
				ScreenshotPath: shot,
				Metadata:       metadata,
			})
			return hard(fmt.Sprintf("Conversion failed: %s", errText))
		}
	}

	if downloadAvailable {
		s.res.AddStep(result.TestStep{
			Name:           "check_download_availability",
			Status:         result.StepSuccess,
			ScreenshotPath: shot,
			Metadata:       metadata,
		})
		s.logger.Info("download is available, test successful")
	} else {
		msg := "No clear download button or success message found"
		s.logger.Warn(msg)
		s.res.AddStep(result.TestStep{
			Name:           "check_download_availability",
			Status:         result.StepWarning,
			ErrorMessage:   msg,
			ScreenshotPath: shot,
			Metadata:       metadata,
		})
	}

	summary := s.r.classifier.Summarize(ctx, s.stageOCR)
	s.res.Analysis = summary.Analysis
	s.res.Troubleshooting = summary.Troubleshooting

	return success()
}

// probeDownloadAffordance checks for a visible download button or a success
// message when the classifier did not confirm availability.
func (s *run) probeDownloadAffordance() bool {
	if m := locator.Find(s.page, locator.Query{
		Strategies: []browser.Strategy{
			browser.RoleWithText("a", "Download"),
			browser.RoleWithText("button", "Download"),
			browser.CSS(".download-button"),
			browser.CSS("#download-button"),
			browser.CSS("[data-action='download']"),
			browser.CSS(".result-actions a"),
			browser.CSS(".download-link"),
		},
		PerStrategyTimeout: time.Second,
	}, s.logger); m != nil && m.Element.IsVisible() {
		s.logger.Info("download button found", "via", m.Via)
		return true
	}

	if m := locator.Find(s.page, locator.Query{
		Strategies: []browser.Strategy{
			browser.RoleWithText("div", "Success"),
			browser.RoleWithText("div", "Complete"),
			browser.RoleWithText("div", "Ready"),
			browser.CSS(".success-message"),
			browser.CSS(".complete-message"),
			browser.CSS(".conversion-complete"),
			browser.CSS(".result-ready"),
		},
		PerStrategyTimeout: time.Second,
	}, s.logger); m != nil && m.Element.IsVisible() {
		s.logger.Info("success message found", "via", m.Via)
		return true
	}

	return false
}

// probeErrorMessage looks for a visible error element and extracts its text.
func (s *run) probeErrorMessage() (string, bool) {
	m := locator.Find(s.page, locator.Query{
		Strategies: []browser.Strategy{
			browser.RoleWithText("div", "Error"),
			browser.RoleWithText("div", "Failed"),
			browser.CSS(".error-message"),
			browser.CSS(".conversion-error"),
			browser.CSS(".alert-danger"),
		},
		PerStrategyTimeout: time.Second,
	}, s.logger)
	if m == nil || !m.Element.IsVisible() {
		return "", false
	}
	text, err := m.Element.InnerText()
	if err != nil || text == "" {
		return "Conversion failed with unspecified error", true
	}
	return text, true
}
