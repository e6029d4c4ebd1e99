package notify

import (
	"fmt"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/MrKrishnabhagat/video-convert-analysis/internal/config"
)

// Target is a fully resolved notification ready to send.
type Target struct {
	ServiceName string
	URL         string
	Message     string
	Params      map[string]string
}

// ResolveTargets renders the message and param templates for every notify
// entry against the run's template data.
func ResolveTargets(
	notifyList []config.NotifyTarget,
	services map[string]config.Service,
	data TemplateData,
) ([]Target, error) {
	var targets []Target

	for _, ref := range notifyList {
		svc, ok := services[ref.Service]
		if !ok {
			return nil, fmt.Errorf("unknown service %q", ref.Service)
		}

		tmplStr := DefaultTemplate
		if ref.Template != "" {
			tmplStr = ref.Template
		}

		msg, err := Render(tmplStr, data)
		if err != nil {
			return nil, fmt.Errorf("rendering template for %s: %w", ref.Service, err)
		}

		// Merge params: service base, then per-target override.
		merged := make(map[string]string)
		for k, v := range svc.Params {
			merged[k] = v
		}
		for k, v := range ref.Params {
			merged[k] = v
		}
		for k, v := range merged {
			rendered, err := Render(v, data)
			if err != nil {
				return nil, fmt.Errorf("rendering param %q for %s: %w", k, ref.Service, err)
			}
			merged[k] = rendered
		}

		targets = append(targets, Target{
			ServiceName: ref.Service,
			URL:         svc.URL,
			Message:     msg,
			Params:      merged,
		})
	}

	return targets, nil
}

// Send delivers one notification via Shoutrrr.
func Send(t Target) error {
	sender, err := shoutrrr.CreateSender(t.URL)
	if err != nil {
		return fmt.Errorf("creating sender for %s: %w", t.ServiceName, err)
	}

	params := types.Params(t.Params)
	errs := sender.Send(t.Message, &params)
	for _, e := range errs {
		if e != nil {
			return fmt.Errorf("sending to %s: %w", t.ServiceName, e)
		}
	}

	return nil
}

// Validate checks that every notify entry references a known service whose
// URL Shoutrrr accepts, without sending anything.
func Validate(notifyList []config.NotifyTarget, services map[string]config.Service) error {
	for _, ref := range notifyList {
		svc, ok := services[ref.Service]
		if !ok {
			return fmt.Errorf("unknown service %q", ref.Service)
		}
		if _, err := shoutrrr.CreateSender(svc.URL); err != nil {
			return fmt.Errorf("service %q: %w", ref.Service, err)
		}
	}
	return nil
}
