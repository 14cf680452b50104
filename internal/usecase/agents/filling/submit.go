package filling

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
	"apply-agent/internal/usecase/agents"
)

var submitCatalogue = []string{
	"button[type='submit']",
	"input[type='submit']",
	"button[data-testid*='submit']",
	"[data-qa*='submit']",
	"[data-automation-id*='submit']",
	"button[id*='submit']",
	"button[class*='submit']",
	"button[aria-label*='Submit']",
}

const submitTextSelector = "button, [role='button'], a"

var submitText = regexp.MustCompile(`(?i)^\s*(submit|send|apply)( (my |your )?application| now)?\s*$`)

var confirmationPhrases = []string{
	"thank you for applying",
	"thanks for applying",
	"thank you for your application",
	"thanks for your application",
	"application received",
	"application has been received",
	"application has been submitted",
	"application was submitted",
	"application submitted",
	"we have received your application",
	"we've received your application",
	"successfully applied",
	"successfully submitted",
}

var successURL = regexp.MustCompile(`(?i)(thank|success|confirm|submitted|complete|done)`)

// clickSubmit clicks the scoring hint if usable, then the catalogue, then
// any button whose text reads like a submit.
func clickSubmit(ctx context.Context, page output.PagePort, hint string) (string, bool) {
	var selectors []string
	if hint != "" {
		selectors = append(selectors, hint)
	}
	selectors = append(selectors, submitCatalogue...)
	if sel, ok := agents.FirstActionable(ctx, page, selectors, nil); ok {
		return sel, true
	}
	return agents.FirstActionable(ctx, page, []string{submitTextSelector}, func(el entity.ElementInfo) bool {
		return submitText.MatchString(el.Text)
	})
}

// ConfirmSubmission guesses whether a submission went through, from
// confirmation phrases in the page text or a success-shaped URL. The URL
// only counts when it moved away from before, the page URL at submit time,
// and only its path and query are matched.
func ConfirmSubmission(ctx context.Context, page output.PagePort, before string) entity.Confirmation {
	if text, err := page.Text(ctx); err == nil {
		lower := strings.ToLower(text)
		for _, phrase := range confirmationPhrases {
			if strings.Contains(lower, phrase) {
				return entity.Confirmation{Likely: true, Reason: "page says " + `"` + phrase + `"`}
			}
		}
	}
	if after := page.URL(); after != before && successShaped(after) {
		return entity.Confirmation{Likely: true, Reason: "success url " + after}
	}
	return entity.Confirmation{Reason: "no confirmation signal"}
}

func successShaped(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return successURL.MatchString(u.EscapedPath()) || successURL.MatchString(u.RawQuery)
}
