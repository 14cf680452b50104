package dialog

import "regexp"

// Locator finds candidate elements with a CSS query, optionally narrowed by
// a pattern over the element's trimmed text.
type Locator struct {
	CSS  string
	Text *regexp.Regexp
}

type Category struct {
	Name     string
	Locators []Locator
}

func css(sel string) Locator { return Locator{CSS: sel} }

func text(sel, pattern string) Locator {
	return Locator{CSS: sel, Text: regexp.MustCompile(pattern)}
}

const clickable = "button, [role='button'], a"

// DefaultCatalogue is ordered: consent banners first, since they often sit
// on top of everything else, newsletter popups last.
var DefaultCatalogue = []Category{
	{
		Name: "cookie_consent",
		Locators: []Locator{
			css("#onetrust-accept-btn-handler"),
			css("#CybotCookiebotDialogBodyLevelButtonLevelOptinAllowAll"),
			css("#CybotCookiebotDialogBodyButtonAccept"),
			css("button#accept-cookies"),
			css("[data-testid='cookie-accept']"),
			css("[data-cookiebanner='accept_button']"),
			css(".cc-allow, .cc-accept, .cc-dismiss"),
			text(clickable, `(?i)^(accept( all)?( cookies)?|allow( all)?( cookies)?|i agree|agree( and continue)?|got it|ok(ay)?)$`),
		},
	},
	{
		Name: "permission_prompt",
		Locators: []Locator{
			css("#onesignal-slidedown-cancel-button"),
			css(".push-notification-prompt .dismiss"),
			css("[class*='notification-prompt'] button[class*='close']"),
			css("[class*='location-prompt'] button[class*='close']"),
			text(clickable, `(?i)^(not now|no,? thanks|maybe later|block|don'?t allow|later)$`),
		},
	},
	{
		Name: "modal_close",
		Locators: []Locator{
			css("[role='dialog'] button[aria-label='Close']"),
			css("[role='dialog'] button[aria-label='close']"),
			css("[aria-modal='true'] button[aria-label='Close']"),
			css("[data-dismiss='modal']"),
			css("[data-bs-dismiss='modal']"),
			css(".modal .close"),
			css(".modal-close"),
			css("button.close"),
		},
	},
	{
		Name: "privacy_gdpr",
		Locators: []Locator{
			css("#gdpr-consent-accept"),
			css(".gdpr-banner button.accept"),
			css("[id*='gdpr'] button[class*='accept']"),
			css("[class*='privacy'] button[class*='accept']"),
			css("#didomi-notice-agree-button"),
			css(".qc-cmp2-summary-buttons button[mode='primary']"),
		},
	},
	{
		Name: "age_verification",
		Locators: []Locator{
			css("#age-gate-yes"),
			css("[class*='age-gate'] button[class*='confirm']"),
			css("[class*='age-verification'] button[class*='yes']"),
			text(clickable, `(?i)^(i am (over )?(18|21)|i'?m (over )?(18|21)|yes,? i am|enter( site)?)$`),
		},
	},
	{
		Name: "newsletter_popup",
		Locators: []Locator{
			css(".newsletter-popup .close"),
			css("[class*='newsletter'] [class*='close']"),
			css("[class*='subscribe'] [class*='close']"),
			css("[class*='popup'] [class*='close']"),
			css("[class*='popup'] [aria-label='Close']"),
			text("button, [role='button'], a, span", `^(×|✕|✖|╳|X|x)$`),
		},
	},
}

// containerSelectors match overlays that may still block the page.
var containerSelectors = []string{
	"[role='dialog']",
	"[role='alertdialog']",
	"[aria-modal='true']",
	".modal.show",
	"#onetrust-banner-sdk",
	"#CybotCookiebotDialog",
	"[class*='cookie-banner']",
	"[class*='consent-banner']",
	"[class*='newsletter-popup']",
}

// loadingSelectors match generic spinners and skeleton screens.
var loadingSelectors = []string{
	"[class*='spinner']",
	"[class*='loading']",
	"[class*='loader']",
	"[aria-busy='true']",
	"[class*='skeleton']",
}
