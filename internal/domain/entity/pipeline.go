package entity

// Payloads carried forward between pipeline stages and the data each stage returns.

type DiscoveryPayload struct {
	JobTitle string `json:"jobTitle,omitempty"`
}

type NavigationMethod string

const (
	NavigationNone      NavigationMethod = "none"
	NavigationAI        NavigationMethod = "ai"
	NavigationCatalogue NavigationMethod = "catalogue"
	NavigationTextScan  NavigationMethod = "text_scan"
)

type DiscoveryResult struct {
	Accessible         bool              `json:"accessible"`
	HasApplicationForm bool              `json:"hasApplicationForm"`
	ApplicationFormURL string            `json:"applicationFormUrl"`
	Fields             []FieldDescriptor `json:"fields,omitempty"`
	NavigationMethod   NavigationMethod  `json:"navigationMethod"`
	DialogsDismissed   int               `json:"dialogsDismissed"`
	Screenshots        []string          `json:"screenshots,omitempty"`
}

type ScoringPayload struct {
	FormURL string            `json:"formUrl"`
	Fields  []FieldDescriptor `json:"fields"`
}

type ScoringResult struct {
	CanAutoFill       bool           `json:"canAutoFill"`
	Confidence        float64        `json:"confidence"`
	SupportedFields   []FieldMapping `json:"supportedFields"`
	UnsupportedFields []FieldMapping `json:"unsupportedFields"`
	RequiredFields    []FieldMapping `json:"requiredFields"`
	Strategy          *FillStrategy  `json:"strategy,omitempty"`
	Reason            string         `json:"reason,omitempty"`
}

type FillPayload struct {
	FormURL  string        `json:"formUrl"`
	Strategy *FillStrategy `json:"strategy"`
}

type StepOutcome struct {
	Selector string `json:"selector"`
	Label    string `json:"label,omitempty"`
	Filled   bool   `json:"filled"`
	Required bool   `json:"required"`
	Error    string `json:"error,omitempty"`
}

// Confirmation is a best guess, never proof, that a submission went through.
type Confirmation struct {
	Likely bool   `json:"likely"`
	Reason string `json:"reason"`
}

type FillResult struct {
	Submitted    bool          `json:"submitted"`
	Confirmation Confirmation  `json:"confirmation"`
	Steps        []StepOutcome `json:"steps"`
	Screenshots  []string      `json:"screenshots,omitempty"`
	FinalURL     string        `json:"finalUrl"`
}
