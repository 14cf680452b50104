package entity

// ConfidenceThreshold gates every automatic decision: selectors, field mappings, fill go-ahead.
const ConfidenceThreshold = 70

// DecisionRequest is what the decision service sees about the current page.
type DecisionRequest struct {
	Screenshot *Screenshot
	Markup     string
	URL        string
	Profile    *Profile
	Context    string
}

type DialogAction struct {
	ShouldClick bool   `json:"shouldClick"`
	Selector    string `json:"selector"`
	Reason      string `json:"reason"`
}

type ApplyAction struct {
	ShouldClick          bool     `json:"shouldClick"`
	Selector             string   `json:"selector"`
	AlternativeSelectors []string `json:"alternativeSelectors"`
	Confidence           float64  `json:"confidence"`
	Reason               string   `json:"reason"`
}

// Trusted reports whether the suggested control is confident enough to click.
func (a ApplyAction) Trusted() bool {
	return a.ShouldClick && a.Selector != "" && a.Confidence >= ConfidenceThreshold
}

type ApplyDetection struct {
	HasDialog    bool         `json:"hasDialog"`
	DialogAction DialogAction `json:"dialogAction"`
	ApplyAction  ApplyAction  `json:"applyAction"`
}

// FieldMapping is one form control as judged by the decision service.
type FieldMapping struct {
	Selector      string    `json:"selector"`
	FieldType     FieldType `json:"fieldType"`
	Label         string    `json:"label"`
	Required      bool      `json:"required"`
	Confidence    float64   `json:"confidence"`
	Value         string    `json:"value"`
	UserDataField string    `json:"userDataField"`
}

func (m FieldMapping) Supported() bool {
	return m.Confidence >= ConfidenceThreshold
}

type FormAnalysis struct {
	IsApplicationForm bool           `json:"isApplicationForm"`
	Confidence        float64        `json:"confidence"`
	Fields            []FieldMapping `json:"fields"`
	SubmitButton      string         `json:"submitButton"`
}
