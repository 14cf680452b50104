package entity

import "strings"

// FieldType is the closed set of inferred field kinds the fill agent knows how to act on.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldRadio    FieldType = "radio"
	FieldFile     FieldType = "file"
)

// FieldTypes lists every supported type. Its length is a compile-time constant
// that the fill dispatcher asserts against.
var FieldTypes = [...]FieldType{
	FieldText,
	FieldEmail,
	FieldPhone,
	FieldTextarea,
	FieldSelect,
	FieldCheckbox,
	FieldRadio,
	FieldFile,
}

// ParseFieldType normalizes loose spellings from the decision service.
// Unknown inputs are returned lower-cased and fail Known.
func ParseFieldType(s string) FieldType {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "tel", "telephone", "phone", "phone_number":
		return FieldPhone
	case "multiline", "textarea", "text_area":
		return FieldTextarea
	case "dropdown", "select", "select-one":
		return FieldSelect
	case "upload", "file", "file_upload":
		return FieldFile
	case "input", "string", "url", "number", "date":
		return FieldText
	}
	return FieldType(s)
}

func (t FieldType) Known() bool {
	for _, ft := range FieldTypes {
		if ft == t {
			return true
		}
	}
	return false
}

type StrategyMode string

const (
	StrategyModeAI         StrategyMode = "ai"
	StrategyModeLegacy     StrategyMode = "legacy"
	StrategyModeImprovised StrategyMode = "improvised"
)

// FillStep is one explicit action of a legacy strategy, keyed by raw element type.
type FillStep struct {
	Selector     string `json:"selector"`
	ElementType  string `json:"elementType"`
	ProfileField string `json:"profileField"`
	Value        string `json:"value"`
	Required     bool   `json:"required"`
	Label        string `json:"label,omitempty"`
}

type FillStrategy struct {
	Mode           StrategyMode   `json:"mode"`
	Fields         []FieldMapping `json:"fields,omitempty"`
	Steps          []FillStep     `json:"steps,omitempty"`
	SubmitSelector string         `json:"submitSelector,omitempty"`
	// Validated is false for improvised strategies nobody scored.
	Validated bool `json:"validated"`
}

func (s *FillStrategy) Empty() bool {
	return s == nil || (len(s.Fields) == 0 && len(s.Steps) == 0)
}
