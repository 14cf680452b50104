package scoring

import (
	"fmt"

	"apply-agent/internal/domain/entity"
	"apply-agent/internal/usecase/agents"
)

// Score splits a decision-service analysis into supported and unsupported
// fields. The service's own judgement is vetoed when a required field
// could not be mapped confidently.
func Score(analysis *entity.FormAnalysis) entity.ScoringResult {
	result := entity.ScoringResult{Confidence: analysis.Confidence}

	var unsupportedRequired int
	for _, f := range analysis.Fields {
		f.FieldType = entity.ParseFieldType(string(f.FieldType))
		if !f.Supported() {
			result.UnsupportedFields = append(result.UnsupportedFields, f)
			if f.Required {
				unsupportedRequired++
			}
			continue
		}
		result.SupportedFields = append(result.SupportedFields, f)
		if f.Required {
			result.RequiredFields = append(result.RequiredFields, f)
		}
	}

	judged := analysis.IsApplicationForm && analysis.Confidence >= entity.ConfidenceThreshold
	result.CanAutoFill = judged && unsupportedRequired == 0

	switch {
	case !judged:
		result.Reason = fmt.Sprintf("form confidence %.0f below %d", analysis.Confidence, entity.ConfidenceThreshold)
	case unsupportedRequired > 0:
		result.Reason = fmt.Sprintf("%d required field(s) cannot be filled", unsupportedRequired)
	default:
		result.Reason = fmt.Sprintf("%d of %d fields mapped", len(result.SupportedFields), len(analysis.Fields))
	}

	if result.CanAutoFill {
		result.Strategy = &entity.FillStrategy{
			Mode:           entity.StrategyModeAI,
			Fields:         result.SupportedFields,
			SubmitSelector: analysis.SubmitButton,
			Validated:      true,
		}
	}
	return result
}

// ScoreLegacy maps fields to profile entries by keyword. Confidence is the
// share of fields mapped; at least one required field must be identified
// and none may be left unrecognised.
func ScoreLegacy(fields []entity.FieldDescriptor, profile *entity.Profile) entity.ScoringResult {
	var (
		result              entity.ScoringResult
		steps               []entity.FillStep
		unsupportedRequired int
	)

	for _, f := range fields {
		mapping := entity.FieldMapping{
			Selector:  f.Selector,
			FieldType: fieldTypeOf(f),
			Label:     f.Label,
			Required:  f.Required,
		}

		profileField, ok := agents.MatchProfileField(f)
		if !ok {
			result.UnsupportedFields = append(result.UnsupportedFields, mapping)
			if f.Required {
				unsupportedRequired++
			}
			continue
		}
		mapping.UserDataField = profileField
		mapping.Confidence = 100
		value, _ := profile.Value(profileField)
		mapping.Value = value

		result.SupportedFields = append(result.SupportedFields, mapping)
		if f.Required {
			result.RequiredFields = append(result.RequiredFields, mapping)
		}
		steps = append(steps, entity.FillStep{
			Selector:     f.Selector,
			ElementType:  f.ElementType(),
			ProfileField: profileField,
			Value:        value,
			Required:     f.Required,
			Label:        f.Label,
		})
	}

	if len(fields) > 0 {
		result.Confidence = float64(len(result.SupportedFields)) / float64(len(fields)) * 100
	}
	result.CanAutoFill = result.Confidence >= entity.ConfidenceThreshold &&
		len(result.RequiredFields) > 0 && unsupportedRequired == 0

	switch {
	case result.Confidence < entity.ConfidenceThreshold:
		result.Reason = fmt.Sprintf("only %d of %d fields recognised", len(result.SupportedFields), len(fields))
	case len(result.RequiredFields) == 0:
		result.Reason = "no required field recognised"
	case unsupportedRequired > 0:
		result.Reason = fmt.Sprintf("%d required field(s) cannot be filled", unsupportedRequired)
	default:
		result.Reason = fmt.Sprintf("%d of %d fields recognised", len(result.SupportedFields), len(fields))
	}

	if result.CanAutoFill {
		result.Strategy = &entity.FillStrategy{
			Mode:      entity.StrategyModeLegacy,
			Steps:     steps,
			Validated: true,
		}
	}
	return result
}

func fieldTypeOf(f entity.FieldDescriptor) entity.FieldType {
	switch t := f.ElementType(); t {
	case "email", "checkbox", "radio", "file", "select", "textarea":
		return entity.FieldType(t)
	case "tel":
		return entity.FieldPhone
	default:
		return entity.ParseFieldType(t)
	}
}
