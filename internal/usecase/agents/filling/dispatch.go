package filling

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
)

// Adding a FieldType without extending dispatch breaks this line.
var _ = [1]struct{}{}[len(entity.FieldTypes)-8]

var (
	ErrNoValue          = errors.New("no value for field")
	ErrUnsupportedType  = errors.New("unsupported field type")
	ErrUploadNotAllowed = errors.New("only the resume may be uploaded")
)

var (
	truthy = map[string]bool{"true": true, "yes": true, "y": true, "1": true, "on": true, "checked": true, "agree": true, "accept": true}
	falsy  = map[string]bool{"false": true, "no": true, "n": true, "0": true, "off": true, "unchecked": true}
)

// action is one field to act on, already normalized from either strategy mode.
type action struct {
	Selector     string
	Type         entity.FieldType
	ProfileField string
	Value        string
	Required     bool
	Label        string
}

func fromMapping(m entity.FieldMapping) action {
	return action{
		Selector:     m.Selector,
		Type:         entity.ParseFieldType(string(m.FieldType)),
		ProfileField: m.UserDataField,
		Value:        m.Value,
		Required:     m.Required,
		Label:        m.Label,
	}
}

func fromStep(s entity.FillStep) action {
	return action{
		Selector:     s.Selector,
		Type:         elementFieldType(s.ElementType),
		ProfileField: s.ProfileField,
		Value:        s.Value,
		Required:     s.Required,
		Label:        s.Label,
	}
}

// elementFieldType maps raw element types; every text-like input fills the same way.
func elementFieldType(elementType string) entity.FieldType {
	switch t := strings.ToLower(elementType); t {
	case "", "text", "search", "url", "number", "date", "month", "week", "time", "datetime-local":
		return entity.FieldText
	case "tel":
		return entity.FieldPhone
	default:
		return entity.ParseFieldType(t)
	}
}

func (a action) resolve(profile *entity.Profile) string {
	if a.Value != "" {
		return a.Value
	}
	v, _ := profile.Value(a.ProfileField)
	return v
}

// dispatch performs exactly one action for the field's type.
func dispatch(ctx context.Context, page output.PagePort, act action, profile *entity.Profile) error {
	value := act.resolve(profile)

	switch act.Type {
	case entity.FieldText, entity.FieldEmail, entity.FieldPhone, entity.FieldTextarea:
		if value == "" {
			return ErrNoValue
		}
		return page.Fill(ctx, act.Selector, value)

	case entity.FieldSelect:
		if value == "" {
			return ErrNoValue
		}
		return selectOption(ctx, page, act.Selector, value)

	case entity.FieldCheckbox:
		token := strings.ToLower(strings.TrimSpace(value))
		switch {
		case truthy[token]:
			return page.SetChecked(ctx, act.Selector, true)
		case falsy[token]:
			return page.SetChecked(ctx, act.Selector, false)
		}
		return fmt.Errorf("%w: %q is neither yes nor no", ErrNoValue, value)

	case entity.FieldRadio:
		if value == "" {
			return ErrNoValue
		}
		return page.SetChecked(ctx, act.Selector, true)

	case entity.FieldFile:
		if act.ProfileField != entity.ProfileResume {
			return ErrUploadNotAllowed
		}
		path, ok := profile.Value(entity.ProfileResume)
		if !ok {
			return fmt.Errorf("%w: profile has no resume", ErrNoValue)
		}
		return page.SetFiles(ctx, act.Selector, []string{path})
	}

	return fmt.Errorf("%w: %q", ErrUnsupportedType, act.Type)
}

// selectOption tries the option value, then its label, then a raw value
// assignment. The first that works wins.
func selectOption(ctx context.Context, page output.PagePort, selector, value string) error {
	var errs []error
	for _, by := range []output.SelectBy{output.SelectByValue, output.SelectByLabel, output.SelectByRaw} {
		err := page.Select(ctx, selector, value, by)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return fmt.Errorf("select %s: %w", selector, errors.Join(errs...))
}
