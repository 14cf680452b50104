package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"apply-agent/internal/domain/entity"
)

// ProfileFields are the canonical keys the decision service may map to.
var ProfileFields = []string{
	entity.ProfileFirstName,
	entity.ProfileLastName,
	entity.ProfileFullName,
	entity.ProfileEmail,
	entity.ProfilePhone,
	entity.ProfileAddress,
	entity.ProfileCity,
	entity.ProfileCountry,
	entity.ProfilePostalCode,
	entity.ProfileLinkedIn,
	entity.ProfileWebsite,
	entity.ProfileResume,
	entity.ProfileCoverLetter,
	entity.ProfileExperience,
	entity.ProfileTitle,
}

type PromptData struct {
	URL           string
	Context       string
	Markup        string
	Profile       string
	Fields        string
	FieldTypes    []string
	ProfileFields []string
}

func newPromptData(profile *entity.Profile) (PromptData, error) {
	data := PromptData{ProfileFields: ProfileFields, Profile: "{}"}
	for _, ft := range entity.FieldTypes {
		data.FieldTypes = append(data.FieldTypes, string(ft))
	}
	if profile != nil {
		raw, err := json.MarshalIndent(redact(profile), "", "  ")
		if err != nil {
			return PromptData{}, fmt.Errorf("encode profile: %w", err)
		}
		data.Profile = string(raw)
	}
	return data, nil
}

// redact keeps local file paths out of prompts.
func redact(p *entity.Profile) entity.Profile {
	c := *p
	if c.ResumePath != "" {
		c.ResumePath = "(attached)"
	}
	return c
}

func GenerateApplyDetectionPrompt(req entity.DecisionRequest) (string, error) {
	data, err := newPromptData(req.Profile)
	if err != nil {
		return "", err
	}
	data.URL, data.Context, data.Markup = req.URL, req.Context, req.Markup
	return render("apply_detection", ApplyDetectionPrompt, data)
}

func GenerateFormAnalysisPrompt(req entity.DecisionRequest) (string, error) {
	data, err := newPromptData(req.Profile)
	if err != nil {
		return "", err
	}
	data.URL, data.Context, data.Markup = req.URL, req.Context, req.Markup
	return render("form_analysis", FormAnalysisPrompt, data)
}

func GenerateImprovisePrompt(fields []entity.FieldDescriptor, profile *entity.Profile) (string, error) {
	data, err := newPromptData(profile)
	if err != nil {
		return "", err
	}
	raw, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}
	data.Fields = string(raw)
	return render("improvise", ImprovisePrompt, data)
}

func render(name, baseTemplate string, data PromptData) (string, error) {
	tmpl, err := template.New(name).Funcs(template.FuncMap{"join": strings.Join}).Parse(baseTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
