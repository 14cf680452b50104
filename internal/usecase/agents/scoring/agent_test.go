package scoring

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"apply-agent/internal/application/port/input"
	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
	"apply-agent/internal/infrastructure/browser/browsertest"
	"apply-agent/internal/infrastructure/logger"
	"apply-agent/internal/usecase/agents"
	"apply-agent/internal/usecase/dialog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const formURL = "https://ats.example.com/apply/7"

const formHTML = `<html><body><form>
	<input name="first_name" required>
	<input name="last_name" required>
	<input type="email" name="email" required>
	<input type="tel" name="phone">
	<input type="file" name="resume" aria-label="Resume">
	<button type="submit">Submit</button>
</form></body></html>`

var profile = &entity.Profile{
	FirstName:  "Ada",
	LastName:   "Lovelace",
	Email:      "ada@example.com",
	Phone:      "+44 20 7946 0000",
	ResumePath: "/tmp/ada.pdf",
}

type analysisStub struct {
	analyses  []*entity.FormAnalysis
	err       error
	calls     int
	onAnalyze func(call int)
}

func (s *analysisStub) DetectApply(ctx context.Context, req entity.DecisionRequest) (*entity.ApplyDetection, error) {
	return nil, errors.New("not used")
}

func (s *analysisStub) AnalyzeForm(ctx context.Context, req entity.DecisionRequest) (*entity.FormAnalysis, error) {
	s.calls++
	if s.onAnalyze != nil {
		s.onAnalyze(s.calls)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.analyses[min(s.calls-1, len(s.analyses)-1)], nil
}

func newAgent(decision *analysisStub) *Agent {
	sweepCfg := dialog.DefaultConfig()
	sweepCfg.Settle = 0
	sweepCfg.PollInterval = time.Millisecond

	var port output.DecisionPort
	if decision != nil {
		port = decision
	}
	timeouts := agents.DefaultTimeouts()
	timeouts.Readiness = 50 * time.Millisecond
	return New(port, dialog.NewSweeper(sweepCfg, logger.NewNop()), nil, logger.NewNop(), Config{Timeouts: timeouts})
}

func request(t *testing.T, b *browsertest.Browser, fields []entity.FieldDescriptor) input.AgentRequest {
	t.Helper()
	task, err := entity.NewTask("wf-1", entity.TaskTypeFormScoring, "job-7", "https://careers.example.com/7",
		entity.ScoringPayload{FormURL: formURL, Fields: fields})
	require.NoError(t, err)
	return input.AgentRequest{Task: task, Browser: b, Profile: profile}
}

func decode(t *testing.T, res entity.AgentResult) entity.ScoringResult {
	t.Helper()
	var out entity.ScoringResult
	require.NoError(t, res.DecodeData(&out))
	return out
}

func mapping(sel string, confidence float64, required bool) entity.FieldMapping {
	return entity.FieldMapping{
		Selector:      sel,
		FieldType:     entity.FieldText,
		Required:      required,
		Confidence:    confidence,
		UserDataField: entity.ProfileFullName,
	}
}

func TestScore_RequiredLowConfidenceFieldVetoes(t *testing.T) {
	var fields []entity.FieldMapping
	for i := 0; i < 8; i++ {
		fields = append(fields, mapping(fmt.Sprintf("#f%d", i), 90, i < 3))
	}
	lowRequired := mapping("#salary", 40, true)
	lowOptional := mapping("#referral", 55, false)
	fields = append(fields, lowRequired, lowOptional)

	result := Score(&entity.FormAnalysis{IsApplicationForm: true, Confidence: 88, Fields: fields})

	assert.False(t, result.CanAutoFill)
	assert.Equal(t, []entity.FieldMapping{lowRequired, lowOptional}, result.UnsupportedFields)
	assert.Len(t, result.SupportedFields, 8)
	assert.Len(t, result.RequiredFields, 3)
	assert.Nil(t, result.Strategy)
	assert.Contains(t, result.Reason, "required")
}

func TestScore_ConfidentFormProducesStrategy(t *testing.T) {
	result := Score(&entity.FormAnalysis{
		IsApplicationForm: true,
		Confidence:        91,
		SubmitButton:      "#send",
		Fields: []entity.FieldMapping{
			{Selector: "#email", FieldType: "EMAIL", Required: true, Confidence: 99, UserDataField: entity.ProfileEmail},
			{Selector: "#cv", FieldType: "upload", Confidence: 80, UserDataField: entity.ProfileResume},
			{Selector: "#hobby", FieldType: "text", Confidence: 20},
		},
	})

	require.True(t, result.CanAutoFill)
	require.NotNil(t, result.Strategy)
	assert.Equal(t, entity.StrategyModeAI, result.Strategy.Mode)
	assert.True(t, result.Strategy.Validated)
	assert.Equal(t, "#send", result.Strategy.SubmitSelector)
	require.Len(t, result.Strategy.Fields, 2)
	assert.Equal(t, entity.FieldEmail, result.Strategy.Fields[0].FieldType)
	assert.Equal(t, entity.FieldFile, result.Strategy.Fields[1].FieldType)
}

func TestScore_LowFormConfidence(t *testing.T) {
	result := Score(&entity.FormAnalysis{
		IsApplicationForm: true,
		Confidence:        69,
		Fields:            []entity.FieldMapping{mapping("#a", 95, true)},
	})
	assert.False(t, result.CanAutoFill)
	assert.Contains(t, result.Reason, "below")
}

func TestScoreLegacy(t *testing.T) {
	fields := []entity.FieldDescriptor{
		{Selector: "#first", Tag: "input", Type: "text", Name: "first_name", Required: true},
		{Selector: "#email", Tag: "input", Type: "email", Required: true},
		{Selector: "#phone", Tag: "input", Type: "tel"},
		{Selector: "#q", Tag: "input", Type: "text", Name: "how_did_you_hear"},
	}

	result := ScoreLegacy(fields, profile)

	assert.InDelta(t, 75.0, result.Confidence, 0.001)
	assert.True(t, result.CanAutoFill)
	assert.Len(t, result.RequiredFields, 2)
	require.Len(t, result.UnsupportedFields, 1)
	assert.Equal(t, "#q", result.UnsupportedFields[0].Selector)

	require.NotNil(t, result.Strategy)
	assert.Equal(t, entity.StrategyModeLegacy, result.Strategy.Mode)
	require.Len(t, result.Strategy.Steps, 3)
	assert.Equal(t, entity.FillStep{
		Selector: "#phone", ElementType: "tel", ProfileField: entity.ProfilePhone, Value: profile.Phone,
	}, result.Strategy.Steps[2])
}

func TestScoreLegacy_NeedsARequiredField(t *testing.T) {
	fields := []entity.FieldDescriptor{
		{Selector: "#email", Tag: "input", Type: "email"},
		{Selector: "#phone", Tag: "input", Type: "tel"},
	}

	result := ScoreLegacy(fields, profile)

	assert.Equal(t, 100.0, result.Confidence)
	assert.False(t, result.CanAutoFill)
	assert.Equal(t, "no required field recognised", result.Reason)
}

func TestScoreLegacy_UnrecognisedRequiredFieldVetoes(t *testing.T) {
	fields := []entity.FieldDescriptor{
		{Selector: "#first", Tag: "input", Type: "text", Name: "first_name", Required: true},
		{Selector: "#last", Tag: "input", Type: "text", Name: "last_name", Required: true},
		{Selector: "#email", Tag: "input", Type: "email", Name: "email", Required: true},
		{Selector: "#phone", Tag: "input", Type: "tel", Name: "phone"},
		{Selector: "#why", Tag: "textarea", Label: "Why do you want this job?", Required: true},
	}

	result := ScoreLegacy(fields, profile)

	assert.InDelta(t, 80.0, result.Confidence, 0.001)
	assert.False(t, result.CanAutoFill)
	assert.Nil(t, result.Strategy)
	require.Len(t, result.UnsupportedFields, 1)
	assert.Equal(t, "#why", result.UnsupportedFields[0].Selector)
	assert.Equal(t, "1 required field(s) cannot be filled", result.Reason)
}

func TestExecute_AIPath(t *testing.T) {
	decision := &analysisStub{analyses: []*entity.FormAnalysis{{
		IsApplicationForm: true,
		Confidence:        90,
		Fields:            []entity.FieldMapping{{Selector: "input[name=\"email\"]", FieldType: entity.FieldEmail, Required: true, Confidence: 95, UserDataField: entity.ProfileEmail}},
	}}}
	b := browsertest.NewBrowser(map[string]*browsertest.Site{formURL: {HTML: formHTML}})

	res := newAgent(decision).Execute(context.Background(), request(t, b, nil))

	require.True(t, res.Success, res.Error)
	out := decode(t, res)
	assert.True(t, out.CanAutoFill)
	assert.Equal(t, entity.StrategyModeAI, out.Strategy.Mode)
	assert.Equal(t, 1, decision.calls)
	assert.Equal(t, []string{formURL}, b.Pages()[0].Gotos)
	assert.Zero(t, b.OpenPages())
}

func TestExecute_NotAnApplicationFormIsTerminal(t *testing.T) {
	decision := &analysisStub{analyses: []*entity.FormAnalysis{{IsApplicationForm: false, Confidence: 95}}}
	b := browsertest.NewBrowser(map[string]*browsertest.Site{formURL: {HTML: formHTML}})

	res := newAgent(decision).Execute(context.Background(), request(t, b, nil))

	assert.False(t, res.Success)
	assert.False(t, res.Retryable)
	assert.Contains(t, res.Error, ErrNotApplicationForm.Error())
}

func TestExecute_ReanalysesAfterLateDialog(t *testing.T) {
	b := browsertest.NewBrowser(map[string]*browsertest.Site{formURL: {
		HTML: formHTML,
		OnClick: map[string]func(*browsertest.Page){
			"[data-dismiss='modal']": func(p *browsertest.Page) {
				p.Remove("[data-dismiss='modal']")
				p.Remove("[role='dialog']")
			},
		},
	}})
	decision := &analysisStub{
		analyses: []*entity.FormAnalysis{
			{IsApplicationForm: true, Confidence: 30},
			{IsApplicationForm: true, Confidence: 90, Fields: []entity.FieldMapping{mapping("#name", 90, true)}},
		},
		onAnalyze: func(call int) {
			if call == 1 {
				page := b.Pages()[0]
				page.Add("[role='dialog']", browsertest.Element{Selector: "#newsletter"})
				page.Add("[data-dismiss='modal']", browsertest.Element{Text: "Close"})
			}
		},
	}

	res := newAgent(decision).Execute(context.Background(), request(t, b, nil))

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 2, decision.calls)
	assert.True(t, decode(t, res).CanAutoFill)
	assert.Contains(t, b.Pages()[0].Clicks, "[data-dismiss='modal']")
}

func TestExecute_FallsBackToKeywordsWhenServiceFails(t *testing.T) {
	decision := &analysisStub{err: errors.New("connection reset")}
	b := browsertest.NewBrowser(map[string]*browsertest.Site{formURL: {HTML: formHTML}})

	res := newAgent(decision).Execute(context.Background(), request(t, b, nil))

	require.True(t, res.Success, res.Error)
	out := decode(t, res)
	assert.Equal(t, 100.0, out.Confidence)
	assert.True(t, out.CanAutoFill)
	require.NotNil(t, out.Strategy)
	assert.Equal(t, entity.StrategyModeLegacy, out.Strategy.Mode)
	assert.Len(t, out.Strategy.Steps, 5)
	assert.Len(t, out.RequiredFields, 3)
}

func TestExecute_LegacyUsesPayloadFields(t *testing.T) {
	b := browsertest.NewBrowser(map[string]*browsertest.Site{formURL: {HTML: "<html><body></body></html>"}})
	fields := []entity.FieldDescriptor{
		{Selector: "#email", Tag: "input", Type: "email", Required: true},
		{Selector: "#color", Tag: "input", Type: "text", Name: "favourite_colour"},
	}

	res := newAgent(nil).Execute(context.Background(), request(t, b, fields))

	require.True(t, res.Success, res.Error)
	out := decode(t, res)
	assert.Equal(t, 50.0, out.Confidence)
	assert.False(t, out.CanAutoFill)
}

func TestExecute_NoFieldsIsTerminal(t *testing.T) {
	b := browsertest.NewBrowser(map[string]*browsertest.Site{formURL: {HTML: "<html><body><p>Closed</p></body></html>"}})

	res := newAgent(nil).Execute(context.Background(), request(t, b, nil))

	assert.False(t, res.Success)
	assert.False(t, res.Retryable)
	assert.Contains(t, res.Error, ErrNotApplicationForm.Error())
}

func TestExecute_NoMappedFieldsIsTerminal(t *testing.T) {
	decision := &analysisStub{analyses: []*entity.FormAnalysis{{IsApplicationForm: true, Confidence: 92, Fields: []entity.FieldMapping{}}}}
	b := browsertest.NewBrowser(map[string]*browsertest.Site{formURL: {HTML: formHTML}})

	res := newAgent(decision).Execute(context.Background(), request(t, b, nil))

	assert.False(t, res.Success)
	assert.False(t, res.Retryable)
	assert.Contains(t, res.Error, "no fields mapped")
	assert.Equal(t, 1, decision.calls)
	assert.Zero(t, b.OpenPages())
}
