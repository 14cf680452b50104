package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"apply-agent/internal/domain/entity"
	"apply-agent/internal/infrastructure/llm"
	"apply-agent/internal/infrastructure/logger"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModel serves one canned completion and records the request it received.
func fakeModel(t *testing.T, answer string) (*DecisionAdapter, *openai.ChatCompletionRequest) {
	t.Helper()

	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:    "cmpl-1",
			Model: got.Model,
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: answer},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig("test-key", "vision-model")
	cfg.BaseURL = srv.URL
	cfg.Logger = logger.NewNop()
	cfg.LogBodies = true
	return NewDecisionAdapter(cfg), &got
}

func TestDetectApply(t *testing.T) {
	adapter, got := fakeModel(t, "```json\n"+`{
		"hasDialog": true,
		"dialogAction": {"shouldClick": true, "selector": "#accept", "reason": "cookie banner"},
		"applyAction": {"shouldClick": true, "selector": "a.apply", "alternativeSelectors": ["#apply"], "confidence": 92, "reason": "apply link"}
	}`+"\n```")

	detection, err := adapter.DetectApply(context.Background(), entity.DecisionRequest{
		URL:        "https://careers.example.com/job/1",
		Markup:     "<a class=apply>Apply</a>",
		Screenshot: &entity.Screenshot{Data: []byte{0xff, 0xd8}, Format: "jpeg"},
	})
	require.NoError(t, err)

	assert.True(t, detection.HasDialog)
	assert.Equal(t, "#accept", detection.DialogAction.Selector)
	assert.True(t, detection.ApplyAction.Trusted())
	assert.Equal(t, []string{"#apply"}, detection.ApplyAction.AlternativeSelectors)

	assert.Equal(t, "vision-model", got.Model)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	parts := got.Messages[1].MultiContent
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].Text, "https://careers.example.com/job/1")
	assert.Equal(t, "data:image/jpeg;base64,/9g=", parts[1].ImageURL.URL)
}

func TestAnalyzeForm(t *testing.T) {
	adapter, got := fakeModel(t, `{
		"isApplicationForm": true,
		"confidence": 88,
		"fields": [{"selector": "#email", "fieldType": "email", "label": "Email", "required": true, "confidence": 95, "userDataField": "email"}],
		"submitButton": "#send"
	}`)

	analysis, err := adapter.AnalyzeForm(context.Background(), entity.DecisionRequest{
		URL:     "https://ats.example.com/apply",
		Profile: &entity.Profile{Email: "ada@example.com"},
	})
	require.NoError(t, err)

	assert.True(t, analysis.IsApplicationForm)
	require.Len(t, analysis.Fields, 1)
	assert.Equal(t, entity.FieldEmail, analysis.Fields[0].FieldType)
	assert.Equal(t, "#send", analysis.SubmitButton)

	require.Len(t, got.Messages, 2)
	assert.Empty(t, got.Messages[1].MultiContent, "no screenshot means a plain text message")
	assert.Contains(t, got.Messages[1].Content, "ada@example.com")
}

func TestDetectApply_Malformed(t *testing.T) {
	adapter, _ := fakeModel(t, "I could not find an apply button.")

	_, err := adapter.DetectApply(context.Background(), entity.DecisionRequest{URL: "https://example.com"})
	assert.ErrorIs(t, err, llm.ErrMalformed)
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,AQI=", dataURL(&entity.Screenshot{Data: []byte{1, 2}, Format: "png"}))
	assert.Equal(t, "data:image/jpeg;base64,AQI=", dataURL(&entity.Screenshot{Data: []byte{1, 2}}))
}
