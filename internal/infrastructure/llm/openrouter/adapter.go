package openrouter

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
	"apply-agent/internal/infrastructure/llm"
	"apply-agent/internal/infrastructure/prompts"

	"github.com/sashabaranov/go-openai"
)

var _ output.DecisionPort = (*DecisionAdapter)(nil)

var ErrEmptyResponse = errors.New("decision service returned no choices")

const systemPrompt = "You assist with automated job applications. You always answer with a single JSON object and nothing else."

// DecisionAdapter talks to any OpenAI-compatible vision model, OpenRouter by default.
type DecisionAdapter struct {
	client *openai.Client
	model  string
	logger output.LoggerPort
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  output.LoggerPort
	// LogBodies makes the transport log request payloads. Screenshots make these large.
	LogBodies bool
}

func DefaultConfig(apiKey, model string) Config {
	return Config{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://openrouter.ai/api/v1",
	}
}

type loggingTransport struct {
	base      http.RoundTripper
	logger    output.LoggerPort
	logBodies bool
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	fields := []interface{}{"method", req.Method, "url", req.URL.String()}
	if t.logBodies && req.Body != nil {
		bodyBytes, _ := io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		fields = append(fields, "bodySize", len(bodyBytes))
	}
	t.logger.Debug("HTTP Request", fields...)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Warn("HTTP Request failed", "error", err)
		return resp, err
	}

	t.logger.Debug("HTTP Response",
		"status", resp.Status,
		"statusCode", resp.StatusCode,
	)
	return resp, err
}

func NewDecisionAdapter(cfg Config) *DecisionAdapter {
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL

	if cfg.Logger != nil {
		config.HTTPClient = &http.Client{
			Transport: &loggingTransport{
				base:      http.DefaultTransport,
				logger:    cfg.Logger,
				logBodies: cfg.LogBodies,
			},
		}
	}

	return &DecisionAdapter{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

func (a *DecisionAdapter) DetectApply(ctx context.Context, req entity.DecisionRequest) (*entity.ApplyDetection, error) {
	prompt, err := prompts.GenerateApplyDetectionPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("render apply prompt: %w", err)
	}

	var detection entity.ApplyDetection
	if err := a.ask(ctx, prompt, req.Screenshot, &detection); err != nil {
		return nil, fmt.Errorf("detect apply: %w", err)
	}
	return &detection, nil
}

func (a *DecisionAdapter) AnalyzeForm(ctx context.Context, req entity.DecisionRequest) (*entity.FormAnalysis, error) {
	prompt, err := prompts.GenerateFormAnalysisPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("render form prompt: %w", err)
	}

	var analysis entity.FormAnalysis
	if err := a.ask(ctx, prompt, req.Screenshot, &analysis); err != nil {
		return nil, fmt.Errorf("analyze form: %w", err)
	}
	return &analysis, nil
}

func (a *DecisionAdapter) ask(ctx context.Context, prompt string, shot *entity.Screenshot, out interface{}) error {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			userMessage(prompt, shot),
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		return fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ErrEmptyResponse
	}

	content := resp.Choices[0].Message.Content
	if a.logger != nil {
		a.logger.Debug("Decision received", "model", a.model, "length", len(content))
	}
	return llm.DecodeJSON(content, out)
}

func userMessage(prompt string, shot *entity.Screenshot) openai.ChatCompletionMessage {
	if shot == nil || len(shot.Data) == 0 {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt}
	}

	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL(shot),
					Detail: openai.ImageURLDetailAuto,
				},
			},
		},
	}
}

func dataURL(shot *entity.Screenshot) string {
	format := shot.Format
	if format == "" || format == "jpg" {
		format = "jpeg"
	}
	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(shot.Data)
}
