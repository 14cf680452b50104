package improviser

import (
	"context"
	"errors"
	"fmt"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
	"apply-agent/internal/infrastructure/llm"
	"apply-agent/internal/infrastructure/prompts"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var _ output.ImproviserPort = (*Improviser)(nil)

var ErrNothingMapped = errors.New("improviser mapped no fields")

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Improviser asks a general-purpose chat model for a fill strategy.
type Improviser struct {
	model  llms.Model
	logger output.LoggerPort
}

func New(model llms.Model, logger output.LoggerPort) *Improviser {
	return &Improviser{model: model, logger: logger}
}

// NewOpenAI builds an Improviser on any OpenAI-compatible endpoint.
func NewOpenAI(cfg Config, logger output.LoggerPort) (*Improviser, error) {
	opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create improviser model: %w", err)
	}
	return New(model, logger), nil
}

type reply struct {
	Fields         []entity.FieldMapping `json:"fields"`
	SubmitSelector string                `json:"submitSelector"`
}

func (i *Improviser) Improvise(ctx context.Context, fields []entity.FieldDescriptor, profile *entity.Profile) (*entity.FillStrategy, error) {
	prompt, err := prompts.GenerateImprovisePrompt(fields, profile)
	if err != nil {
		return nil, fmt.Errorf("render improvise prompt: %w", err)
	}

	answer, err := llms.GenerateFromSinglePrompt(ctx, i.model, prompt,
		llms.WithTemperature(0),
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, fmt.Errorf("improvise: %w", err)
	}

	var r reply
	if err := llm.DecodeJSON(answer, &r); err != nil {
		return nil, fmt.Errorf("improvise: %w", err)
	}

	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.Selector] = true
	}

	strategy := &entity.FillStrategy{
		Mode:           entity.StrategyModeImprovised,
		SubmitSelector: r.SubmitSelector,
	}
	for _, m := range r.Fields {
		// Selectors the model invented are not on the page.
		if m.Selector == "" || (len(known) > 0 && !known[m.Selector]) {
			continue
		}
		m.FieldType = entity.ParseFieldType(string(m.FieldType))
		strategy.Fields = append(strategy.Fields, m)
	}

	if len(strategy.Fields) == 0 {
		return nil, ErrNothingMapped
	}

	if i.logger != nil {
		i.logger.Info("Improvised fill strategy", "fields", len(strategy.Fields), "offered", len(r.Fields))
	}
	return strategy, nil
}
