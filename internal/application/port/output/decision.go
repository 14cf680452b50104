package output

import (
	"context"

	"apply-agent/internal/domain/entity"
)

// DecisionPort is the vision-capable reasoning service.
type DecisionPort interface {
	DetectApply(ctx context.Context, req entity.DecisionRequest) (*entity.ApplyDetection, error)
	AnalyzeForm(ctx context.Context, req entity.DecisionRequest) (*entity.FormAnalysis, error)
}

// ImproviserPort asks a general-purpose language model for a fill strategy
// when nothing scored the form. Its output is never validated.
type ImproviserPort interface {
	Improvise(ctx context.Context, fields []entity.FieldDescriptor, profile *entity.Profile) (*entity.FillStrategy, error)
}

// ScreenshotSink persists audit screenshots and returns a reference to them.
type ScreenshotSink interface {
	Save(ctx context.Context, taskID, label string, shot *entity.Screenshot) (string, error)
}
