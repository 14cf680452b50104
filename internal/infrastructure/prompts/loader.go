package prompts

import (
	_ "embed"
)

//go:embed apply_detection.txt
var ApplyDetectionPrompt string

//go:embed form_analysis.txt
var FormAnalysisPrompt string

//go:embed improvise.txt
var ImprovisePrompt string
