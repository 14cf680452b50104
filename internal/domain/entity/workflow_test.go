package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflow_TransitionsAreMonotonic(t *testing.T) {
	wf := NewWorkflow("user", "golang jobs", 2)
	assert.Equal(t, WorkflowStatusInitializing, wf.Status)

	require.NoError(t, wf.TransitionTo(WorkflowStatusProcessing))
	require.NoError(t, wf.TransitionTo(WorkflowStatusCompleted))

	assert.ErrorIs(t, wf.TransitionTo(WorkflowStatusProcessing), ErrInvalidTransition)
	assert.ErrorIs(t, wf.TransitionTo(WorkflowStatusFailed), ErrInvalidTransition)
	assert.Equal(t, WorkflowStatusCompleted, wf.Status)
}

func TestWorkflow_ProcessedNeverExceedsTotal(t *testing.T) {
	wf := NewWorkflow("user", "", 2)

	wf.RecordApplication(true)
	wf.RecordApplication(false)
	wf.RecordApplication(true)

	assert.Equal(t, 2, wf.Counters.ProcessedJobs)
	assert.LessOrEqual(t, wf.Counters.ProcessedJobs, wf.Counters.TotalJobs)
	assert.Equal(t, 2, wf.Counters.SuccessfulApplications)
	assert.Equal(t, 1, wf.Counters.FailedApplications)
}

func TestParseFieldType(t *testing.T) {
	cases := map[string]FieldType{
		"Text":      FieldText,
		"tel":       FieldPhone,
		"multiline": FieldTextarea,
		"dropdown":  FieldSelect,
		"upload":    FieldFile,
		"checkbox":  FieldCheckbox,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseFieldType(in), in)
	}
	assert.False(t, ParseFieldType("signature").Known())
}

func TestProfile_Value(t *testing.T) {
	p := &Profile{FirstName: "Ada", LastName: "Lovelace", YearsExperience: 7, Extra: map[string]string{"github": "ada"}}

	v, ok := p.Value(ProfileFullName)
	assert.True(t, ok)
	assert.Equal(t, "Ada Lovelace", v)

	v, _ = p.Value(ProfileExperience)
	assert.Equal(t, "7", v)

	v, _ = p.Value("github")
	assert.Equal(t, "ada", v)

	_, ok = p.Value(ProfilePhone)
	assert.False(t, ok)
}
