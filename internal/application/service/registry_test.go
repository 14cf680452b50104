package service

import (
	"context"
	"testing"

	"apply-agent/internal/application/port/input"
	"apply-agent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

type stubAgent struct {
	taskType entity.TaskType
	name     string
}

func (s *stubAgent) TaskType() entity.TaskType { return s.taskType }
func (s *stubAgent) Name() string              { return s.name }
func (s *stubAgent) Execute(ctx context.Context, req input.AgentRequest) entity.AgentResult {
	return entity.Succeeded(s.name, nil)
}

func TestAgentRegistry(t *testing.T) {
	r := NewAgentRegistry(
		&stubAgent{taskType: entity.TaskTypeFillSubmit, name: "fill"},
		&stubAgent{taskType: entity.TaskTypeSiteDiscovery, name: "discovery"},
	)

	agent, ok := r.Get(entity.TaskTypeSiteDiscovery)
	assert.True(t, ok)
	assert.Equal(t, "discovery", agent.Name())

	_, ok = r.Get(entity.TaskTypeFormScoring)
	assert.False(t, ok)

	r.Register(&stubAgent{taskType: entity.TaskTypeSiteDiscovery, name: "discovery-v2"})
	agent, _ = r.Get(entity.TaskTypeSiteDiscovery)
	assert.Equal(t, "discovery-v2", agent.Name())

	assert.Equal(t, []entity.TaskType{entity.TaskTypeSiteDiscovery, entity.TaskTypeFillSubmit}, r.List())
}
