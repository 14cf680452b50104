package service

import (
	"sort"

	"apply-agent/internal/application/port/input"
	"apply-agent/internal/domain/entity"
)

// AgentRegistry maps each task type to the agent that executes it.
type AgentRegistry struct {
	agents map[entity.TaskType]input.AgentExecutor
}

func NewAgentRegistry(agents ...input.AgentExecutor) *AgentRegistry {
	r := &AgentRegistry{
		agents: make(map[entity.TaskType]input.AgentExecutor),
	}
	for _, agent := range agents {
		r.Register(agent)
	}
	return r
}

// Register replaces any agent previously registered for the same task type.
func (r *AgentRegistry) Register(agent input.AgentExecutor) {
	r.agents[agent.TaskType()] = agent
}

func (r *AgentRegistry) Get(taskType entity.TaskType) (input.AgentExecutor, bool) {
	agent, ok := r.agents[taskType]
	return agent, ok
}

func (r *AgentRegistry) List() []entity.TaskType {
	result := make([]entity.TaskType, 0, len(r.agents))
	for taskType := range r.agents {
		result = append(result, taskType)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}
