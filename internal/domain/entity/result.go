package entity

import (
	"encoding/json"
	"time"
)

// AgentResult is what every agent hands back to the orchestrator.
type AgentResult struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	Retryable bool            `json:"retryable"`
}

// Succeeded builds a successful result carrying data encoded as JSON.
func Succeeded(message string, data any) AgentResult {
	res := AgentResult{Success: true, Message: message}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Failure("encode result data", err, false)
		}
		res.Data = raw
	}
	return res
}

// Failure builds an unsuccessful result.
func Failure(message string, err error, retryable bool) AgentResult {
	res := AgentResult{Message: message, Retryable: retryable}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// DecodeData unmarshals the result data into v.
func (r AgentResult) DecodeData(v any) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogEntry is one line of a workflow's diagnostic trail.
type LogEntry struct {
	WorkflowID string    `json:"workflow_id"`
	AgentType  string    `json:"agent_type"`
	Message    string    `json:"message"`
	Level      LogLevel  `json:"level"`
	Timestamp  time.Time `json:"timestamp"`
}
