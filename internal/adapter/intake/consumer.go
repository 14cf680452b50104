// Package intake pulls workflow requests from a Redis list.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
	"apply-agent/internal/usecase/orchestrator"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultQueue        = "applier:workflows"
	DefaultResultQueue  = "applier:results"
	defaultBlockTimeout = 20 * time.Second
	errorBackoff        = time.Second
)

// Queue is the subset of the Redis client the consumer needs.
type Queue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

type Runner interface {
	Run(ctx context.Context, req orchestrator.WorkflowRequest) (*entity.Workflow, error)
}

type Config struct {
	Queue        string
	ResultQueue  string
	BlockTimeout time.Duration
}

// Report is pushed to the result queue after each request.
type Report struct {
	WorkflowID string                  `json:"workflowId,omitempty"`
	Status     entity.WorkflowStatus   `json:"status,omitempty"`
	Counters   entity.WorkflowCounters `json:"counters"`
	Error      string                  `json:"error,omitempty"`
}

type Consumer struct {
	queue  Queue
	runner Runner
	cfg    Config
	logger output.LoggerPort
}

func NewConsumer(queue Queue, runner Runner, cfg Config, logger output.LoggerPort) *Consumer {
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = defaultBlockTimeout
	}
	return &Consumer{queue: queue, runner: runner, cfg: cfg, logger: logger.Named("intake")}
}

// Start consumes requests one at a time until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("Waiting for workflow requests", "queue", c.cfg.Queue)
	for {
		if ctx.Err() != nil {
			c.logger.Info("Intake stopping")
			return nil
		}

		if _, err := c.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("Intake poll failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(errorBackoff):
			}
		}
	}
}

// Poll waits up to the block timeout for one request and runs it. It
// reports whether a request was received.
func (c *Consumer) Poll(ctx context.Context) (bool, error) {
	result, err := c.queue.BLPop(ctx, c.cfg.BlockTimeout, c.cfg.Queue).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("blpop %s: %w", c.cfg.Queue, err)
	}
	if len(result) != 2 {
		return false, fmt.Errorf("blpop %s: unexpected reply %v", c.cfg.Queue, result)
	}

	c.handle(ctx, result[1])
	return true, nil
}

func (c *Consumer) handle(ctx context.Context, payload string) {
	var report Report

	var req orchestrator.WorkflowRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		c.logger.Warn("Dropping malformed request", "error", err)
		report.Error = fmt.Sprintf("decode request: %v", err)
		c.publish(ctx, report)
		return
	}

	c.logger.Info("Workflow request received", "user_id", req.UserID, "jobs", len(req.URLs))
	wf, err := c.runner.Run(ctx, req)
	if wf != nil {
		report.WorkflowID = wf.ID
		report.Status = wf.Status
		report.Counters = wf.Counters
	}
	if err != nil {
		c.logger.Error("Workflow request failed", "error", err)
		report.Error = err.Error()
	}
	c.publish(ctx, report)
}

func (c *Consumer) publish(ctx context.Context, report Report) {
	if c.cfg.ResultQueue == "" {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := c.queue.RPush(context.WithoutCancel(ctx), c.cfg.ResultQueue, data).Err(); err != nil {
		c.logger.Warn("Publishing result failed", "error", err)
	}
}
