package intake

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"apply-agent/internal/domain/entity"
	"apply-agent/internal/infrastructure/logger"
	"apply-agent/internal/usecase/orchestrator"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQueue replays scripted BLPOP replies and records RPUSHes.
type fakeQueue struct {
	mu      sync.Mutex
	replies []*redis.StringSliceCmd
	pushed  map[string][]string
}

func newFakeQueue(replies ...*redis.StringSliceCmd) *fakeQueue {
	return &fakeQueue{replies: replies, pushed: map[string][]string{}}
}

func (q *fakeQueue) BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.replies) == 0 {
		time.Sleep(time.Millisecond)
		return redis.NewStringSliceResult(nil, redis.Nil)
	}
	next := q.replies[0]
	q.replies = q.replies[1:]
	return next
}

func (q *fakeQueue) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, v := range values {
		switch b := v.(type) {
		case []byte:
			q.pushed[key] = append(q.pushed[key], string(b))
		case string:
			q.pushed[key] = append(q.pushed[key], b)
		}
	}
	return redis.NewIntResult(int64(len(q.pushed[key])), nil)
}

func (q *fakeQueue) reports(t *testing.T, key string) []Report {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []Report
	for _, raw := range q.pushed[key] {
		var r Report
		require.NoError(t, json.Unmarshal([]byte(raw), &r))
		out = append(out, r)
	}
	return out
}

type fakeRunner struct {
	got []orchestrator.WorkflowRequest
	err error
}

func (r *fakeRunner) Run(ctx context.Context, req orchestrator.WorkflowRequest) (*entity.Workflow, error) {
	r.got = append(r.got, req)
	wf := entity.NewWorkflow(req.UserID, req.Query, len(req.URLs))
	wf.Status = entity.WorkflowStatusCompleted
	return wf, r.err
}

func message(t *testing.T, req orchestrator.WorkflowRequest) *redis.StringSliceCmd {
	t.Helper()
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	return redis.NewStringSliceResult([]string{DefaultQueue, string(raw)}, nil)
}

func TestPoll_RunsRequestAndPublishes(t *testing.T) {
	q := newFakeQueue(message(t, orchestrator.WorkflowRequest{UserID: "u", Query: "go", URLs: []string{"https://a.example.com"}}))
	runner := &fakeRunner{}
	c := NewConsumer(q, runner, Config{ResultQueue: DefaultResultQueue}, logger.NewNop())

	got, err := c.Poll(context.Background())
	require.NoError(t, err)
	assert.True(t, got)

	require.Len(t, runner.got, 1)
	assert.Equal(t, "go", runner.got[0].Query)

	reports := q.reports(t, DefaultResultQueue)
	require.Len(t, reports, 1)
	assert.Equal(t, entity.WorkflowStatusCompleted, reports[0].Status)
	assert.Equal(t, 1, reports[0].Counters.TotalJobs)
	assert.Empty(t, reports[0].Error)
}

func TestPoll_EmptyQueue(t *testing.T) {
	c := NewConsumer(newFakeQueue(), &fakeRunner{}, Config{}, logger.NewNop())

	got, err := c.Poll(context.Background())
	require.NoError(t, err)
	assert.False(t, got)
}

func TestPoll_MalformedAndFailedRequests(t *testing.T) {
	q := newFakeQueue(
		redis.NewStringSliceResult([]string{DefaultQueue, "{not json"}, nil),
		message(t, orchestrator.WorkflowRequest{URLs: []string{"https://a.example.com"}}),
	)
	runner := &fakeRunner{err: orchestrator.ErrAlreadyRunning}
	c := NewConsumer(q, runner, Config{ResultQueue: "results"}, logger.NewNop())

	for i := 0; i < 2; i++ {
		_, err := c.Poll(context.Background())
		require.NoError(t, err)
	}

	reports := q.reports(t, "results")
	require.Len(t, reports, 2)
	assert.Contains(t, reports[0].Error, "decode request")
	assert.Equal(t, orchestrator.ErrAlreadyRunning.Error(), reports[1].Error)
	assert.NotEmpty(t, reports[1].WorkflowID)
	assert.Len(t, runner.got, 1)
}

func TestPoll_TransportError(t *testing.T) {
	q := newFakeQueue(redis.NewStringSliceResult(nil, errors.New("connection refused")))
	c := NewConsumer(q, &fakeRunner{}, Config{}, logger.NewNop())

	_, err := c.Poll(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func TestStart_StopsOnCancel(t *testing.T) {
	q := newFakeQueue(message(t, orchestrator.WorkflowRequest{URLs: []string{"https://a.example.com"}}))
	runner := &fakeRunner{}
	c := NewConsumer(q, runner, Config{}, logger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, c.Start(ctx))
	assert.Len(t, runner.got, 1)
}
