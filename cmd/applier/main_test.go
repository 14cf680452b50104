package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"apply-agent/internal/domain/entity"
	"apply-agent/internal/infrastructure/store/sqlite"
	"apply-agent/internal/usecase/orchestrator"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	dbPath = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCollectURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("# remote roles\nhttps://a.example.com/1\n\n  https://b.example.com/2  \n"), 0o600))

	urls, err := collectURLs(path, []string{"https://flag.example.com"}, []string{"https://arg.example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://flag.example.com",
		"https://arg.example.com",
		"https://a.example.com/1",
		"https://b.example.com/2",
	}, urls)

	_, err = collectURLs(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestInspectCommands(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "applier.db")

	st, err := sqlite.Open(db)
	require.NoError(t, err)
	wf, err := orchestrator.Seed(context.Background(), st, "u", "golang", []string{"https://jobs.example.com/1"})
	require.NoError(t, err)
	require.NoError(t, st.AppendLog(context.Background(), entity.LogEntry{
		WorkflowID: wf.ID, AgentType: "orchestrator", Level: entity.LogLevelInfo, Message: "workflow started", Timestamp: time.Now(),
	}))
	require.NoError(t, st.Close())

	out, err := execute(t, "--env-dir", dir, "--db", db, "status", wf.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "jobs:       0/1 processed")

	out, err = execute(t, "--env-dir", dir, "--db", db, "status")
	require.NoError(t, err)
	assert.Contains(t, out, wf.ID)

	out, err = execute(t, "--env-dir", dir, "--db", db, "tasks", wf.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "site_discovery")
	assert.Contains(t, out, "https://jobs.example.com/1")

	out, err = execute(t, "--env-dir", dir, "--db", db, "logs", wf.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "workflow started")

	_, err = execute(t, "--env-dir", dir, "--db", db, "status", "missing")
	assert.Error(t, err)
}

func TestProfileCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")

	out, err := execute(t, "--env-dir", dir, "profile", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	_, err = execute(t, "--env-dir", dir, "profile", "init", path)
	assert.Error(t, err)

	// The starter profile points at ~/cv.pdf, which does not exist here.
	_, err = execute(t, "--env-dir", dir, "profile", "check", path)
	assert.ErrorContains(t, err, "resume_path")
}
