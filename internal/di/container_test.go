package di

import (
	"path/filepath"
	"testing"
	"time"

	"apply-agent/internal/domain/entity"
	"apply-agent/internal/infrastructure/env"
	"apply-agent/internal/infrastructure/store/memory"
	"apply-agent/internal/infrastructure/store/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContainer_Heuristic(t *testing.T) {
	dir := t.TempDir()
	c, err := NewContainer(Config{
		LogName:      "test",
		LogLevel:     "debug",
		DBPath:       MemoryDB,
		ArtifactsDir: filepath.Join(dir, "shots"),
		Profile:      &entity.Profile{Email: "ada@example.com"},
	})
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &memory.Store{}, c.Store)
	assert.ElementsMatch(t, []entity.TaskType{
		entity.TaskTypeSiteDiscovery,
		entity.TaskTypeFormScoring,
		entity.TaskTypeFillSubmit,
	}, c.Registry.List())
	assert.False(t, c.Dispatcher.Busy())
	assert.Equal(t, "ada@example.com", c.Session().Profile.Email)
	assert.DirExists(t, filepath.Join(dir, "shots"))
}

func TestNewContainer_SQLiteAndDecision(t *testing.T) {
	dir := t.TempDir()
	c, err := NewContainer(Config{
		LogName:         "test",
		LogDir:          filepath.Join(dir, "log"),
		DBPath:          filepath.Join(dir, "applier.db"),
		DecisionAPIKey:  "key",
		DecisionModel:   "vision",
		ImproviserModel: "text",
		TaskDelay:       time.Millisecond,
	})
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &sqlite.Store{}, c.Store)
	assert.FileExists(t, filepath.Join(dir, "applier.db"))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("OPENROUTER_MODEL_NAME", "")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("TASK_DELAY", "5s")
	t.Setenv("APPLIER_DB", ":memory:")

	cfg := ConfigFromEnv(&env.EnvService{})

	assert.Equal(t, "sk-test", cfg.DecisionAPIKey)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.DecisionModel)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.DecisionBaseURL)
	assert.False(t, cfg.BrowserHeadless)
	assert.Equal(t, 5*time.Second, cfg.TaskDelay)
	assert.Equal(t, MemoryDB, cfg.DBPath)
}
