package di

import (
	"fmt"
	"time"

	"apply-agent/internal/application/port/input"
	"apply-agent/internal/application/port/output"
	"apply-agent/internal/application/service"
	"apply-agent/internal/domain/entity"
	"apply-agent/internal/infrastructure/artifacts"
	"apply-agent/internal/infrastructure/browser/rod"
	"apply-agent/internal/infrastructure/env"
	"apply-agent/internal/infrastructure/llm/improviser"
	"apply-agent/internal/infrastructure/llm/openrouter"
	"apply-agent/internal/infrastructure/logger"
	"apply-agent/internal/infrastructure/store/memory"
	"apply-agent/internal/infrastructure/store/sqlite"
	"apply-agent/internal/usecase/agents/discovery"
	"apply-agent/internal/usecase/agents/filling"
	"apply-agent/internal/usecase/agents/scoring"
	"apply-agent/internal/usecase/dialog"
	"apply-agent/internal/usecase/orchestrator"
)

// MemoryDB selects the in-process store instead of SQLite.
const MemoryDB = ":memory:"

type Config struct {
	DecisionAPIKey  string
	DecisionModel   string
	DecisionBaseURL string
	// ImproviserModel enables strategy improvisation when set.
	ImproviserModel string

	DBPath       string
	ArtifactsDir string

	LogName    string
	LogDir     string
	LogLevel   string
	LogConsole bool

	BrowserHeadless  bool
	BrowserNoSandbox bool
	BrowserBin       string

	TaskDelay time.Duration
	Profile   *entity.Profile
}

// ConfigFromEnv reads settings from the environment. The decision service
// is optional; without it agents use their heuristic paths.
func ConfigFromEnv(e *env.EnvService) Config {
	return Config{
		DecisionAPIKey:  e.Get("OPENROUTER_API_KEY"),
		DecisionModel:   e.GetString("OPENROUTER_MODEL_NAME", "openai/gpt-4o-mini"),
		DecisionBaseURL: e.GetString("OPENROUTER_BASE_URL", openrouter.DefaultConfig("", "").BaseURL),
		ImproviserModel: e.Get("IMPROVISER_MODEL_NAME"),

		DBPath:       e.GetString("APPLIER_DB", "data/applier.db"),
		ArtifactsDir: e.GetString("APPLIER_ARTIFACTS", "artifacts"),

		LogName:    "applier",
		LogDir:     e.GetString("LOG_DIR", "log"),
		LogLevel:   e.GetString("LOG_LEVEL", "info"),
		LogConsole: e.GetBool("LOG_CONSOLE", false),

		BrowserHeadless:  e.GetBool("BROWSER_HEADLESS", true),
		BrowserNoSandbox: e.GetBool("BROWSER_NO_SANDBOX", false),
		BrowserBin:       e.Get("BROWSER_BIN"),

		TaskDelay: e.GetDuration("TASK_DELAY", orchestrator.DefaultTaskDelay),
	}
}

type Container struct {
	Logger       output.LoggerPort
	Store        output.TaskStore
	Launcher     output.BrowserLauncher
	Registry     *service.AgentRegistry
	Orchestrator *orchestrator.UseCase
	Dispatcher   *orchestrator.Dispatcher
	Profile      *entity.Profile
}

func NewContainer(cfg Config) (*Container, error) {
	logCfg := logger.DefaultConfig(cfg.LogName)
	logCfg.Dir = cfg.LogDir
	logCfg.Level = cfg.LogLevel
	logCfg.Console = cfg.LogConsole
	log, err := logger.NewLoggerAdapter(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := OpenStore(cfg.DBPath)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	var sink output.ScreenshotSink
	if cfg.ArtifactsDir != "" {
		dirSink, err := artifacts.NewDirSink(cfg.ArtifactsDir)
		if err != nil {
			store.Close()
			log.Close()
			return nil, err
		}
		sink = dirSink
	}

	var decision output.DecisionPort
	if cfg.DecisionAPIKey != "" {
		dcfg := openrouter.DefaultConfig(cfg.DecisionAPIKey, cfg.DecisionModel)
		if cfg.DecisionBaseURL != "" {
			dcfg.BaseURL = cfg.DecisionBaseURL
		}
		dcfg.Logger = log.Named("decision")
		decision = openrouter.NewDecisionAdapter(dcfg)
	} else {
		log.Warn("No decision service key; using heuristics only")
	}

	var improv output.ImproviserPort
	if cfg.ImproviserModel != "" && cfg.DecisionAPIKey != "" {
		imp, err := improviser.NewOpenAI(improviser.Config{
			APIKey:  cfg.DecisionAPIKey,
			Model:   cfg.ImproviserModel,
			BaseURL: cfg.DecisionBaseURL,
		}, log.Named("improviser"))
		if err != nil {
			store.Close()
			log.Close()
			return nil, err
		}
		improv = imp
	}

	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = cfg.BrowserHeadless
	browserCfg.NoSandbox = cfg.BrowserNoSandbox
	browserCfg.Bin = cfg.BrowserBin
	launcher := rod.NewLauncher(browserCfg)

	sweeper := dialog.NewSweeper(dialog.DefaultConfig(), log)
	registry := service.NewAgentRegistry(
		discovery.New(decision, sweeper, sink, log, discovery.Config{}),
		scoring.New(decision, sweeper, sink, log, scoring.Config{}),
		filling.New(sweeper, improv, sink, log, filling.Config{}),
	)

	uc := orchestrator.New(registry, log, orchestrator.Config{TaskDelay: cfg.TaskDelay})

	c := &Container{
		Logger:       log,
		Store:        store,
		Launcher:     launcher,
		Registry:     registry,
		Orchestrator: uc,
		Profile:      cfg.Profile,
	}
	c.Dispatcher = orchestrator.NewDispatcher(uc, c.Session(), log)
	return c, nil
}

func (c *Container) Session() input.Session {
	return input.Session{
		Launcher: c.Launcher,
		Store:    c.Store,
		Profile:  c.Profile,
	}
}

func (c *Container) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}

// OpenStore opens SQLite at path, or the in-process store for MemoryDB.
func OpenStore(path string) (output.TaskStore, error) {
	if path == "" || path == MemoryDB {
		return memory.New(), nil
	}
	return sqlite.Open(path)
}
