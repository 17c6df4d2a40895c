package di

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/input"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/artifacts"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/browser/rod"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/contextstore"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/llm/langchain"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/llm/openrouter"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/logger"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/usecase/auth"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/usecase/oracle"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/usecase/planner"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/usecase/validator"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/usecase/workflow"

	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderLangChain  = "langchain"
)

var _ input.TaskExecutor = (*Container)(nil)

// Container holds the process-wide services. Each Execute call gets its
// own browser.
type Container struct {
	Logger output.LoggerPort
	LLM    output.LLMPort
	Store  *contextstore.Store
	Layout artifacts.Layout
	UI     output.UserInteractionPort

	cfg        Config
	newBrowser func(context.Context, rod.BrowserConfig, output.LoggerPort) (*rod.BrowserAdapter, error)
}

type Config struct {
	LLMProvider       string
	LLMAPIKey         string
	LLMModel          string
	LLMBaseURL        string
	RequestsPerMinute int
	Temperature       float32
	MaxTokens         int

	BrowserHeadless  bool
	BrowserNoSandbox bool
	BrowserTimeout   time.Duration
	BrowserStateFile string

	ScreenshotFormat  string
	ScreenshotQuality int

	DataDir  string
	LogDir   string
	LogLevel string
	TaskName string

	MaxSteps      int
	ValidateEvery int
	LoginMaxWait  time.Duration
	ContextSize   int
	ContextTTL    time.Duration
}

func NewContainer(cfg Config, ui output.UserInteractionPort) (*Container, error) {
	logCfg := logger.DefaultConfig(cfg.TaskName)
	if cfg.LogDir != "" {
		logCfg.Dir = cfg.LogDir
	}
	if cfg.LogLevel != "" {
		logCfg.Level = cfg.LogLevel
	}
	log, err := logger.NewLoggerAdapter(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	llm, err := newLLM(cfg, log)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	store, err := contextstore.New(contextstore.Config{MaxSize: cfg.ContextSize, TTL: cfg.ContextTTL})
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create context store: %w", err)
	}

	return &Container{
		Logger: log,
		LLM:    llm,
		Store:  store,
		Layout: artifacts.NewLayout(cfg.DataDir),
		UI:     ui,

		cfg:        cfg,
		newBrowser: rod.NewBrowserAdapter,
	}, nil
}

func newLLM(cfg Config, log output.LoggerPort) (output.LLMPort, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "", ProviderOpenRouter:
		orCfg := openrouter.DefaultConfig(cfg.LLMAPIKey, cfg.LLMModel)
		if cfg.LLMBaseURL != "" {
			orCfg.BaseURL = cfg.LLMBaseURL
		}
		if cfg.RequestsPerMinute > 0 {
			orCfg.RequestsPerMinute = cfg.RequestsPerMinute
		}
		orCfg.Logger = log
		return openrouter.NewOpenRouterAdapter(orCfg), nil
	case ProviderLangChain:
		return langchain.NewAdapter(langchain.Config{
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
			BaseURL: cfg.LLMBaseURL,
			Logger:  log,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

// Execute launches a browser, runs req through the workflow and closes the
// browser. The result is never nil.
func (c *Container) Execute(ctx context.Context, req entity.TaskRequest) (*entity.WorkflowResult, error) {
	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = c.cfg.BrowserHeadless
	browserCfg.NoSandbox = c.cfg.BrowserNoSandbox
	browserCfg.StateFile = c.cfg.BrowserStateFile
	if c.cfg.BrowserTimeout > 0 {
		browserCfg.Timeout = c.cfg.BrowserTimeout
	}

	browser, err := c.newBrowser(ctx, browserCfg, c.Logger)
	if err != nil {
		err = fmt.Errorf("failed to create browser: %w", err)
		result := failedResult(err)
		result.RunID = c.saveLaunchFailure(req, err)
		return result, err
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			c.Logger.Warn("Browser close failed", "error", cerr)
		}
	}()

	return c.workflow(browser).Execute(ctx, req)
}

func (c *Container) workflow(browser *rod.BrowserAdapter) *workflow.Workflow {
	prober := rod.NewProber(browser, c.Logger)

	gate := auth.NewGate(browser, prober, auth.Config{MaxWait: c.cfg.LoginMaxWait}, c.Logger)
	if c.UI != nil {
		gate.WithNotifier(c.UI)
	}

	oracleCfg := oracle.DefaultConfig()
	if c.cfg.Temperature > 0 {
		oracleCfg.Temperature = c.cfg.Temperature
	}
	if c.cfg.MaxTokens > 0 {
		oracleCfg.MaxTokens = c.cfg.MaxTokens
	}
	ask := oracle.New(c.LLM, oracleCfg, c.Logger)

	wfCfg := workflow.DefaultConfig()
	if c.cfg.MaxSteps > 0 {
		wfCfg.MaxSteps = c.cfg.MaxSteps
	}
	if c.cfg.ValidateEvery > 0 {
		wfCfg.ValidateEvery = c.cfg.ValidateEvery
	}

	return workflow.New(workflow.Deps{
		Gate:      gate,
		Planner:   planner.New(ask, planner.DefaultConfig(), c.Logger),
		Executor:  rod.NewExecutor(browser, rod.DefaultExecutorConfig(), c.Logger),
		Prober:    prober,
		Shots:     rod.NewScreenshotter(browser, c.Layout, c.screenshotConfig(), c.Logger),
		Validator: validator.New(ask, c.Logger),
		Store:     c.Store,
		Metadata:  c.Layout,
		Logger:    c.Logger,
	}, wfCfg)
}

func (c *Container) screenshotConfig() rod.ScreenshotConfig {
	cfg := rod.DefaultScreenshotConfig()
	if strings.EqualFold(c.cfg.ScreenshotFormat, "jpeg") || strings.EqualFold(c.cfg.ScreenshotFormat, "jpg") {
		cfg.CaptureFormat = proto.PageCaptureScreenshotFormatJpeg
	}
	if c.cfg.ScreenshotQuality > 0 {
		cfg.Quality = c.cfg.ScreenshotQuality
	}
	return cfg
}

func (c *Container) Close() {
	if c.Logger != nil {
		c.Logger.Close()
	}
}

// saveLaunchFailure writes the audit record for a run that never got a
// browser. Write errors are logged and dropped.
func (c *Container) saveLaunchFailure(req entity.TaskRequest, err error) string {
	runID := uuid.NewString()
	meta := entity.WorkflowMetadata{
		RunID:               runID,
		TaskQuery:           req.TaskQuery,
		AppURL:              req.AppURL,
		AppName:             req.AppName,
		TaskName:            req.TaskName,
		Error:               err.Error(),
		Screenshots:         []string{},
		StepDescriptions:    []string{},
		RawStepDescriptions: []string{},
		ExecutionLog: []entity.ExecutionEvent{{
			Timestamp: time.Now(),
			Event:     "browser_launch_failed",
			Details:   map[string]any{"error": err.Error()},
			URL:       req.AppURL,
		}},
	}

	path, werr := c.Layout.WriteWorkflowMetadata(req.AppName, req.TaskName, meta)
	if werr != nil {
		c.Logger.Error("Failed to save workflow metadata", "error", werr)
		return runID
	}
	c.Logger.Info("Workflow metadata saved", "path", path)
	return runID
}

func failedResult(err error) *entity.WorkflowResult {
	return &entity.WorkflowResult{
		Screenshots:        []string{},
		ScreenshotMetadata: []entity.ScreenshotMeta{},
		StepDescriptions:   []string{},
		Error:              err.Error(),
	}
}
