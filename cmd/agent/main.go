package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/di"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/artifacts"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/env"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/userinteraction"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/usecase/planner"

	"github.com/spf13/cobra"
)

var errRunFailed = errors.New("workflow failed")

type runOptions struct {
	task     string
	appURL   string
	appName  string
	taskName string
	headless bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "uistate-agent",
		Short:         "Drive a web app through a task and capture a screenshot guide",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Plan and execute one task against a web app",
		Example: `  uistate-agent run --url https://linear.app --task "Create a project named Roadmap"
  echo "Filter issues by status" | uistate-agent run --url https://linear.app`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			envService := env.NewEnvService()
			if !cmd.Flags().Changed("headless") {
				opts.headless = envService.GetBool("BROWSER_HEADLESS", false)
			}
			err := run(cmd.Context(), envService, userinteraction.NewConsoleUserInteraction(), opts)
			if err != nil && !errors.Is(err, errRunFailed) {
				fmt.Fprintln(os.Stderr, "Error:", err)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.task, "task", "t", "", "natural-language task; read from stdin when empty")
	f.StringVarP(&opts.appURL, "url", "u", "", "URL of the web app (required)")
	f.StringVarP(&opts.appName, "app", "a", "", "app name used in artifact paths (default: from URL host)")
	f.StringVar(&opts.taskName, "task-name", "", "task name used in artifact paths (default: detected from task)")
	f.BoolVar(&opts.headless, "headless", false, "run the browser headless (default: $BROWSER_HEADLESS)")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func run(ctx context.Context, cfg output.ConfigPort, ui output.UserInteractionPort, opts runOptions) error {
	if opts.task == "" {
		task, err := ui.AskQuestion(ctx, "Describe the task for the agent:")
		if err != nil {
			return err
		}
		opts.task = task
	}
	if strings.TrimSpace(opts.task) == "" {
		return errors.New("task is empty")
	}

	req := taskRequest(opts)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.GetDuration("RUN_TIMEOUT", 30*time.Minute))
	defer cancel()

	container, err := di.NewContainer(containerConfig(cfg, opts, req.TaskName), ui)
	if err != nil {
		return fmt.Errorf("initialization: %w", err)
	}
	defer container.Close()

	container.Logger.Info("Task started",
		"task", req.TaskQuery,
		"url", req.AppURL,
		"app", req.AppName,
		"taskName", req.TaskName)

	result, err := container.Execute(ctx, req)
	ui.ShowResult(ctx, result)
	if err != nil {
		container.Logger.Error("Task failed", "error", err)
		return fmt.Errorf("%w: %w", errRunFailed, err)
	}

	container.Logger.Info("Task completed",
		"steps", result.StepsCompleted,
		"screenshots", len(result.Screenshots))
	return nil
}

func taskRequest(opts runOptions) entity.TaskRequest {
	appName := opts.appName
	if appName == "" {
		appName = appNameFromURL(opts.appURL)
	}
	taskName := opts.taskName
	if taskName == "" {
		taskName = planner.DetectWorkflowType(opts.task)
	}
	return entity.TaskRequest{
		TaskQuery: strings.TrimSpace(opts.task),
		AppURL:    opts.appURL,
		AppName:   artifacts.Slug(appName, "app"),
		TaskName:  artifacts.Slug(taskName, "task"),
	}
}

// appNameFromURL takes the first meaningful label of the host:
// https://www.linear.app/team -> linear.
func appNameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "app"
	}
	labels := strings.Split(u.Hostname(), ".")
	for _, l := range labels {
		if l != "www" && l != "app" && l != "" {
			return l
		}
	}
	return labels[0]
}

func containerConfig(cfg output.ConfigPort, opts runOptions, taskName string) di.Config {
	return di.Config{
		LLMProvider:       cfg.GetWithDefault("LLM_PROVIDER", di.ProviderOpenRouter),
		LLMAPIKey:         cfg.MustGet("OPENROUTER_API_KEY"),
		LLMModel:          cfg.GetWithDefault("OPENROUTER_MODEL_NAME", "openai/gpt-4o-mini"),
		LLMBaseURL:        cfg.Get("LLM_BASE_URL"),
		RequestsPerMinute: cfg.GetInt("LLM_REQUESTS_PER_MINUTE", 30),
		Temperature:       float32(cfg.GetFloat("LLM_TEMPERATURE", 0.2)),
		MaxTokens:         cfg.GetInt("LLM_MAX_TOKENS", 2000),

		BrowserHeadless:  opts.headless,
		BrowserNoSandbox: cfg.GetBool("BROWSER_NO_SANDBOX", false),
		BrowserTimeout:   cfg.GetDuration("BROWSER_TIMEOUT", 10*time.Second),
		BrowserStateFile: cfg.Get("BROWSER_STATE_FILE"),

		ScreenshotFormat:  cfg.GetWithDefault("SCREENSHOT_FORMAT", "png"),
		ScreenshotQuality: cfg.GetInt("SCREENSHOT_QUALITY", 90),

		DataDir:  cfg.GetWithDefault("DATA_DIR", "data"),
		LogDir:   cfg.GetWithDefault("LOG_DIR", "log"),
		LogLevel: cfg.GetWithDefault("LOG_LEVEL", "info"),
		TaskName: taskName,

		MaxSteps:      cfg.GetInt("MAX_STEPS", 50),
		ValidateEvery: cfg.GetInt("VALIDATE_EVERY", 3),
		LoginMaxWait:  cfg.GetDuration("LOGIN_MAX_WAIT", 300*time.Second),
		ContextSize:   cfg.GetInt("CONTEXT_STORE_SIZE", 512),
		ContextTTL:    cfg.GetDuration("CONTEXT_TTL", time.Hour),
	}
}
