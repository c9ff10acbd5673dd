// Command orchestrator wires the file watcher, agent/workflow registries,
// model factory, workflow engine, job manager and dispatcher together and
// runs until terminated.
//
// Usage:
//
//	orchestrator serve --base-path <dir>   # watch BASE and run until signaled
//	orchestrator submit --base-path <dir> <workflowId> <input>
//	orchestrator version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sgr-genai/orchestrator/config"
	"github.com/sgr-genai/orchestrator/discovery"
	"github.com/sgr-genai/orchestrator/dispatch"
	"github.com/sgr-genai/orchestrator/internal/api"
	"github.com/sgr-genai/orchestrator/internal/metrics"
	"github.com/sgr-genai/orchestrator/internal/pool"
	"github.com/sgr-genai/orchestrator/internal/telemetry"
	"github.com/sgr-genai/orchestrator/job"
	"github.com/sgr-genai/orchestrator/llm/factory"
	"github.com/sgr-genai/orchestrator/registry"
	"github.com/sgr-genai/orchestrator/workflow"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "submit":
		runSubmit(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

type runtime struct {
	logger     *zap.Logger
	agents     *registry.AgentRegistry
	engine     *workflow.Engine
	dispatcher *dispatch.Dispatcher
	api        *api.API
	watcher    *config.FileWatcher
}

func bootstrap(basePath string, logger *zap.Logger) (*runtime, error) {
	agentsDir := filepath.Join(basePath, "agents")
	workflowsDir := filepath.Join(basePath, "workflows")

	collector := metrics.NewCollector("orchestrator", logger)

	agents := registry.NewAgentRegistry(agentsDir, collector, logger)
	if err := agents.LoadAll(); err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}

	models := factory.New(factory.EnvCredentials{}, logger)
	engine := workflow.NewEngine(agents, models, collector, logger)
	if err := engine.LoadDir(workflowsDir); err != nil {
		return nil, fmt.Errorf("load workflows: %w", err)
	}

	watcher, err := config.NewFileWatcher(basePath, config.DefaultWatchExtensions,
		config.WithWatcherLogger(logger),
		config.WithDebounceDelay(config.DefaultDebounceDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	watcher.OnChange(func(evt config.FileEvent) {
		switch {
		case underDir(evt.Path, agentsDir):
			agents.HandleFileEvent(evt)
		case underDir(evt.Path, workflowsDir):
			engine.HandleFileEvent(evt)
		}
	})

	jobs := job.NewManager()
	workerPool := pool.NewGoroutinePool(pool.DefaultGoroutinePoolConfig())
	dispatcher := dispatch.New(workerPool, jobs, engine, collector, logger)
	disco := discovery.New(agents, engine)
	apiSurface := api.New(dispatcher, disco)

	return &runtime{
		logger:     logger,
		agents:     agents,
		engine:     engine,
		dispatcher: dispatcher,
		api:        apiSurface,
		watcher:    watcher,
	}, nil
}

func underDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	basePath := fs.String("base-path", "", "Path to the BASE config directory (genai.base-path)")
	fs.Parse(args)

	if *basePath == "" {
		fmt.Fprintln(os.Stderr, "serve: --base-path is required")
		os.Exit(1)
	}

	logger := initLogger()
	defer logger.Sync()

	logger.Info("starting orchestrator", zap.String("version", Version), zap.String("basePath", *basePath))

	providers, err := telemetry.Init(telemetry.Config{Enabled: false, ServiceName: "orchestrator"}, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer providers.Shutdown(context.Background())

	rt, err := bootstrap(*basePath, logger)
	if err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.watcher.Start(ctx); err != nil {
		logger.Fatal("failed to start watcher", zap.Error(err))
	}

	logger.Info("orchestrator running, waiting for shutdown signal")
	<-ctx.Done()

	_ = rt.watcher.Stop()
	logger.Info("orchestrator stopped")
}

// runSubmit is a smoke-testing entrypoint: bootstrap, submit one workflow
// run, poll until it reaches a terminal status, print the result.
func runSubmit(args []string) {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	basePath := fs.String("base-path", "", "Path to the BASE config directory")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: orchestrator submit --base-path <dir> <workflowId> <input>")
		os.Exit(1)
	}
	workflowID, input := fs.Arg(0), fs.Arg(1)

	logger := initLogger()
	defer logger.Sync()

	rt, err := bootstrap(*basePath, logger)
	if err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}

	resp, err := rt.api.Submit(workflowID, input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "submit failed: %v\n", err)
		os.Exit(1)
	}

	for {
		status := rt.api.Status(resp.JobID)
		if status.Status == string(job.StatusCompleted) || status.Status == string(job.StatusFailed) {
			fmt.Printf("%s: %s\n", status.Status, status.Result)
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func printVersion() {
	fmt.Printf("orchestrator %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`orchestrator - LM workflow orchestration engine

Usage:
  orchestrator <command> [options]

Commands:
  serve     Watch BASE and keep the registries/engine running
  submit    Submit one workflow run and print its terminal result
  version   Show version information
  help      Show this help message

Options for 'serve' and 'submit':
  --base-path <dir>   Path to the BASE config directory (agents/, workflows/)

Examples:
  orchestrator serve --base-path ./config
  orchestrator submit --base-path ./config support-router "my question"`)
}

func initLogger() *zap.Logger {
	format := os.Getenv("ORCHESTRATOR_LOG_FORMAT")
	if format == "" {
		format = "json"
	}

	var encoderConfig zapcore.EncoderConfig
	if format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.InfoLevel),
		Development:      format == "console",
		Encoding:         format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(zap.AddCaller())
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
