package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tjfontaine/drydock/internal/artifact"
	"github.com/tjfontaine/drydock/internal/lint"
	"github.com/tjfontaine/drydock/internal/pkg/config"
	"github.com/tjfontaine/drydock/internal/stage"
	"github.com/tjfontaine/drydock/internal/storage/memory"
	"github.com/tjfontaine/drydock/internal/storage/sqlite"
	"github.com/tjfontaine/drydock/internal/telemetry"
	"github.com/tjfontaine/drydock/pkg/drydock"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to config file (default drydock.yaml if present)")
	checkOnly := flag.Bool("check", false, "run static checks only and print violations")
	checkFormat := flag.String("format", "text", "violation output for -check: text or json")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("drydock", version, logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *checkOnly {
		os.Exit(runChecks(cfg, *checkFormat))
	}

	backoff, err := cfg.Probe.BackoffDuration()
	if err != nil {
		log.Fatalf("Invalid probe config: %v", err)
	}

	static, err := stage.NewStatic(cfg.Build.Root, lint.Config{
		RuleSet:       lint.RuleSet(cfg.Checks.RuleSet),
		MaxLineLength: cfg.Checks.MaxLineLength,
		Extensions:    cfg.Checks.Extensions,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to configure static checks: %v", err)
	}

	probe := stage.DefaultProbe()
	probe.Attempts = cfg.Probe.Attempts
	probe.Backoff = backoff

	system := stage.NewSystem(stage.NewDockerLauncher(nil, cfg.Server.Host, logger), probe, nil, logger)
	system.SetRequired(cfg.System.Required)

	opts := []drydock.Option{
		drydock.WithLogger(logger),
		drydock.WithBuilder(artifact.NewDockerBuilder(nil, logger)),
		drydock.WithRunner(static),
		drydock.WithRunner(stage.NewUnit(stage.DefaultUnitCases())),
		drydock.WithRunner(stage.NewIntegration(nil, logger)),
		drydock.WithRunner(system),
	}

	switch cfg.Storage.Type {
	case "sqlite":
		store, err := sqlite.New(cfg.Storage.SQLite.Path)
		if err != nil {
			log.Fatalf("Failed to open run history store: %v", err)
		}
		defer store.Close()
		opts = append(opts, drydock.WithStore(store))
	case "memory":
		opts = append(opts, drydock.WithStore(memory.New()))
	}

	eng := drydock.New(opts...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report, err := eng.Verify(ctx, drydock.Source{
		Root:       cfg.Build.Root,
		Descriptor: cfg.Build.Descriptor,
		Tag:        cfg.Build.Tag,
		Port:       cfg.Server.Port,
	})
	if err != nil {
		if report == nil {
			log.Fatalf("Run aborted: %v", err)
		}
		// The run finished; only persistence failed.
		logger.Error("run completed but was not persisted", slog.String("error", err.Error()))
	}

	drydock.WriteSummary(os.Stdout, report)
	if report.Verdict != drydock.VerdictPassed {
		os.Exit(1)
	}
}

// runChecks runs the static checker alone and prints its violations in the
// requested format. Exit status 1 when any blocking violation is found.
func runChecks(cfg *config.Config, format string) int {
	var f lint.Format
	switch format {
	case "text":
		f = lint.FormatText
	case "json":
		f = lint.FormatJSON
	default:
		log.Fatalf("Unknown output format %q (want text or json)", format)
	}

	checker, err := lint.NewChecker(lint.Config{
		RuleSet:       lint.RuleSet(cfg.Checks.RuleSet),
		MaxLineLength: cfg.Checks.MaxLineLength,
		Extensions:    cfg.Checks.Extensions,
	})
	if err != nil {
		log.Fatalf("Failed to configure static checks: %v", err)
	}

	violations, err := checker.Check(cfg.Build.Root)
	if err != nil {
		log.Fatalf("Static checks failed: %v", err)
	}
	if err := lint.NewReporter(os.Stdout, f).Report(violations); err != nil {
		log.Fatalf("Failed to write violations: %v", err)
	}
	if len(lint.Blocking(violations)) > 0 {
		return 1
	}
	return 0
}
