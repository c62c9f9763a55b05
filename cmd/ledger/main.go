package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/client-account-ledger/internal/config"
	"github.com/client-account-ledger/internal/data/mongo"
	"github.com/client-account-ledger/internal/data/postgres"
	"github.com/client-account-ledger/internal/logger"
	"github.com/client-account-ledger/internal/platform/messaging/producers"
	"github.com/client-account-ledger/internal/platform/persistence"
	"github.com/client-account-ledger/internal/transaction_processor/components"
	"github.com/client-account-ledger/internal/transaction_processor/service"
	"github.com/spf13/pflag"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const usage = `Usage: ledger [flags] <transactions.csv> [more.csv ...]

Replays each transaction log and prints the final state of every client account.
A single source is reported on stdout; several sources need --output-dir.

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("ledger", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	sources := fs.Args()
	if len(sources) == 0 {
		fs.Usage()
		return exitUsage
	}

	configName, _ := fs.GetString("config")
	cfg, err := config.LoadConfig(configName, fs)
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitFailure
	}

	if len(sources) > 1 && cfg.Output.Dir == "" {
		fmt.Fprintln(stderr, "--output-dir is required when more than one source is given")
		return exitUsage
	}

	log := logger.NewLogger(cfg, stderr)
	log.Info("Starting ledger",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"sources", len(sources),
	)

	deps, closeDeps, err := initDependencies(ctx, log, cfg)
	if err != nil {
		log.Error("Failed to initialize exporters", "error", err)
		return exitFailure
	}
	defer closeDeps()

	processingService, err := components.CreateProcessingService(deps, log, cfg)
	if err != nil {
		log.Error("Failed to create processing service", "error", err)
		return exitFailure
	}
	defer processingService.Shutdown()

	if cfg.Output.Dir == "" {
		return runSingle(ctx, log, processingService, sources[0], stdout)
	}
	return runBatch(ctx, log, processingService, sources, cfg.Output.Dir, stderr)
}

// runSingle reports one source on stdout
func runSingle(ctx context.Context, log *slog.Logger, svc service.ProcessingService, path string, stdout io.Writer) int {
	in, err := os.Open(path)
	if err != nil {
		log.Error("Failed to open source", "source", path, "error", err)
		return exitFailure
	}
	defer in.Close()

	report, err := svc.ProcessSource(ctx, service.Source{Name: path, Reader: in}, stdout)
	if report == nil {
		log.Error("Source processing failed", "source", path, "error", err)
		return exitFailure
	}
	if err != nil {
		log.Error("Export failed", "source", path, "error", err)
		return exitFailure
	}
	return exitOK
}

// runBatch writes one report per source into outputDir
func runBatch(ctx context.Context, log *slog.Logger, svc *service.WorkerPoolProcessingService, sources []string, outputDir string, stderr io.Writer) int {
	jobs, err := buildJobs(sources, outputDir)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.Error("Failed to create output directory", "dir", outputDir, "error", err)
		return exitFailure
	}

	started := time.Now()
	results := svc.ProcessAll(ctx, jobs)
	failed := service.Failed(results)

	log.Info("Batch finished",
		"sources", len(results),
		"failed", len(failed),
		"duration", time.Since(started).String(),
	)
	if err := service.JoinErrors(results); err != nil {
		log.Error("Some sources failed", "error", err)
		return exitFailure
	}
	return exitOK
}

// buildJobs maps every source to <outputDir>/<basename>. Two sources with the same
// basename would overwrite each other, so that is refused.
func buildJobs(sources []string, outputDir string) ([]service.Job, error) {
	seen := make(map[string]string, len(sources))
	jobs := make([]service.Job, 0, len(sources))
	for _, src := range sources {
		base := filepath.Base(src)
		if prev, ok := seen[base]; ok {
			return nil, fmt.Errorf("sources %s and %s would both be written to %s", prev, src, base)
		}
		seen[base] = src
		jobs = append(jobs, service.Job{
			SourcePath: src,
			OutputPath: filepath.Join(outputDir, base),
		})
	}
	return jobs, nil
}

// initDependencies connects every configured external store. The returned
// function closes whatever was opened.
func initDependencies(ctx context.Context, log *slog.Logger, cfg *config.Config) (components.Dependencies, func(), error) {
	var deps components.Dependencies
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Kafka.Enabled() {
		dlqProducer, err := producers.NewDLQProducer(ctx, log, &cfg.Kafka)
		if err != nil {
			return deps, func() {}, fmt.Errorf("failed to initialize DLQ Kafka producer: %w", err)
		}
		if dlqProducer != nil {
			deps.DeadLetters = dlqProducer
			closers = append(closers, func() {
				if err := dlqProducer.Close(); err != nil {
					log.Error("Error closing DLQ Kafka producer", "error", err)
				}
			})
		}
	}

	if cfg.Postgres.Enabled() {
		postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
		if err != nil {
			closeAll()
			return deps, func() {}, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		deps.Summaries = postgres.NewSummaryRepository(log, postgresDB)
		closers = append(closers, postgresDB.Close)
	}

	if cfg.MongoDB.Enabled() {
		mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
		if err != nil {
			closeAll()
			return deps, func() {}, fmt.Errorf("failed to initialize MongoDB: %w", err)
		}
		deps.Journal = mongo.NewJournalRepository(log, mongoDB.Database())
		closers = append(closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
			defer cancel()
			if err := mongoDB.Close(shutdownCtx); err != nil {
				log.Error("Error closing MongoDB connection", "error", err)
			}
		})
	}

	return deps, closeAll, nil
}
