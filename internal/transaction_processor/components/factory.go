package components

import (
	"fmt"
	"log/slog"

	"github.com/client-account-ledger/internal/config"
	"github.com/client-account-ledger/internal/domain/account"
	"github.com/client-account-ledger/internal/domain/journal"
	"github.com/client-account-ledger/internal/platform/messaging/producers"
	"github.com/client-account-ledger/internal/transaction_processor/service"
)

// Dependencies holds the optional external stores. A nil field disables that export.
type Dependencies struct {
	DeadLetters producers.DeadLetterPublisher
	Summaries   account.SummaryStore
	Journal     journal.Archive
}

// Exporters builds the run exporters for every configured store, in a fixed order
func (d Dependencies) Exporters(logger *slog.Logger) []service.RunExporter {
	var exporters []service.RunExporter
	if d.Summaries != nil {
		exporters = append(exporters, NewSummaryExporter(d.Summaries, logger.With("component", "summary_exporter")))
	}
	if d.Journal != nil {
		exporters = append(exporters, NewJournalExporter(d.Journal, logger.With("component", "journal_exporter")))
	}
	return exporters
}

// CreateProcessingService creates the worker pool processing service with all its dependencies.
func CreateProcessingService(
	deps Dependencies,
	logger *slog.Logger,
	cfg *config.Config,
) (*service.WorkerPoolProcessingService, error) {
	policy, err := service.ParseWithdrawalDisputePolicy(cfg.Ledger.WithdrawalDisputePolicy)
	if err != nil {
		return nil, err
	}

	parser := NewRecordParser()
	emitter := NewSummaryEmitter()
	recorder := NewRejectionRecorder(deps.DeadLetters, logger.With("component", "rejection_recorder"))

	baseService := service.NewProcessingService(
		parser,
		emitter,
		recorder,
		deps.Exporters(logger),
		policy,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	logger.Info("Created worker pool processing service",
		"pool_size", cfg.WorkerPool.Size,
		"withdrawal_dispute_policy", policy,
	)
	return workerPoolService, nil
}
