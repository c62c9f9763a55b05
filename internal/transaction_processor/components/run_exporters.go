package components

import (
	"context"
	"log/slog"

	"github.com/client-account-ledger/internal/domain/account"
	"github.com/client-account-ledger/internal/domain/journal"
	"github.com/client-account-ledger/internal/transaction_processor/service"
)

// SummaryExporter ships the final account summaries of a run to a SummaryStore
type SummaryExporter struct {
	store  account.SummaryStore
	logger *slog.Logger
}

func NewSummaryExporter(store account.SummaryStore, logger *slog.Logger) service.RunExporter {
	return &SummaryExporter{store: store, logger: logger}
}

func (e *SummaryExporter) Name() string {
	return "postgres_summaries"
}

func (e *SummaryExporter) Export(ctx context.Context, run *service.CompletedRun) error {
	if err := e.store.SaveSummaries(ctx, run.RunID, run.Source, run.Summaries); err != nil {
		return err
	}
	e.logger.DebugContext(ctx, "Summaries exported", "run_id", run.RunID.String(), "accounts", len(run.Summaries))
	return nil
}

// JournalExporter archives the journal of a run, dispute states included
type JournalExporter struct {
	archive journal.Archive
	logger  *slog.Logger
}

func NewJournalExporter(archive journal.Archive, logger *slog.Logger) service.RunExporter {
	return &JournalExporter{archive: archive, logger: logger}
}

func (e *JournalExporter) Name() string {
	return "mongo_journal"
}

func (e *JournalExporter) Export(ctx context.Context, run *service.CompletedRun) error {
	saved, err := e.archive.SaveEntries(ctx, run.RunID, run.Source, run.Entries)
	if err != nil {
		return err
	}
	e.logger.DebugContext(ctx, "Journal exported", "run_id", run.RunID.String(), "entries", saved)
	return nil
}
