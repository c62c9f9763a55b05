package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/client-account-ledger/internal/data/memory"
	"github.com/client-account-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// RunReport counts what happened to the rows of one source
type RunReport struct {
	RunID    uuid.UUID
	Source   string
	Rows     int
	Applied  int
	Rejected map[shared.RejectionReason]int
	Ignored  map[shared.IgnoreReason]int
	Accounts int
}

func newRunReport(runID uuid.UUID, source string) *RunReport {
	return &RunReport{
		RunID:    runID,
		Source:   source,
		Rejected: make(map[shared.RejectionReason]int),
		Ignored:  make(map[shared.IgnoreReason]int),
	}
}

func (r *RunReport) RejectedTotal() int {
	total := 0
	for _, n := range r.Rejected {
		total += n
	}
	return total
}

func (r *RunReport) IgnoredTotal() int {
	total := 0
	for _, n := range r.Ignored {
		total += n
	}
	return total
}

type ProcessingServiceImpl struct {
	parser    RecordParser
	emitter   SummaryEmitter
	recorder  RejectionRecorder
	exporters []RunExporter
	policy    WithdrawalDisputePolicy
	logger    *slog.Logger
}

func NewProcessingService(
	parser RecordParser,
	emitter SummaryEmitter,
	recorder RejectionRecorder,
	exporters []RunExporter,
	policy WithdrawalDisputePolicy,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		parser:    parser,
		emitter:   emitter,
		recorder:  recorder,
		exporters: exporters,
		policy:    policy,
		logger:    logger,
	}
}

// ProcessSource runs src through a fresh ledger and writes the account summaries to out.
// Nothing is written when the source cannot be read to its end. Exporter failures are
// returned together with the report, after out has been written.
func (s *ProcessingServiceImpl) ProcessSource(ctx context.Context, src Source, out io.Writer) (*RunReport, error) {
	runID := uuid.New()
	logger := s.logger.With("run_id", runID.String(), "source", src.Name)
	logger.Info("Processing source", "withdrawal_dispute_policy", s.policy)

	engine := NewLedgerEngine(memory.NewAccountRepository(), memory.NewJournalRepository(), s.policy)
	report := newRunReport(runID, src.Name)

	for row := range s.parser.Records(src.Name, src.Reader) {
		if err := ctx.Err(); err != nil {
			s.recorder.Discard(runID)
			return nil, fmt.Errorf("processing of %s interrupted: %w", src.Name, err)
		}

		if row.Err != nil {
			var rowErr *shared.RowError
			if !errors.As(row.Err, &rowErr) {
				logger.Error("Source unreadable, discarding run", "error", row.Err)
				s.recorder.Discard(runID)
				return nil, row.Err
			}
			report.Rows++
			report.Rejected[rowErr.Reason]++
			s.reject(ctx, logger, &Rejection{
				RunID:  runID,
				Source: src.Name,
				Line:   rowErr.Line,
				Stage:  RejectionStageParse,
				Reason: string(rowErr.Reason),
				Detail: rowErr.Error(),
			})
			continue
		}

		report.Rows++
		outcome := engine.Apply(row.Record)
		if outcome.IsApplied() {
			report.Applied++
			continue
		}
		report.Ignored[outcome.Reason]++
		s.reject(ctx, logger, &Rejection{
			RunID:  runID,
			Source: src.Name,
			Line:   row.Record.Line,
			Stage:  RejectionStageLedger,
			Reason: string(outcome.Reason),
			Record: row.Record,
		})
	}

	accounts, err := s.emitter.Emit(out, engine.Accounts())
	if err != nil {
		s.recorder.Discard(runID)
		return nil, fmt.Errorf("failed to write summaries for %s: %w", src.Name, err)
	}
	report.Accounts = accounts

	logger.Info("Source processed",
		"rows", report.Rows,
		"applied", report.Applied,
		"rejected", report.RejectedTotal(),
		"ignored", report.IgnoredTotal(),
		"accounts", report.Accounts,
	)

	return report, s.export(ctx, logger, engine, report)
}

// export ships dead letters and runs every exporter, collecting their failures
func (s *ProcessingServiceImpl) export(ctx context.Context, logger *slog.Logger, engine *LedgerEngine, report *RunReport) error {
	var errs []error

	if err := s.recorder.Flush(ctx, report.RunID); err != nil {
		logger.Error("Failed to flush rejections", "error", err)
		errs = append(errs, fmt.Errorf("dead-letter publishing: %w", err))
	}

	if len(s.exporters) == 0 {
		return errors.Join(errs...)
	}

	run := &CompletedRun{
		RunID:     report.RunID,
		Source:    report.Source,
		Summaries: slices.Collect(engine.Accounts()),
		Entries:   engine.Entries(),
	}
	for _, exporter := range s.exporters {
		if err := exporter.Export(ctx, run); err != nil {
			logger.Error("Export failed", "exporter", exporter.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s export: %w", exporter.Name(), err))
			continue
		}
		logger.Info("Export completed", "exporter", exporter.Name())
	}

	return errors.Join(errs...)
}

func (s *ProcessingServiceImpl) reject(ctx context.Context, logger *slog.Logger, rejection *Rejection) {
	if err := s.recorder.RecordRejection(ctx, rejection); err != nil {
		logger.Warn("Failed to record rejection", "line", rejection.Line, "reason", rejection.Reason, "error", err)
	}
}
