package service

import (
	"context"
	"io"
	"iter"

	"github.com/client-account-ledger/internal/domain/account"
	"github.com/client-account-ledger/internal/domain/journal"
	"github.com/client-account-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// ProcessingService drives one input source through a fresh ledger.
type ProcessingService interface {
	ProcessSource(ctx context.Context, src Source, out io.Writer) (*RunReport, error)
}

// Source is a named, readable transaction log
type Source struct {
	Name   string
	Reader io.Reader
}

// ParsedRow carries either a record or the error that prevented it.
// Err is a *shared.RowError for a rejected row or a *shared.SourceError that ends the sequence.
type ParsedRow struct {
	Record *shared.TransactionRecord
	Err    error
}

// RecordParser turns raw input into a lazy sequence of parsed rows
type RecordParser interface {
	Records(name string, r io.Reader) iter.Seq[ParsedRow]
}

// SummaryEmitter writes final account summaries and returns the number of accounts written
type SummaryEmitter interface {
	Emit(w io.Writer, summaries iter.Seq[account.Summary]) (int, error)
}

// Rejection describes a row the parser refused or a record the ledger ignored
type Rejection struct {
	RunID  uuid.UUID                 `json:"run_id"`
	Source string                    `json:"source"`
	Line   int                       `json:"line"`
	Stage  RejectionStage            `json:"stage"`
	Reason string                    `json:"reason"`
	Detail string                    `json:"detail,omitempty"`
	Record *shared.TransactionRecord `json:"record,omitempty"`
}

// RejectionStage tells where in the pipeline a record was refused
type RejectionStage string

const (
	RejectionStageParse  RejectionStage = "parse"
	RejectionStageLedger RejectionStage = "ledger"
)

// RejectionRecorder collects the rejections of a run. Flush is called once the run has
// consumed its whole source; Discard when the source turned out unreadable.
type RejectionRecorder interface {
	RecordRejection(ctx context.Context, rejection *Rejection) error
	Flush(ctx context.Context, runID uuid.UUID) error
	Discard(runID uuid.UUID)
}

// CompletedRun is what exporters receive after the report has been written
type CompletedRun struct {
	RunID     uuid.UUID
	Source    string
	Summaries []account.Summary
	Entries   iter.Seq[*journal.Entry]
}

// RunExporter ships the results of a completed run to an external store
type RunExporter interface {
	Name() string
	Export(ctx context.Context, run *CompletedRun) error
}
