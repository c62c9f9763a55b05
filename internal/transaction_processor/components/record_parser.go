package components

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/client-account-ledger/internal/domain/shared"
	"github.com/client-account-ledger/internal/transaction_processor/service"
)

const (
	headerFirstField = "type"
	byteOrderMark    = "\ufeff"
)

var errInvalidUTF8 = errors.New("input is not valid UTF-8")

// CSVRecordParser reads `type, client, tx, amount` rows. It holds no state between calls.
type CSVRecordParser struct{}

func NewRecordParser() *CSVRecordParser {
	return &CSVRecordParser{}
}

// Records yields one ParsedRow per data row of r. A leading header row is skipped.
// The sequence ends early, after yielding a *shared.SourceError, when r cannot be read.
func (p *CSVRecordParser) Records(name string, r io.Reader) iter.Seq[service.ParsedRow] {
	return func(yield func(service.ParsedRow) bool) {
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		reader.ReuseRecord = true

		first := true
		lastLine := 0
		for {
			fields, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}

			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				lastLine = parseErr.StartLine
				first = false
				row := service.ParsedRow{Err: &shared.RowError{
					Line:   parseErr.StartLine,
					Reason: shared.RejectionReasonMalformedRow,
					Err:    parseErr.Err,
				}}
				if !yield(row) {
					return
				}
				continue
			}
			if err != nil {
				yield(service.ParsedRow{Err: &shared.SourceError{Source: name, Line: lastLine, Err: err}})
				return
			}

			line, _ := reader.FieldPos(0)
			lastLine = line
			if !validUTF8(fields) {
				yield(service.ParsedRow{Err: &shared.SourceError{Source: name, Line: line, Err: errInvalidUTF8}})
				return
			}

			if first {
				first = false
				fields[0] = strings.TrimPrefix(fields[0], byteOrderMark)
				if isHeader(fields) {
					continue
				}
			}

			record, err := p.ParseRow(line, fields)
			if !yield(service.ParsedRow{Record: record, Err: err}) {
				return
			}
		}
	}
}

// ParseRow converts the fields of one row into a record or a *shared.RowError
func (p *CSVRecordParser) ParseRow(line int, fields []string) (*shared.TransactionRecord, error) {
	if len(fields) < 3 || len(fields) > 4 {
		return nil, rowError(line, shared.RejectionReasonWrongColumnCount,
			fmt.Errorf("got %d columns, want 3 or 4", len(fields)))
	}

	kind, err := shared.ParseTransactionKind(fields[0])
	if err != nil {
		return nil, rowError(line, shared.RejectionReasonUnknownKind, err)
	}

	client, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 16)
	if err != nil {
		return nil, rowError(line, shared.RejectionReasonInvalidClientID, err)
	}

	tx, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 32)
	if err != nil {
		return nil, rowError(line, shared.RejectionReasonInvalidTransactionID, err)
	}

	record := &shared.TransactionRecord{
		Kind:     kind,
		ClientID: shared.ClientID(client),
		TxID:     shared.TxID(tx),
		Line:     line,
	}

	amountField := ""
	if len(fields) == 4 {
		amountField = strings.TrimSpace(fields[3])
	}

	if !kind.MovesFunds() {
		if amountField != "" {
			return nil, rowError(line, shared.RejectionReasonUnexpectedAmount,
				fmt.Errorf("%s takes no amount, got %q", kind, amountField))
		}
		return record, nil
	}

	if amountField == "" {
		return nil, rowError(line, shared.RejectionReasonMissingAmount, fmt.Errorf("%s requires an amount", kind))
	}
	amount, err := shared.ParseAmount(amountField)
	if err != nil {
		return nil, rowError(line, amountRejection(err), err)
	}
	record.Amount = amount
	return record, nil
}

func amountRejection(err error) shared.RejectionReason {
	switch {
	case errors.Is(err, shared.ErrNegativeAmount):
		return shared.RejectionReasonNegativeAmount
	case errors.Is(err, shared.ErrTooManyDecimalPlaces):
		return shared.RejectionReasonTooManyDecimalPlaces
	case errors.Is(err, shared.ErrAmountOutOfRange):
		return shared.RejectionReasonAmountOutOfRange
	default:
		return shared.RejectionReasonInvalidAmount
	}
}

func rowError(line int, reason shared.RejectionReason, err error) *shared.RowError {
	return &shared.RowError{Line: line, Reason: reason, Err: err}
}

func isHeader(fields []string) bool {
	return strings.EqualFold(strings.TrimSpace(fields[0]), headerFirstField)
}

func validUTF8(fields []string) bool {
	for _, f := range fields {
		if !utf8.ValidString(f) {
			return false
		}
	}
	return true
}
