package components

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"strconv"

	"github.com/client-account-ledger/internal/domain/account"
)

var summaryHeader = []string{"client", "available", "held", "total", "locked"}

// CSVSummaryEmitter renders account summaries with four fractional digits
type CSVSummaryEmitter struct{}

func NewSummaryEmitter() *CSVSummaryEmitter {
	return &CSVSummaryEmitter{}
}

// Emit writes the header and one row per summary, in iteration order
func (e *CSVSummaryEmitter) Emit(w io.Writer, summaries iter.Seq[account.Summary]) (int, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write(summaryHeader); err != nil {
		return 0, fmt.Errorf("failed to write summary header: %w", err)
	}

	count := 0
	row := make([]string, len(summaryHeader))
	for s := range summaries {
		row[0] = strconv.FormatUint(uint64(s.ClientID), 10)
		row[1] = s.Available.String()
		row[2] = s.Held.String()
		row[3] = (s.Available + s.Held).String()
		row[4] = strconv.FormatBool(s.Locked)
		if err := writer.Write(row); err != nil {
			return count, fmt.Errorf("failed to write summary for client %d: %w", s.ClientID, err)
		}
		count++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return count, fmt.Errorf("failed to flush summaries: %w", err)
	}
	return count, nil
}
