// Package memory provides in-process implementations of the domain repositories.
// They back a single run and are not safe for concurrent use.
package memory

import (
	"iter"

	"github.com/client-account-ledger/internal/domain/journal"
	"github.com/client-account-ledger/internal/domain/shared"
)

// JournalRepository implements the journal.Repository interface with an ordered map
type JournalRepository struct {
	entries map[shared.TxID]*journal.Entry
	order   []shared.TxID
}

// NewJournalRepository creates an empty journal
func NewJournalRepository() *JournalRepository {
	return &JournalRepository{
		entries: make(map[shared.TxID]*journal.Entry),
	}
}

// Record stores a new entry. Transaction ids are unique across the whole journal.
func (r *JournalRepository) Record(entry *journal.Entry) error {
	if _, exists := r.entries[entry.TxID]; exists {
		return journal.ErrDuplicateEntry{TxID: entry.TxID}
	}
	stored := *entry
	r.entries[entry.TxID] = &stored
	r.order = append(r.order, entry.TxID)
	return nil
}

// Get returns a copy of the entry; callers change state only through SetState
func (r *JournalRepository) Get(txID shared.TxID) (*journal.Entry, error) {
	entry, ok := r.entries[txID]
	if !ok {
		return nil, journal.ErrEntryNotFound{TxID: txID}
	}
	cp := *entry
	return &cp, nil
}

// SetState moves an entry along its dispute lifecycle
func (r *JournalRepository) SetState(txID shared.TxID, state journal.State) error {
	entry, ok := r.entries[txID]
	if !ok {
		return journal.ErrEntryNotFound{TxID: txID}
	}
	if !entry.CanTransition(state) {
		return journal.ErrInvalidTransition
	}
	entry.State = state
	return nil
}

// All yields copies of the entries in the order they were recorded
func (r *JournalRepository) All() iter.Seq[*journal.Entry] {
	return func(yield func(*journal.Entry) bool) {
		for _, txID := range r.order {
			cp := *r.entries[txID]
			if !yield(&cp) {
				return
			}
		}
	}
}

func (r *JournalRepository) Len() int {
	return len(r.order)
}
