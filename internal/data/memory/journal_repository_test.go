package memory

import (
	"testing"

	"github.com/client-account-ledger/internal/domain/journal"
	"github.com/client-account-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(t *testing.T, record *shared.TransactionRecord) *journal.Entry {
	t.Helper()
	entry, err := journal.NewEntry(record)
	require.NoError(t, err)
	return entry
}

func TestJournalRepository_Record(t *testing.T) {
	repo := NewJournalRepository()

	require.NoError(t, repo.Record(newEntry(t, shared.NewDeposit(1, 1, 10000))))
	require.NoError(t, repo.Record(newEntry(t, shared.NewWithdrawal(2, 2, 5000))))
	assert.Equal(t, 2, repo.Len())

	t.Run("DuplicateAcrossClients", func(t *testing.T) {
		err := repo.Record(newEntry(t, shared.NewDeposit(9, 1, 1)))
		assert.ErrorIs(t, err, journal.ErrDuplicateEntry{})
		assert.Equal(t, 2, repo.Len())

		stored, err := repo.Get(1)
		require.NoError(t, err)
		assert.Equal(t, shared.ClientID(1), stored.ClientID, "Original entry should be kept")
	})
}

func TestJournalRepository_Get(t *testing.T) {
	repo := NewJournalRepository()
	require.NoError(t, repo.Record(newEntry(t, shared.NewDeposit(1, 5, 10000))))

	t.Run("Found", func(t *testing.T) {
		entry, err := repo.Get(5)
		require.NoError(t, err)
		assert.Equal(t, journal.StateClean, entry.State)

		entry.State = journal.StateChargedBack
		again, err := repo.Get(5)
		require.NoError(t, err)
		assert.Equal(t, journal.StateClean, again.State, "Mutating a returned entry must not affect the journal")
	})

	t.Run("NotFound", func(t *testing.T) {
		entry, err := repo.Get(6)
		assert.Nil(t, entry)
		assert.ErrorIs(t, err, journal.ErrEntryNotFound{})
	})
}

func TestJournalRepository_SetState(t *testing.T) {
	repo := NewJournalRepository()
	require.NoError(t, repo.Record(newEntry(t, shared.NewDeposit(1, 5, 10000))))

	require.NoError(t, repo.SetState(5, journal.StateDisputed))
	require.NoError(t, repo.SetState(5, journal.StateChargedBack))

	assert.ErrorIs(t, repo.SetState(5, journal.StateClean), journal.ErrInvalidTransition)
	assert.ErrorIs(t, repo.SetState(6, journal.StateDisputed), journal.ErrEntryNotFound{})

	entry, err := repo.Get(5)
	require.NoError(t, err)
	assert.Equal(t, journal.StateChargedBack, entry.State)
}

func TestJournalRepository_All(t *testing.T) {
	repo := NewJournalRepository()
	for _, txID := range []shared.TxID{30, 10, 20} {
		require.NoError(t, repo.Record(newEntry(t, shared.NewDeposit(1, txID, 100))))
	}

	var ids []shared.TxID
	for entry := range repo.All() {
		ids = append(ids, entry.TxID)
	}
	assert.Equal(t, []shared.TxID{30, 10, 20}, ids)

	seen := 0
	for range repo.All() {
		seen++
		break
	}
	assert.Equal(t, 1, seen, "Iteration should stop early")
}
