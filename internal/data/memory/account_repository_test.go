package memory

import (
	"testing"

	"github.com/client-account-ledger/internal/domain/account"
	"github.com/client-account-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_GetOrCreate(t *testing.T) {
	repo := NewAccountRepository()

	acc := repo.GetOrCreate(4)
	require.NotNil(t, acc)
	require.NoError(t, acc.Deposit(10000))

	same := repo.GetOrCreate(4)
	assert.Same(t, acc, same)
	assert.Equal(t, shared.Amount(10000), same.Available)
	assert.Equal(t, 1, repo.Len())
}

func TestAccountRepository_Get(t *testing.T) {
	repo := NewAccountRepository()

	_, err := repo.Get(1)
	assert.ErrorIs(t, err, account.ErrAccountNotFound{})

	created := repo.GetOrCreate(1)
	got, err := repo.Get(1)
	require.NoError(t, err)
	assert.Same(t, created, got)
}

func TestAccountRepository_AllKeepsFirstAppearanceOrder(t *testing.T) {
	repo := NewAccountRepository()
	for _, id := range []shared.ClientID{3, 1, 2, 1, 3} {
		repo.GetOrCreate(id)
	}

	var ids []shared.ClientID
	for acc := range repo.All() {
		ids = append(ids, acc.ClientID)
	}
	assert.Equal(t, []shared.ClientID{3, 1, 2}, ids)
}
