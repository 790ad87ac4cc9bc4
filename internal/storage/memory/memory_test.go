package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/lancepay/internal/storage/memory"
	"github.com/sudo-init-do/lancepay/internal/wallet"
)

// The conservation invariant: after any sequence of commits, a wallet's
// balance equals the signed sum of its ledger. Exercised under concurrency.
func TestBalanceEqualsLedgerSumUnderConcurrency(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	_, _, err := store.Credit(ctx, "user-1", 10_000, wallet.KindDeposit, "seed", wallet.Ref{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = store.Credit(ctx, "user-1", 7, wallet.KindDeposit, "credit", wallet.Ref{})
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = store.Debit(ctx, "user-1", 3, wallet.KindWithdraw, "debit", wallet.Ref{})
		}()
	}
	wg.Wait()

	w, err := store.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	txs, err := store.Transactions(ctx, w.ID)
	require.NoError(t, err)

	var sum int64
	for _, tx := range txs {
		sum += tx.Amount
	}
	assert.Equal(t, w.Balance, sum)
	assert.GreaterOrEqual(t, w.Balance, int64(0))
}

func TestDebit_NeverOverdraws(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	_, _, err := store.Credit(ctx, "user-1", 100, wallet.KindDeposit, "seed", wallet.Ref{})
	require.NoError(t, err)

	// Many concurrent debits of 30 against a balance of 100: at most three
	// can succeed.
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := store.Debit(ctx, "user-1", 30, wallet.KindWithdraw, "debit", wallet.Ref{}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	w, err := store.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 10, w.Balance)
}
