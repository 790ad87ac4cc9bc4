package wallet_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-init-do/lancepay/internal/fault"
	"github.com/sudo-init-do/lancepay/internal/storage/memory"
	"github.com/sudo-init-do/lancepay/internal/wallet"
)

func newService(t *testing.T) (*wallet.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return wallet.NewService(store, store, zap.NewNop()), store
}

// ledgerSum returns the signed sum of the wallet's transactions.
func ledgerSum(t *testing.T, store *memory.Store, walletID string) int64 {
	t.Helper()
	txs, err := store.Transactions(context.Background(), walletID)
	require.NoError(t, err)
	var sum int64
	for _, tx := range txs {
		sum += tx.Amount
	}
	return sum
}

func TestGetWallet_CreatesLazily(t *testing.T) {
	svc, _ := newService(t)

	st, err := svc.GetWallet(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", st.Wallet.UserID)
	assert.Zero(t, st.Wallet.Balance)
	assert.Empty(t, st.Transactions)
}

func TestRecharge(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	w, tx, err := svc.Recharge(ctx, "user-1", 100)
	require.NoError(t, err)
	assert.EqualValues(t, 100, w.Balance)
	assert.EqualValues(t, 100, tx.Amount)
	assert.Equal(t, wallet.KindDeposit, tx.Kind)

	st, err := svc.GetWallet(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, st.Transactions, 1)
	assert.Equal(t, w.Balance, ledgerSum(t, store, w.ID))
}

func TestRecharge_RejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newService(t)

	for _, amount := range []int64{0, -50} {
		_, _, err := svc.Recharge(context.Background(), "user-1", amount)
		assert.True(t, fault.Is(err, fault.KindValidation))
	}
}

func TestWithdraw(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	store.AddPaymentMethod("pm-1", "user-1")

	_, _, err := svc.Recharge(ctx, "user-1", 500)
	require.NoError(t, err)

	w, tx, err := svc.Withdraw(ctx, "user-1", 200, "pm-1")
	require.NoError(t, err)
	assert.EqualValues(t, 300, w.Balance)
	assert.EqualValues(t, -200, tx.Amount)
	assert.Equal(t, wallet.KindWithdraw, tx.Kind)
	assert.Equal(t, wallet.RefPaymentMethod, tx.ReferenceType)
	assert.Equal(t, "pm-1", tx.ReferenceID)
	assert.Equal(t, w.Balance, ledgerSum(t, store, w.ID))
}

func TestWithdraw_InsufficientFundsLeavesWalletUnchanged(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	store.AddPaymentMethod("pm-1", "user-1")

	_, _, err := svc.Recharge(ctx, "user-1", 100)
	require.NoError(t, err)

	_, _, err = svc.Withdraw(ctx, "user-1", 150, "pm-1")
	assert.True(t, fault.Is(err, fault.KindInsufficientFunds))

	st, err := svc.GetWallet(ctx, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 100, st.Wallet.Balance)
	assert.Len(t, st.Transactions, 1)
}

func TestWithdraw_UnknownPaymentMethod(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	store.AddPaymentMethod("pm-1", "someone-else")

	_, _, err := svc.Recharge(ctx, "user-1", 100)
	require.NoError(t, err)

	_, _, err = svc.Withdraw(ctx, "user-1", 50, "pm-1")
	assert.True(t, fault.Is(err, fault.KindNotFound))

	_, _, err = svc.Withdraw(ctx, "user-1", 50, "missing")
	assert.True(t, fault.Is(err, fault.KindNotFound))
}

func TestLedger_NewestFirstAndBalanced(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	store.AddPaymentMethod("pm-1", "user-1")

	_, _, err := svc.Recharge(ctx, "user-1", 300)
	require.NoError(t, err)
	_, _, err = svc.Withdraw(ctx, "user-1", 100, "pm-1")
	require.NoError(t, err)
	_, _, err = svc.Recharge(ctx, "user-1", 50)
	require.NoError(t, err)

	st, err := svc.GetWallet(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, st.Transactions, 3)
	assert.EqualValues(t, 50, st.Transactions[0].Amount)
	assert.EqualValues(t, -100, st.Transactions[1].Amount)
	assert.EqualValues(t, 300, st.Transactions[2].Amount)
	assert.EqualValues(t, 250, st.Wallet.Balance)
	assert.Equal(t, st.Wallet.Balance, ledgerSum(t, store, st.Wallet.ID))
}
