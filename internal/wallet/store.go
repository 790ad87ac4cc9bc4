package wallet

import "context"

// Store is the persistence boundary for wallets and their ledger.
//
// Credit and Debit are the only balance mutations. Each locks the wallet row
// for the duration of the read-compute-write and records exactly one ledger
// entry in the same atomic unit. Neither has cross-wallet effects; the
// two-wallet transfer lives in the escrow package.
type Store interface {
	// GetOrCreate returns the user's wallet, creating it with balance 0 on
	// first access.
	GetOrCreate(ctx context.Context, userID string) (Wallet, error)

	// Credit increases the balance by amount (> 0) and appends one ledger
	// entry. Returns the updated wallet and the entry.
	Credit(ctx context.Context, userID string, amount int64, kind Kind, description string, ref Ref) (Wallet, Transaction, error)

	// Debit decreases the balance by amount (> 0), failing with
	// fault.KindInsufficientFunds if amount exceeds the available balance.
	// The ledger entry carries a negative amount.
	Debit(ctx context.Context, userID string, amount int64, kind Kind, description string, ref Ref) (Wallet, Transaction, error)

	// Transactions lists a wallet's ledger entries, newest first. The ledger
	// is append-only; no mutation or deletion surface exists.
	Transactions(ctx context.Context, walletID string) ([]Transaction, error)
}

// PaymentMethods is the read-only registry of withdrawal destinations,
// owned by the account layer outside this core.
type PaymentMethods interface {
	// Exists reports whether the payment method belongs to the user.
	Exists(ctx context.Context, userID, methodID string) (bool, error)
}
