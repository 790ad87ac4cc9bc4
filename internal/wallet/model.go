package wallet

import "time"

// Kind classifies a ledger entry.
type Kind string

const (
	KindDeposit       Kind = "deposit"
	KindWithdraw      Kind = "withdraw"
	KindEscrowRelease Kind = "escrow_release"
)

// Wallet holds one balance per user, in minor units (cents).
// Created lazily on first access; never deleted.
type Wallet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// Transaction is one immutable ledger entry. Amount is signed: positive for
// credits, negative for debits. A wallet's balance always equals the sum of
// its transaction amounts.
type Transaction struct {
	ID            string    `json:"id"`
	WalletID      string    `json:"wallet_id"`
	Amount        int64     `json:"amount"`
	Kind          Kind      `json:"kind"`
	Description   string    `json:"description"`
	ReferenceType string    `json:"reference_type,omitempty"`
	ReferenceID   string    `json:"reference_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Ref points a transaction at the entity that caused it, such as a milestone
// or a withdrawal destination. The zero value means no reference.
type Ref struct {
	Type string
	ID   string
}

const (
	RefMilestone     = "milestone"
	RefPaymentMethod = "payment_method"
)
