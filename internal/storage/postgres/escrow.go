package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/lancepay/internal/escrow"
	"github.com/sudo-init-do/lancepay/internal/fault"
	"github.com/sudo-init-do/lancepay/internal/wallet"
)

// EscrowStore executes the milestone release. One transaction covers the
// milestone compare-and-set, the payer debit, the payee credit and both
// ledger entries, so either everything commits or nothing is observable.
type EscrowStore struct {
	pool    *pgxpool.Pool
	wallets *WalletStore
}

func NewEscrowStore(pool *pgxpool.Pool, wallets *WalletStore) *EscrowStore {
	return &EscrowStore{pool: pool, wallets: wallets}
}

func (s *EscrowStore) Release(ctx context.Context, req escrow.ReleaseRequest) (*escrow.Receipt, error) {
	// Wallet rows must exist before they can be locked. Creation is
	// idempotent and outside the money transaction.
	if _, err := s.wallets.GetOrCreate(ctx, req.PayerID); err != nil {
		return nil, err
	}
	if _, err := s.wallets.GetOrCreate(ctx, req.PayeeID); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "begin", err)
	}
	defer tx.Rollback(ctx)

	// The milestone guard comes first: a concurrent approval that already
	// won leaves zero rows here and the whole unit rolls back untouched.
	tag, err := tx.Exec(ctx,
		`UPDATE milestones
		 SET progress_status = 'completed', status = 'released', updated_at = NOW()
		 WHERE id = $1 AND progress_status = 'review' AND status = 'pending'`,
		req.MilestoneID)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "mark milestone released", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fault.New(fault.KindInvalidState, "milestone is not awaiting release")
	}

	payer, payee, err := lockPair(ctx, tx, req.PayerID, req.PayeeID)
	if err != nil {
		return nil, err
	}
	if payer.Balance < req.Amount {
		return nil, fault.New(fault.KindInsufficientFunds, "insufficient balance to release milestone")
	}

	ref := wallet.Ref{Type: wallet.RefMilestone, ID: req.MilestoneID}
	debit, err := applyChange(ctx, tx, &payer, -req.Amount, wallet.KindEscrowRelease, "milestone payment released", ref)
	if err != nil {
		return nil, err
	}
	credit, err := applyChange(ctx, tx, &payee, req.Amount, wallet.KindEscrowRelease, "milestone payment received", ref)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fault.Wrap(fault.KindInternal, "commit", err)
	}
	return &escrow.Receipt{Debit: debit, Credit: credit}, nil
}

// lockPair takes both wallet row locks in user-id order so two releases
// touching the same wallets cannot deadlock.
func lockPair(ctx context.Context, tx pgx.Tx, payerID, payeeID string) (payer, payee wallet.Wallet, err error) {
	first, second := payerID, payeeID
	if second < first {
		first, second = second, first
	}
	a, err := lockWallet(ctx, tx, first)
	if err != nil {
		return wallet.Wallet{}, wallet.Wallet{}, err
	}
	b, err := lockWallet(ctx, tx, second)
	if err != nil {
		return wallet.Wallet{}, wallet.Wallet{}, err
	}
	if a.UserID == payerID {
		return a, b, nil
	}
	return b, a, nil
}
