// Package postgres holds the pgx-backed store implementations. Every
// balance-mutating operation runs in one transaction that locks the wallet
// rows it touches with FOR UPDATE NOWAIT and writes the matching ledger
// entries before commit.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/lancepay/internal/fault"
	"github.com/sudo-init-do/lancepay/internal/wallet"
)

// lockNotAvailable is the Postgres error code raised by NOWAIT when another
// transaction holds the row lock.
const lockNotAvailable = "55P03"

type WalletStore struct {
	pool *pgxpool.Pool
}

func NewWalletStore(pool *pgxpool.Pool) *WalletStore {
	return &WalletStore{pool: pool}
}

func (s *WalletStore) GetOrCreate(ctx context.Context, userID string) (wallet.Wallet, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO wallets (id, user_id, balance, created_at)
		 VALUES ($1, $2, 0, NOW())
		 ON CONFLICT (user_id) DO NOTHING`,
		uuid.New().String(), userID)
	if err != nil {
		return wallet.Wallet{}, fault.Wrap(fault.KindInternal, "create wallet", err)
	}

	var w wallet.Wallet
	err = s.pool.QueryRow(ctx,
		`SELECT id, user_id, balance, created_at FROM wallets WHERE user_id = $1`,
		userID).Scan(&w.ID, &w.UserID, &w.Balance, &w.CreatedAt)
	if err != nil {
		return wallet.Wallet{}, fault.Wrap(fault.KindInternal, "load wallet", err)
	}
	return w, nil
}

func (s *WalletStore) Credit(ctx context.Context, userID string, amount int64, kind wallet.Kind, description string, ref wallet.Ref) (wallet.Wallet, wallet.Transaction, error) {
	if amount <= 0 {
		return wallet.Wallet{}, wallet.Transaction{}, fault.New(fault.KindValidation, "amount must be greater than zero")
	}
	return s.mutate(ctx, userID, amount, kind, description, ref)
}

func (s *WalletStore) Debit(ctx context.Context, userID string, amount int64, kind wallet.Kind, description string, ref wallet.Ref) (wallet.Wallet, wallet.Transaction, error) {
	if amount <= 0 {
		return wallet.Wallet{}, wallet.Transaction{}, fault.New(fault.KindValidation, "amount must be greater than zero")
	}
	return s.mutate(ctx, userID, -amount, kind, description, ref)
}

// mutate applies one signed balance change and its ledger entry atomically.
func (s *WalletStore) mutate(ctx context.Context, userID string, delta int64, kind wallet.Kind, description string, ref wallet.Ref) (wallet.Wallet, wallet.Transaction, error) {
	if _, err := s.GetOrCreate(ctx, userID); err != nil {
		return wallet.Wallet{}, wallet.Transaction{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return wallet.Wallet{}, wallet.Transaction{}, fault.Wrap(fault.KindInternal, "begin", err)
	}
	defer tx.Rollback(ctx)

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return wallet.Wallet{}, wallet.Transaction{}, err
	}
	if delta < 0 && w.Balance+delta < 0 {
		return wallet.Wallet{}, wallet.Transaction{}, fault.New(fault.KindInsufficientFunds, "insufficient balance")
	}

	entry, err := applyChange(ctx, tx, &w, delta, kind, description, ref)
	if err != nil {
		return wallet.Wallet{}, wallet.Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return wallet.Wallet{}, wallet.Transaction{}, fault.Wrap(fault.KindInternal, "commit", err)
	}
	return w, entry, nil
}

func (s *WalletStore) Transactions(ctx context.Context, walletID string) ([]wallet.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, wallet_id, amount, kind, description,
		        COALESCE(reference_type, ''), COALESCE(reference_id::text, ''), created_at
		 FROM transactions
		 WHERE wallet_id = $1
		 ORDER BY created_at DESC, id DESC`,
		walletID)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "list transactions", err)
	}
	defer rows.Close()

	var txs []wallet.Transaction
	for rows.Next() {
		var t wallet.Transaction
		if err := rows.Scan(&t.ID, &t.WalletID, &t.Amount, &t.Kind, &t.Description,
			&t.ReferenceType, &t.ReferenceID, &t.CreatedAt); err != nil {
			return nil, fault.Wrap(fault.KindInternal, "scan transaction", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// lockWallet takes the row lock for the duration of the caller's
// transaction. NOWAIT turns contention into a clean Busy failure instead of
// an unbounded wait; retries belong to the caller, not here.
func lockWallet(ctx context.Context, tx pgx.Tx, userID string) (wallet.Wallet, error) {
	var w wallet.Wallet
	err := tx.QueryRow(ctx,
		`SELECT id, user_id, balance, created_at FROM wallets WHERE user_id = $1 FOR UPDATE NOWAIT`,
		userID).Scan(&w.ID, &w.UserID, &w.Balance, &w.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == lockNotAvailable {
			return wallet.Wallet{}, fault.New(fault.KindBusy, "wallet is busy, try again")
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return wallet.Wallet{}, fault.New(fault.KindNotFound, "wallet not found")
		}
		return wallet.Wallet{}, fault.Wrap(fault.KindInternal, "lock wallet", err)
	}
	return w, nil
}

// applyChange updates the locked wallet's balance and appends the ledger
// entry inside the caller's transaction.
func applyChange(ctx context.Context, tx pgx.Tx, w *wallet.Wallet, delta int64, kind wallet.Kind, description string, ref wallet.Ref) (wallet.Transaction, error) {
	w.Balance += delta
	if _, err := tx.Exec(ctx,
		`UPDATE wallets SET balance = $1 WHERE id = $2`,
		w.Balance, w.ID); err != nil {
		return wallet.Transaction{}, fault.Wrap(fault.KindInternal, "update balance", err)
	}

	entry := wallet.Transaction{
		ID:            uuid.New().String(),
		WalletID:      w.ID,
		Amount:        delta,
		Kind:          kind,
		Description:   description,
		ReferenceType: ref.Type,
		ReferenceID:   ref.ID,
		CreatedAt:     time.Now(),
	}
	var refType, refID any
	if ref.Type != "" {
		refType, refID = ref.Type, ref.ID
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO transactions (id, wallet_id, amount, kind, description, reference_type, reference_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.WalletID, entry.Amount, entry.Kind, entry.Description,
		refType, refID, entry.CreatedAt); err != nil {
		return wallet.Transaction{}, fault.Wrap(fault.KindInternal, "append ledger entry", err)
	}
	return entry, nil
}
