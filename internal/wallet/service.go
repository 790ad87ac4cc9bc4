package wallet

import (
	"context"

	"go.uber.org/zap"

	"github.com/sudo-init-do/lancepay/internal/fault"
	"github.com/sudo-init-do/lancepay/internal/metrics"
)

// Service exposes the account-layer wallet operations: statement, recharge
// and withdraw. Recharge and withdraw are internal bookkeeping, not gateway
// transfers.
type Service struct {
	store   Store
	methods PaymentMethods
	log     *zap.Logger
}

func NewService(store Store, methods PaymentMethods, log *zap.Logger) *Service {
	return &Service{store: store, methods: methods, log: log}
}

// Statement is a wallet together with its full ledger, newest first.
type Statement struct {
	Wallet       Wallet        `json:"wallet"`
	Transactions []Transaction `json:"transactions"`
}

func (s *Service) GetWallet(ctx context.Context, userID string) (*Statement, error) {
	w, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.Transactions(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	return &Statement{Wallet: w, Transactions: txs}, nil
}

// Recharge credits the user's wallet with a deposit.
func (s *Service) Recharge(ctx context.Context, userID string, amount int64) (*Wallet, *Transaction, error) {
	if amount <= 0 {
		return nil, nil, fault.New(fault.KindValidation, "recharge amount must be greater than zero")
	}

	w, tx, err := s.store.Credit(ctx, userID, amount, KindDeposit, "wallet recharge", Ref{})
	if err != nil {
		return nil, nil, err
	}

	metrics.Recharges.Inc()
	s.log.Info("wallet recharged",
		zap.String("user_id", userID),
		zap.Int64("amount", amount),
		zap.Int64("balance", w.Balance))
	return &w, &tx, nil
}

// Withdraw debits the user's wallet toward a registered payment method.
// Only the destination's existence is checked; no transfer is executed.
func (s *Service) Withdraw(ctx context.Context, userID string, amount int64, methodID string) (*Wallet, *Transaction, error) {
	if amount <= 0 {
		return nil, nil, fault.New(fault.KindValidation, "withdrawal amount must be greater than zero")
	}
	if methodID == "" {
		return nil, nil, fault.New(fault.KindValidation, "payment method is required")
	}

	ok, err := s.methods.Exists(ctx, userID, methodID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fault.New(fault.KindNotFound, "payment method not found")
	}

	w, tx, err := s.store.Debit(ctx, userID, amount, KindWithdraw, "wallet withdrawal",
		Ref{Type: RefPaymentMethod, ID: methodID})
	if err != nil {
		return nil, nil, err
	}

	metrics.Withdrawals.Inc()
	s.log.Info("wallet withdrawal",
		zap.String("user_id", userID),
		zap.Int64("amount", amount),
		zap.Int64("balance", w.Balance))
	return &w, &tx, nil
}
