// Package escrow moves milestone funds from the paying company to the
// accepted developer in one atomic unit.
package escrow

import (
	"context"

	"go.uber.org/zap"

	"github.com/sudo-init-do/lancepay/internal/fault"
	"github.com/sudo-init-do/lancepay/internal/metrics"
)

// Store executes the release as a single atomic unit: the milestone moves
// from (review, pending) to (completed, released) by compare-and-set, the
// payer is debited, the payee is credited, and both ledger entries are
// written — all committed together or not at all.
//
// Errors: fault.KindInvalidState when the compare-and-set finds the
// milestone no longer in review (a second concurrent approval loses here),
// fault.KindInsufficientFunds when the payer cannot cover the amount, and
// fault.KindBusy when a wallet row lock cannot be obtained. None of these
// leave a partial debit or credit behind.
type Store interface {
	Release(ctx context.Context, req ReleaseRequest) (*Receipt, error)
}

// Service is the payment release engine. It is invoked only by the
// milestone approval transition; nothing else releases funds.
type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

// Release validates the request and executes the transfer. Conservation
// holds on success: the payer's balance drops by exactly req.Amount and the
// payee's rises by the same, with one debit and one credit entry both
// referencing the milestone.
func (s *Service) Release(ctx context.Context, req ReleaseRequest) (*Receipt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	receipt, err := s.store.Release(ctx, req)
	if err != nil {
		metrics.ReleaseFailures.WithLabelValues(fault.KindOf(err).String()).Inc()
		return nil, err
	}

	metrics.Releases.Inc()
	s.log.Info("escrow released",
		zap.String("milestone_id", req.MilestoneID),
		zap.String("payer_id", req.PayerID),
		zap.String("payee_id", req.PayeeID),
		zap.Int64("amount", req.Amount))
	return receipt, nil
}
