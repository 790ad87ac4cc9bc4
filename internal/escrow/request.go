package escrow

import (
	"github.com/sudo-init-do/lancepay/internal/fault"
	"github.com/sudo-init-do/lancepay/internal/wallet"
)

// ReleaseRequest is the validated command for one milestone payout.
// It is checked before any state is touched, so the store never sees
// malformed input.
type ReleaseRequest struct {
	PayerID     string
	PayeeID     string
	Amount      int64
	MilestoneID string
}

func (r ReleaseRequest) Validate() error {
	if r.PayerID == "" || r.PayeeID == "" {
		return fault.New(fault.KindValidation, "payer and payee are required")
	}
	if r.PayerID == r.PayeeID {
		return fault.New(fault.KindValidation, "payer and payee must differ")
	}
	if r.Amount <= 0 {
		return fault.New(fault.KindValidation, "release amount must be greater than zero")
	}
	if r.MilestoneID == "" {
		return fault.New(fault.KindValidation, "milestone reference is required")
	}
	return nil
}

// Receipt carries the two ledger entries written by a successful release.
// Both reference the milestone, so the pair can be reconciled later.
type Receipt struct {
	Debit  wallet.Transaction `json:"debit"`
	Credit wallet.Transaction `json:"credit"`
}
