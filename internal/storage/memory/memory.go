// Package memory is an in-memory implementation of the store interfaces,
// mirroring the Postgres semantics (row-level exclusion, compare-and-set
// transitions, all-or-nothing transfers) under a single mutex. The test
// suite runs against it; it also backs local development without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sudo-init-do/lancepay/internal/escrow"
	"github.com/sudo-init-do/lancepay/internal/fault"
	"github.com/sudo-init-do/lancepay/internal/milestone"
	"github.com/sudo-init-do/lancepay/internal/wallet"
)

type project struct {
	companyID   string
	developerID string
}

type Store struct {
	mu         sync.Mutex
	wallets    map[string]*wallet.Wallet // keyed by user ID
	ledger     map[string][]wallet.Transaction
	milestones map[string]*milestone.Milestone
	projects   map[string]project
	methods    map[string]string // method ID -> owner user ID
}

func NewStore() *Store {
	return &Store{
		wallets:    make(map[string]*wallet.Wallet),
		ledger:     make(map[string][]wallet.Transaction),
		milestones: make(map[string]*milestone.Milestone),
		projects:   make(map[string]project),
		methods:    make(map[string]string),
	}
}

// SetProject registers a project's owning company and accepted developer.
// An empty developerID means no application has been accepted yet.
func (s *Store) SetProject(projectID, companyID, developerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[projectID] = project{companyID: companyID, developerID: developerID}
}

// AddPaymentMethod registers a withdrawal destination for the user.
func (s *Store) AddPaymentMethod(methodID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.methods[methodID] = userID
}

// ---- wallet.Store ----

func (s *Store) GetOrCreate(ctx context.Context, userID string) (wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.getOrCreateLocked(userID), nil
}

func (s *Store) getOrCreateLocked(userID string) *wallet.Wallet {
	if w, ok := s.wallets[userID]; ok {
		return w
	}
	w := &wallet.Wallet{
		ID:        uuid.New().String(),
		UserID:    userID,
		Balance:   0,
		CreatedAt: time.Now(),
	}
	s.wallets[userID] = w
	return w
}

func (s *Store) Credit(ctx context.Context, userID string, amount int64, kind wallet.Kind, description string, ref wallet.Ref) (wallet.Wallet, wallet.Transaction, error) {
	if amount <= 0 {
		return wallet.Wallet{}, wallet.Transaction{}, fault.New(fault.KindValidation, "amount must be greater than zero")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateLocked(userID, amount, kind, description, ref)
}

func (s *Store) Debit(ctx context.Context, userID string, amount int64, kind wallet.Kind, description string, ref wallet.Ref) (wallet.Wallet, wallet.Transaction, error) {
	if amount <= 0 {
		return wallet.Wallet{}, wallet.Transaction{}, fault.New(fault.KindValidation, "amount must be greater than zero")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateLocked(userID, -amount, kind, description, ref)
}

func (s *Store) mutateLocked(userID string, delta int64, kind wallet.Kind, description string, ref wallet.Ref) (wallet.Wallet, wallet.Transaction, error) {
	w := s.getOrCreateLocked(userID)
	if delta < 0 && w.Balance+delta < 0 {
		return wallet.Wallet{}, wallet.Transaction{}, fault.New(fault.KindInsufficientFunds, "insufficient balance")
	}
	entry := s.applyLocked(w, delta, kind, description, ref)
	return *w, entry, nil
}

func (s *Store) applyLocked(w *wallet.Wallet, delta int64, kind wallet.Kind, description string, ref wallet.Ref) wallet.Transaction {
	w.Balance += delta
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
	s.ledger[w.ID] = append(s.ledger[w.ID], entry)
	return entry
}

func (s *Store) Transactions(ctx context.Context, walletID string) ([]wallet.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.ledger[walletID]
	out := make([]wallet.Transaction, len(entries))
	// Newest first: reverse of append order, which is commit order.
	for i, t := range entries {
		out[len(entries)-1-i] = t
	}
	return out, nil
}

// ---- escrow.Store ----

func (s *Store) Release(ctx context.Context, req escrow.ReleaseRequest) (*escrow.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.milestones[req.MilestoneID]
	if !ok {
		return nil, fault.New(fault.KindNotFound, "milestone not found")
	}
	if m.Progress != milestone.ProgressReview || m.Status != milestone.StatusPending {
		return nil, fault.New(fault.KindInvalidState, "milestone is not awaiting release")
	}

	payer := s.getOrCreateLocked(req.PayerID)
	payee := s.getOrCreateLocked(req.PayeeID)
	if payer.Balance < req.Amount {
		return nil, fault.New(fault.KindInsufficientFunds, "insufficient balance to release milestone")
	}

	m.Progress = milestone.ProgressCompleted
	m.Status = milestone.StatusReleased
	m.UpdatedAt = time.Now()

	ref := wallet.Ref{Type: wallet.RefMilestone, ID: req.MilestoneID}
	debit := s.applyLocked(payer, -req.Amount, wallet.KindEscrowRelease, "milestone payment released", ref)
	credit := s.applyLocked(payee, req.Amount, wallet.KindEscrowRelease, "milestone payment received", ref)
	return &escrow.Receipt{Debit: debit, Credit: credit}, nil
}

// ---- milestone.Store ----

func (s *Store) Create(ctx context.Context, m milestone.Milestone) (milestone.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := m
	s.milestones[m.ID] = &cp
	return m, nil
}

func (s *Store) Get(ctx context.Context, id string) (milestone.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.milestones[id]
	if !ok {
		return milestone.Milestone{}, fault.New(fault.KindNotFound, "milestone not found")
	}
	return *m, nil
}

func (s *Store) ListByProject(ctx context.Context, projectID string) ([]milestone.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []milestone.Milestone
	for _, m := range s.milestones {
		if m.ProjectID == projectID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (s *Store) NextOrderIndex(ctx context.Context, projectID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := 0
	for _, m := range s.milestones {
		if m.ProjectID == projectID && m.OrderIndex >= next {
			next = m.OrderIndex + 1
		}
	}
	return next, nil
}

func (s *Store) Submit(ctx context.Context, id string, deliverables []string) (milestone.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.milestones[id]
	if !ok {
		return milestone.Milestone{}, fault.New(fault.KindNotFound, "milestone not found")
	}
	if m.Progress != milestone.ProgressTodo && m.Progress != milestone.ProgressInProgress {
		return milestone.Milestone{}, fault.New(fault.KindInvalidState, "milestone is no longer submittable")
	}
	m.Progress = milestone.ProgressReview
	m.Deliverables = append([]string(nil), deliverables...)
	m.UpdatedAt = time.Now()
	return *m, nil
}

func (s *Store) Reject(ctx context.Context, id string) (milestone.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.milestones[id]
	if !ok {
		return milestone.Milestone{}, fault.New(fault.KindNotFound, "milestone not found")
	}
	if m.Progress != milestone.ProgressReview || m.Status != milestone.StatusPending {
		return milestone.Milestone{}, fault.New(fault.KindInvalidState, "milestone is no longer in review")
	}
	m.Progress = milestone.ProgressInProgress
	m.UpdatedAt = time.Now()
	return *m, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.milestones[id]
	if !ok {
		return fault.New(fault.KindNotFound, "milestone not found")
	}
	if m.Status != milestone.StatusPending {
		return fault.New(fault.KindInvalidState, "milestone cannot be deleted")
	}
	delete(s.milestones, id)
	return nil
}

// ---- milestone.Directory ----

func (s *Store) ProjectCompany(ctx context.Context, projectID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return "", fault.New(fault.KindNotFound, "project not found")
	}
	return p.companyID, nil
}

func (s *Store) AcceptedDeveloper(ctx context.Context, projectID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok || p.developerID == "" {
		return "", fault.New(fault.KindNotFound, "project has no accepted developer")
	}
	return p.developerID, nil
}

// ---- wallet.PaymentMethods ----

func (s *Store) Exists(ctx context.Context, userID, methodID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.methods[methodID] == userID, nil
}
