// Package milestone implements the milestone state machine. Approve is the
// single sanctioned path to (completed, released); no other code moves a
// milestone there or releases its funds.
package milestone

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sudo-init-do/lancepay/internal/escrow"
	"github.com/sudo-init-do/lancepay/internal/fault"
)

type Service struct {
	store     Store
	directory Directory
	releases  *escrow.Service
	notify    Notifier
	log       *zap.Logger
}

// NewService wires the state machine. notify may be nil.
func NewService(store Store, directory Directory, releases *escrow.Service, notify Notifier, log *zap.Logger) *Service {
	return &Service{store: store, directory: directory, releases: releases, notify: notify, log: log}
}

// CreateInput describes a new milestone added by the project's company.
type CreateInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Amount      int64      `json:"amount"`
	DueDate     *time.Time `json:"due_date"`
}

// Create adds a milestone to the project. Company only.
func (s *Service) Create(ctx context.Context, projectID, actingUserID string, in CreateInput) (*Milestone, error) {
	if in.Title == "" {
		return nil, fault.New(fault.KindValidation, "title is required")
	}
	if in.Amount <= 0 {
		return nil, fault.New(fault.KindValidation, "amount must be greater than zero")
	}

	companyID, err := s.directory.ProjectCompany(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if actingUserID != companyID {
		return nil, fault.New(fault.KindForbidden, "only the project company can create milestones")
	}

	order, err := s.store.NextOrderIndex(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	m := Milestone{
		ID:           uuid.New().String(),
		ProjectID:    projectID,
		Title:        in.Title,
		Description:  in.Description,
		Amount:       in.Amount,
		DueDate:      in.DueDate,
		OrderIndex:   order,
		Progress:     ProgressTodo,
		Status:       StatusPending,
		Deliverables: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.store.Create(ctx, m)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// List returns the project's milestones ordered by their index.
func (s *Service) List(ctx context.Context, projectID string) ([]Milestone, error) {
	return s.store.ListByProject(ctx, projectID)
}

// Submit hands the milestone over for review. Only the project's accepted
// developer may submit, only from todo or in_progress, and only with at
// least one deliverable.
func (s *Service) Submit(ctx context.Context, milestoneID, actingUserID string, deliverables []string) (*Milestone, error) {
	m, role, err := s.loadWithRole(ctx, milestoneID, actingUserID)
	if err != nil {
		return nil, err
	}
	if role != RoleDeveloper {
		return nil, fault.New(fault.KindForbidden, "only the accepted developer can submit a milestone")
	}
	if m.Progress != ProgressTodo && m.Progress != ProgressInProgress {
		return nil, fault.Newf(fault.KindInvalidState, "milestone cannot be submitted from %s", m.Progress)
	}
	if len(cleanDeliverables(deliverables)) == 0 {
		return nil, fault.New(fault.KindValidation, "at least one deliverable is required")
	}

	updated, err := s.store.Submit(ctx, milestoneID, cleanDeliverables(deliverables))
	if err != nil {
		return nil, err
	}

	if s.notify != nil {
		companyID, derr := s.directory.ProjectCompany(ctx, m.ProjectID)
		if derr == nil {
			_ = s.notify.MilestoneSubmitted(companyID, updated.ID, updated.Title)
		}
	}
	s.log.Info("milestone submitted",
		zap.String("milestone_id", updated.ID),
		zap.String("developer_id", actingUserID))
	return &updated, nil
}

// Approve accepts the submitted work and releases the milestone's funds from
// the company wallet to the developer wallet. State change and payment commit
// together: on any release failure the milestone stays at (review, pending)
// and both wallets are untouched.
func (s *Service) Approve(ctx context.Context, milestoneID, actingUserID string) (*Milestone, *escrow.Receipt, error) {
	m, role, err := s.loadWithRole(ctx, milestoneID, actingUserID)
	if err != nil {
		return nil, nil, err
	}
	if role != RoleCompany {
		return nil, nil, fault.New(fault.KindForbidden, "only the project company can approve a milestone")
	}
	if m.Status == StatusReleased {
		return nil, nil, fault.New(fault.KindInvalidState, "milestone already released")
	}
	if m.Progress != ProgressReview {
		return nil, nil, fault.Newf(fault.KindInvalidState, "milestone cannot be approved from %s", m.Progress)
	}

	developerID, err := s.directory.AcceptedDeveloper(ctx, m.ProjectID)
	if err != nil {
		return nil, nil, err
	}

	receipt, err := s.releases.Release(ctx, escrow.ReleaseRequest{
		PayerID:     actingUserID,
		PayeeID:     developerID,
		Amount:      m.Amount,
		MilestoneID: m.ID,
	})
	if err != nil {
		return nil, nil, err
	}

	released, err := s.store.Get(ctx, milestoneID)
	if err != nil {
		return nil, nil, err
	}

	if s.notify != nil {
		_ = s.notify.MilestoneApproved(developerID, released.ID, released.Title, released.Amount)
	}
	s.log.Info("milestone approved",
		zap.String("milestone_id", released.ID),
		zap.String("company_id", actingUserID),
		zap.String("developer_id", developerID),
		zap.Int64("amount", released.Amount))
	return &released, receipt, nil
}

// Reject sends the work back to the developer. Deliverables are retained.
// A released milestone can never be rejected; the payment stands.
func (s *Service) Reject(ctx context.Context, milestoneID, actingUserID string) (*Milestone, error) {
	m, role, err := s.loadWithRole(ctx, milestoneID, actingUserID)
	if err != nil {
		return nil, err
	}
	if role != RoleCompany {
		return nil, fault.New(fault.KindForbidden, "only the project company can reject a milestone")
	}
	if m.Status == StatusReleased {
		return nil, fault.New(fault.KindInvalidState, "released milestones cannot be rejected")
	}
	if m.Progress != ProgressReview {
		return nil, fault.Newf(fault.KindInvalidState, "milestone cannot be rejected from %s", m.Progress)
	}

	updated, err := s.store.Reject(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	if s.notify != nil {
		if developerID, derr := s.directory.AcceptedDeveloper(ctx, m.ProjectID); derr == nil {
			_ = s.notify.MilestoneRejected(developerID, updated.ID, updated.Title)
		}
	}
	s.log.Info("milestone rejected",
		zap.String("milestone_id", updated.ID),
		zap.String("company_id", actingUserID))
	return &updated, nil
}

// Destroy deletes a milestone. Company only, and only while payment is still
// pending.
func (s *Service) Destroy(ctx context.Context, milestoneID, actingUserID string) error {
	m, role, err := s.loadWithRole(ctx, milestoneID, actingUserID)
	if err != nil {
		return err
	}
	if role != RoleCompany {
		return fault.New(fault.KindForbidden, "only the project company can delete a milestone")
	}
	if m.Status == StatusReleased {
		return fault.New(fault.KindInvalidState, "released milestones cannot be deleted")
	}
	return s.store.Delete(ctx, milestoneID)
}

func (s *Service) loadWithRole(ctx context.Context, milestoneID, actingUserID string) (Milestone, Role, error) {
	m, err := s.store.Get(ctx, milestoneID)
	if err != nil {
		return Milestone{}, RoleOther, err
	}
	companyID, err := s.directory.ProjectCompany(ctx, m.ProjectID)
	if err != nil {
		return Milestone{}, RoleOther, err
	}
	developerID, err := s.directory.AcceptedDeveloper(ctx, m.ProjectID)
	if err != nil && !fault.Is(err, fault.KindNotFound) {
		return Milestone{}, RoleOther, err
	}
	return m, resolveRole(actingUserID, companyID, developerID), nil
}

func cleanDeliverables(in []string) []string {
	out := make([]string, 0, len(in))
	for _, d := range in {
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}
