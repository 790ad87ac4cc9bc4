package milestone

import "context"

// Store is the persistence boundary for milestones. The state-changing
// methods are conditional on the current state (compare-and-set) so that
// concurrent transitions cannot both succeed; a lost race surfaces as
// fault.KindInvalidState.
type Store interface {
	Create(ctx context.Context, m Milestone) (Milestone, error)
	Get(ctx context.Context, id string) (Milestone, error)
	ListByProject(ctx context.Context, projectID string) ([]Milestone, error)

	// NextOrderIndex returns the order index for a new milestone, one past
	// the project's current highest.
	NextOrderIndex(ctx context.Context, projectID string) (int, error)

	// Submit moves the milestone to review and records the deliverables,
	// conditional on progress being todo or in_progress.
	Submit(ctx context.Context, id string, deliverables []string) (Milestone, error)

	// Reject moves the milestone back to in_progress, conditional on it
	// sitting in (review, pending). Deliverables are retained.
	Reject(ctx context.Context, id string) (Milestone, error)

	// Delete removes the milestone, conditional on status still pending.
	// Released milestones are never deleted so the ledger reference stays
	// resolvable.
	Delete(ctx context.Context, id string) error
}

// Directory reads the authorization relationships owned by the project and
// application layers: who owns the project, and which single developer holds
// its accepted application.
type Directory interface {
	ProjectCompany(ctx context.Context, projectID string) (string, error)
	AcceptedDeveloper(ctx context.Context, projectID string) (string, error)
}

// Notifier delivers best-effort notifications after a transition commits.
// Failures are logged, never surfaced to the caller.
type Notifier interface {
	MilestoneSubmitted(userID, milestoneID, title string) error
	MilestoneApproved(userID, milestoneID, title string, amount int64) error
	MilestoneRejected(userID, milestoneID, title string) error
}
