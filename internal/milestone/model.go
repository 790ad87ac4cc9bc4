package milestone

import "time"

// ProgressStatus tracks the work lifecycle of a milestone.
type ProgressStatus string

const (
	ProgressTodo       ProgressStatus = "todo"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressReview     ProgressStatus = "review"
	ProgressCompleted  ProgressStatus = "completed"
)

// Status tracks the payment state. Released is terminal: the transition
// happens at most once and only through Approve.
type Status string

const (
	StatusPending  Status = "pending"
	StatusReleased Status = "released"
)

// Milestone is a priced unit of project work. Amount is in minor units.
type Milestone struct {
	ID           string         `json:"id"`
	ProjectID    string         `json:"project_id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Amount       int64          `json:"amount"`
	DueDate      *time.Time     `json:"due_date,omitempty"`
	OrderIndex   int            `json:"order_index"`
	Progress     ProgressStatus `json:"progress_status"`
	Status       Status         `json:"status"`
	Deliverables []string       `json:"deliverables"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Role is the actor's relationship to a milestone's project, resolved once
// per operation and used for every authorization branch.
type Role int

const (
	RoleOther Role = iota
	RoleCompany
	RoleDeveloper
)

func resolveRole(actorID, companyID, developerID string) Role {
	switch actorID {
	case companyID:
		return RoleCompany
	case developerID:
		return RoleDeveloper
	default:
		return RoleOther
	}
}
