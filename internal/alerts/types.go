package alerts

import "time"

// Task type constants
const (
	TaskMilestoneSubmitted = "milestone:submitted"
	TaskMilestoneApproved  = "milestone:approved"
	TaskMilestoneRejected  = "milestone:rejected"
)

// MilestonePayload is the common payload for milestone notification tasks.
// UserID is the recipient: the company for submissions, the developer for
// approvals and rejections.
type MilestonePayload struct {
	UserID      string    `json:"user_id"`
	MilestoneID string    `json:"milestone_id"`
	Title       string    `json:"title"`
	Amount      int64     `json:"amount,omitempty"`
	SentAt      time.Time `json:"sent_at"`
}
