package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/lancepay/internal/fault"
	"github.com/sudo-init-do/lancepay/internal/milestone"
)

type MilestoneStore struct {
	pool *pgxpool.Pool
}

func NewMilestoneStore(pool *pgxpool.Pool) *MilestoneStore {
	return &MilestoneStore{pool: pool}
}

const milestoneColumns = `id, project_id, title, description, amount, due_date, order_index,
	progress_status, status, deliverables, created_at, updated_at`

func (s *MilestoneStore) Create(ctx context.Context, m milestone.Milestone) (milestone.Milestone, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO milestones (id, project_id, title, description, amount, due_date, order_index,
		                         progress_status, status, deliverables, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		m.ID, m.ProjectID, m.Title, m.Description, m.Amount, m.DueDate, m.OrderIndex,
		m.Progress, m.Status, m.Deliverables, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return milestone.Milestone{}, fault.Wrap(fault.KindInternal, "create milestone", err)
	}
	return m, nil
}

func (s *MilestoneStore) Get(ctx context.Context, id string) (milestone.Milestone, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+milestoneColumns+` FROM milestones WHERE id = $1`, id)
	return scanMilestone(row)
}

func (s *MilestoneStore) ListByProject(ctx context.Context, projectID string) ([]milestone.Milestone, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+milestoneColumns+` FROM milestones WHERE project_id = $1 ORDER BY order_index`,
		projectID)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "list milestones", err)
	}
	defer rows.Close()

	var out []milestone.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *MilestoneStore) NextOrderIndex(ctx context.Context, projectID string) (int, error) {
	var next int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(order_index), -1) + 1 FROM milestones WHERE project_id = $1`,
		projectID).Scan(&next)
	if err != nil {
		return 0, fault.Wrap(fault.KindInternal, "next order index", err)
	}
	return next, nil
}

func (s *MilestoneStore) Submit(ctx context.Context, id string, deliverables []string) (milestone.Milestone, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE milestones
		 SET progress_status = 'review', deliverables = $2, updated_at = NOW()
		 WHERE id = $1 AND progress_status IN ('todo', 'in_progress')
		 RETURNING `+milestoneColumns,
		id, deliverables)
	m, err := scanMilestone(row)
	if fault.Is(err, fault.KindNotFound) {
		return milestone.Milestone{}, fault.New(fault.KindInvalidState, "milestone is no longer submittable")
	}
	return m, err
}

func (s *MilestoneStore) Reject(ctx context.Context, id string) (milestone.Milestone, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE milestones
		 SET progress_status = 'in_progress', updated_at = NOW()
		 WHERE id = $1 AND progress_status = 'review' AND status = 'pending'
		 RETURNING `+milestoneColumns,
		id)
	m, err := scanMilestone(row)
	if fault.Is(err, fault.KindNotFound) {
		return milestone.Milestone{}, fault.New(fault.KindInvalidState, "milestone is no longer in review")
	}
	return m, err
}

func (s *MilestoneStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM milestones WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return fault.Wrap(fault.KindInternal, "delete milestone", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.KindInvalidState, "milestone cannot be deleted")
	}
	return nil
}

func scanMilestone(row pgx.Row) (milestone.Milestone, error) {
	var m milestone.Milestone
	err := row.Scan(&m.ID, &m.ProjectID, &m.Title, &m.Description, &m.Amount, &m.DueDate,
		&m.OrderIndex, &m.Progress, &m.Status, &m.Deliverables, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return milestone.Milestone{}, fault.New(fault.KindNotFound, "milestone not found")
		}
		return milestone.Milestone{}, fault.Wrap(fault.KindInternal, "scan milestone", err)
	}
	if m.Deliverables == nil {
		m.Deliverables = []string{}
	}
	return m, nil
}
