package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/lancepay/internal/fault"
)

// Directory reads the project/application relationships owned by the
// project management layer. This core only consumes them.
type Directory struct {
	pool *pgxpool.Pool
}

func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

func (d *Directory) ProjectCompany(ctx context.Context, projectID string) (string, error) {
	var companyID string
	err := d.pool.QueryRow(ctx,
		`SELECT company_id FROM projects WHERE id = $1`, projectID).Scan(&companyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fault.New(fault.KindNotFound, "project not found")
		}
		return "", fault.Wrap(fault.KindInternal, "load project", err)
	}
	return companyID, nil
}

func (d *Directory) AcceptedDeveloper(ctx context.Context, projectID string) (string, error) {
	var developerID string
	err := d.pool.QueryRow(ctx,
		`SELECT developer_id FROM applications WHERE project_id = $1 AND status = 'accepted'`,
		projectID).Scan(&developerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fault.New(fault.KindNotFound, "project has no accepted developer")
		}
		return "", fault.Wrap(fault.KindInternal, "load accepted application", err)
	}
	return developerID, nil
}

// PaymentMethods checks withdrawal destinations for existence only.
type PaymentMethods struct {
	pool *pgxpool.Pool
}

func NewPaymentMethods(pool *pgxpool.Pool) *PaymentMethods {
	return &PaymentMethods{pool: pool}
}

func (p *PaymentMethods) Exists(ctx context.Context, userID, methodID string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM payment_methods WHERE id = $1 AND user_id = $2)`,
		methodID, userID).Scan(&exists)
	if err != nil {
		return false, fault.Wrap(fault.KindInternal, "check payment method", err)
	}
	return exists, nil
}
