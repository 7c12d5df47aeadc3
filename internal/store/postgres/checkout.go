package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valenante/paginaVenta-sub002/internal/domain"
)

const uniqueViolation = "23505"

type CheckoutAttemptRepo struct {
	pool *pgxpool.Pool
}

func NewCheckoutAttemptRepo(pool *pgxpool.Pool) *CheckoutAttemptRepo {
	return &CheckoutAttemptRepo{pool: pool}
}

func (r *CheckoutAttemptRepo) Create(ctx context.Context, a *domain.CheckoutAttempt) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO checkout_attempts
		   (id, precheckout_id, session_id, plan_slug, contact_email, period,
		    recurring_cents, one_time_cents, state, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.PrecheckoutID, a.SessionID, a.PlanSlug, a.ContactEmail, a.Period,
		a.Recurring, a.OneTime, a.State, a.CreatedAt, a.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("checkoutAttemptRepo.Create: %s: %w", a.PrecheckoutID, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("checkoutAttemptRepo.Create: %w", err)
	}

	return nil
}

func (r *CheckoutAttemptRepo) GetByPrecheckoutID(ctx context.Context, precheckoutID string) (*domain.CheckoutAttempt, error) {
	var a domain.CheckoutAttempt

	err := r.pool.QueryRow(ctx,
		`SELECT id, precheckout_id, session_id, plan_slug, contact_email, period,
		        recurring_cents, one_time_cents, state, created_at, updated_at
		 FROM checkout_attempts WHERE precheckout_id = $1`,
		precheckoutID,
	).Scan(&a.ID, &a.PrecheckoutID, &a.SessionID, &a.PlanSlug, &a.ContactEmail, &a.Period,
		&a.Recurring, &a.OneTime, &a.State, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("checkoutAttemptRepo.GetByPrecheckoutID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checkoutAttemptRepo.GetByPrecheckoutID: %w", err)
	}

	return &a, nil
}

func (r *CheckoutAttemptRepo) UpdateState(ctx context.Context, precheckoutID string, state domain.ProvisioningState) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE checkout_attempts SET state = $1, updated_at = now()
		 WHERE precheckout_id = $2`,
		state, precheckoutID,
	)
	if err != nil {
		return fmt.Errorf("checkoutAttemptRepo.UpdateState: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("checkoutAttemptRepo.UpdateState: %w", domain.ErrNotFound)
	}

	return nil
}
