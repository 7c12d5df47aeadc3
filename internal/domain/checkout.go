package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CheckoutAttempt records one wizard submission that reached the payment
// provider. PrecheckoutID is unique: a correlation id is never reused.
type CheckoutAttempt struct {
	ID            uuid.UUID
	PrecheckoutID string
	SessionID     uuid.UUID
	PlanSlug      string
	ContactEmail  string
	Period        string
	Recurring     int64
	OneTime       int64
	State         ProvisioningState
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CheckoutAttemptRepository interface {
	Create(ctx context.Context, a *CheckoutAttempt) error
	GetByPrecheckoutID(ctx context.Context, precheckoutID string) (*CheckoutAttempt, error)
	UpdateState(ctx context.Context, precheckoutID string, state ProvisioningState) error
}
