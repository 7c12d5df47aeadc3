package v1

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/valenante/paginaVenta-sub002/internal/domain"
	"github.com/valenante/paginaVenta-sub002/internal/wizard"
)

// SessionStore abstracts wizard session persistence for handler testing.
// *redis.Store satisfies this interface.
type SessionStore interface {
	SaveWizard(ctx context.Context, state wizard.State, ttl time.Duration) error
	LoadWizard(ctx context.Context, id uuid.UUID) (wizard.State, error)
	DeleteWizard(ctx context.Context, id uuid.UUID) error
}

// AttemptStore abstracts the checkout ledger accessor for handler testing.
// *postgres.Store satisfies this interface.
type AttemptStore interface {
	CheckoutAttempts() domain.CheckoutAttemptRepository
}

// WizardDeps groups what the wizard routes need.
type WizardDeps struct {
	Sessions   SessionStore
	Attempts   AttemptStore
	Controller *wizard.Controller
	Secret     string
	SessionTTL time.Duration
}
