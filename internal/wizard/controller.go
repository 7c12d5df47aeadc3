package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/valenante/paginaVenta-sub002/internal/domain"
)

// Sentinel errors for wizard operations.
var (
	// ErrPlanUnresolved means no plan could be resolved; the client must go
	// back to plan selection.
	ErrPlanUnresolved = errors.New("wizard: plan unresolved") //nolint:gochecknoglobals // sentinel error
	// ErrSubmission means the backend rejected or failed the checkout
	// creation. The state is kept so the user can retry.
	ErrSubmission = errors.New("wizard: submission failed") //nolint:gochecknoglobals // sentinel error
)

// submitErrorMessage is shown inline when a submission fails.
const submitErrorMessage = "No pudimos iniciar el pago. Revisa tus datos e inténtalo de nuevo."

// PlanCatalog lists the public plans.
type PlanCatalog interface {
	ListPlans(ctx context.Context) ([]domain.Plan, error)
}

// refreshableCatalog is a PlanCatalog that caches its listing.
type refreshableCatalog interface {
	Invalidate()
}

// CheckoutService creates pre-checkouts and payment sessions on the backend.
type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, bundle domain.DraftBundle) (string, error)
	CreatePaymentSession(ctx context.Context, req domain.PaymentSessionRequest) (string, error)
}

// Controller runs the side-effecting wizard operations on top of Reduce.
// It holds no session state; callers load and persist State themselves.
type Controller struct {
	catalog  PlanCatalog
	checkout CheckoutService
}

func NewController(catalog PlanCatalog, checkout CheckoutService) *Controller {
	return &Controller{catalog: catalog, checkout: checkout}
}

// Advance moves forward one step. It returns ErrPlanUnresolved together with
// the redirecting state when step 1 has no plan.
func (c *Controller) Advance(s State) (State, error) {
	next := Reduce(s, Advance{})
	if next.Redirect == RedirectPlanSelection && next.Step == s.Step {
		return next, ErrPlanUnresolved
	}
	return next, nil
}

func (c *Controller) Retreat(s State) State {
	return Reduce(s, Retreat{})
}

func (c *Controller) Update(s State, p Patch) State {
	return Reduce(s, Update{Patch: p})
}

// SelectPlan resolves slug against the catalog and reshapes the
// configuration draft for it. An unknown slug or a catalog failure leaves
// the state redirecting to plan selection.
func (c *Controller) SelectPlan(ctx context.Context, s State, slug string) (State, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Reduce(s, PlanFailed{}), ErrPlanUnresolved
	}

	plan, err := c.findPlan(ctx, slug)
	if err != nil {
		return Reduce(s, PlanFailed{Slug: slug}), fmt.Errorf("wizard.Controller.SelectPlan: %w", err)
	}

	return Reduce(s, PlanResolved{Plan: *plan}), nil
}

// findPlan looks slug up, refetching a cached catalog once on a miss so a
// newly published plan resolves before the cache expires.
func (c *Controller) findPlan(ctx context.Context, slug string) (*domain.Plan, error) {
	refreshed := false
	for {
		plans, err := c.catalog.ListPlans(ctx)
		if err != nil {
			log.Warn().Err(err).Str("slug", slug).Msg("plan catalog unavailable")
			return nil, fmt.Errorf("%w: %w", ErrPlanUnresolved, err)
		}
		if plan, ok := domain.FindPlan(plans, slug); ok {
			return plan, nil
		}

		rc, ok := c.catalog.(refreshableCatalog)
		if !ok || refreshed {
			return nil, fmt.Errorf("%q: %w", slug, ErrPlanUnresolved)
		}
		rc.Invalidate()
		refreshed = true
	}
}

// Bundle builds the payload sent to the backend on submit. The feature map
// is reseeded from the plan shape so only declared keys are sent.
func (s State) Bundle() domain.DraftBundle {
	cfg := s.Configuration.Clone()
	cfg.Features = s.Shape.Seed(cfg.Features)

	q := s.Quote()
	return domain.DraftBundle{
		Tenant:        s.Tenant,
		Admin:         s.Admin,
		Configuration: cfg,
		Services:      s.Services,
		Period:        q.Period,
		Breakdown:     q.Breakdown,
		TotalDueNow:   q.TotalDueNow,
	}
}

// Submit creates a pre-checkout and a payment session. On success the
// returned state carries the redirect URL. On failure the state keeps every
// draft and carries an inline message; the error wraps ErrSubmission.
func (c *Controller) Submit(ctx context.Context, s State) (State, error) {
	if s.Plan == nil {
		return Reduce(s, PlanFailed{}), ErrPlanUnresolved
	}

	bundle := s.Bundle()

	precheckoutID, err := c.checkout.CreateCheckoutSession(ctx, bundle)
	if err == nil && strings.TrimSpace(precheckoutID) == "" {
		err = errors.New("empty precheckout id")
	}
	if err != nil {
		log.Error().Err(err).Str("session_id", s.SessionID.String()).Msg("checkout session creation failed")
		return Reduce(s, SubmitFailed{Message: submitErrorMessage}),
			fmt.Errorf("wizard.Controller.Submit: create checkout: %w: %w", ErrSubmission, err)
	}

	url, err := c.checkout.CreatePaymentSession(ctx, domain.PaymentSessionRequest{
		PrecheckoutID: precheckoutID,
		TenantEmail:   s.Tenant.ContactEmail,
		PlanSlug:      s.Plan.Slug,
	})
	if err == nil && strings.TrimSpace(url) == "" {
		err = errors.New("empty payment url")
	}
	if err != nil {
		log.Error().Err(err).
			Str("session_id", s.SessionID.String()).
			Str("precheckout_id", precheckoutID).
			Msg("payment session creation failed")
		return Reduce(s, SubmitFailed{Message: submitErrorMessage}),
			fmt.Errorf("wizard.Controller.Submit: create payment session: %w: %w", ErrSubmission, err)
	}

	log.Info().
		Str("session_id", s.SessionID.String()).
		Str("precheckout_id", precheckoutID).
		Str("plan", s.Plan.Slug).
		Msg("checkout submitted")

	return Reduce(s, Submitted{Submission: Submission{PrecheckoutID: precheckoutID, RedirectURL: url}}), nil
}
