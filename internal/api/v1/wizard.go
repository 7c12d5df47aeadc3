package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/valenante/paginaVenta-sub002/internal/auth"
	"github.com/valenante/paginaVenta-sub002/internal/domain"
	"github.com/valenante/paginaVenta-sub002/internal/metrics"
	"github.com/valenante/paginaVenta-sub002/internal/pricing"
	"github.com/valenante/paginaVenta-sub002/internal/wizard"
)

// WizardTokenHeader carries the session token issued by POST /wizard.
const WizardTokenHeader = "X-Wizard-Token"

// WizardView is a session as the storefront renders it. Quote and Issues
// are derived from State on every response.
type WizardView struct {
	State  wizard.State   `json:"state"`
	Quote  pricing.Quote  `json:"quote"`
	Issues []wizard.Issue `json:"issues"`
}

func newWizardView(s wizard.State) WizardView {
	issues := s.Validate()
	if issues == nil {
		issues = []wizard.Issue{}
	}
	return WizardView{State: s, Quote: s.Quote(), Issues: issues}
}

type CreateWizardInput struct {
	Plan string `query:"plan" doc:"Optional plan slug to preselect"`
}

type CreateWizardOutput struct {
	Body struct {
		Token string `json:"token" doc:"Session token for the X-Wizard-Token header"`
		WizardView
	}
}

type WizardTokenInput struct {
	Token string `header:"X-Wizard-Token" required:"true" doc:"Wizard session token"`
}

type WizardOutput struct {
	Body WizardView
}

type PatchWizardInput struct {
	Token string `header:"X-Wizard-Token" required:"true" doc:"Wizard session token"`
	Body  wizard.Patch
}

type SelectPlanInput struct {
	Token string `header:"X-Wizard-Token" required:"true" doc:"Wizard session token"`
	Body  struct {
		Slug string `json:"slug" doc:"Plan slug"`
	}
}

type SubmitWizardOutput struct {
	Body wizard.Submission
}

func RegisterWizardRoutes(api huma.API, deps WizardDeps) {
	huma.Register(api, huma.Operation{
		OperationID: "create-wizard",
		Method:      http.MethodPost,
		Path:        "/wizard",
		Summary:     "Start a wizard session",
		Tags:        []string{"Wizard"},
	}, func(ctx context.Context, input *CreateWizardInput) (*CreateWizardOutput, error) {
		state := wizard.NewState(uuid.New())

		if input.Plan != "" {
			// An unknown plan leaves the session redirecting to plan selection;
			// the client reads that from the state.
			resolved, err := deps.Controller.SelectPlan(ctx, state, input.Plan)
			if err != nil {
				log.Info().Err(err).Str("session_id", state.SessionID.String()).Msg("preselected plan not resolved")
			}
			state = resolved
		}

		if err := deps.save(ctx, state); err != nil {
			return nil, err
		}

		token, err := auth.IssueWizardToken(deps.Secret, state.SessionID, deps.SessionTTL)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to issue session token", err)
		}

		out := &CreateWizardOutput{}
		out.Body.Token = token
		out.Body.WizardView = newWizardView(state)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-wizard",
		Method:      http.MethodGet,
		Path:        "/wizard",
		Summary:     "Get the wizard session",
		Tags:        []string{"Wizard"},
	}, func(ctx context.Context, input *WizardTokenInput) (*WizardOutput, error) {
		state, err := deps.load(ctx, input.Token)
		if err != nil {
			return nil, err
		}
		return &WizardOutput{Body: newWizardView(state)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-wizard",
		Method:      http.MethodDelete,
		Path:        "/wizard",
		Summary:     "Abandon the wizard session",
		Tags:        []string{"Wizard"},
	}, func(ctx context.Context, input *WizardTokenInput) (*struct{}, error) {
		id, err := auth.ValidateWizardToken(deps.Secret, input.Token)
		if err != nil {
			return nil, huma.Error401Unauthorized("invalid wizard token")
		}
		if err := deps.Sessions.DeleteWizard(ctx, id); err != nil {
			return nil, huma.Error500InternalServerError("failed to delete wizard session", err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "patch-wizard",
		Method:      http.MethodPatch,
		Path:        "/wizard",
		Summary:     "Update wizard drafts",
		Tags:        []string{"Wizard"},
	}, func(ctx context.Context, input *PatchWizardInput) (*WizardOutput, error) {
		state, err := deps.load(ctx, input.Token)
		if err != nil {
			return nil, err
		}

		state = deps.Controller.Update(state, input.Body)
		if err := deps.save(ctx, state); err != nil {
			return nil, err
		}
		return &WizardOutput{Body: newWizardView(state)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "advance-wizard",
		Method:      http.MethodPost,
		Path:        "/wizard/advance",
		Summary:     "Move to the next step",
		Tags:        []string{"Wizard"},
	}, func(ctx context.Context, input *WizardTokenInput) (*WizardOutput, error) {
		state, err := deps.load(ctx, input.Token)
		if err != nil {
			return nil, err
		}

		state, advErr := deps.Controller.Advance(state)
		if err := deps.save(ctx, state); err != nil {
			return nil, err
		}
		if errors.Is(advErr, wizard.ErrPlanUnresolved) {
			return nil, planSelectionError("")
		}
		return &WizardOutput{Body: newWizardView(state)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "retreat-wizard",
		Method:      http.MethodPost,
		Path:        "/wizard/retreat",
		Summary:     "Move to the previous step",
		Tags:        []string{"Wizard"},
	}, func(ctx context.Context, input *WizardTokenInput) (*WizardOutput, error) {
		state, err := deps.load(ctx, input.Token)
		if err != nil {
			return nil, err
		}

		state = deps.Controller.Retreat(state)
		if err := deps.save(ctx, state); err != nil {
			return nil, err
		}
		return &WizardOutput{Body: newWizardView(state)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "select-wizard-plan",
		Method:      http.MethodPut,
		Path:        "/wizard/plan",
		Summary:     "Select the subscription plan",
		Tags:        []string{"Wizard"},
	}, func(ctx context.Context, input *SelectPlanInput) (*WizardOutput, error) {
		state, err := deps.load(ctx, input.Token)
		if err != nil {
			return nil, err
		}

		state, selErr := deps.Controller.SelectPlan(ctx, state, input.Body.Slug)
		if err := deps.save(ctx, state); err != nil {
			return nil, err
		}
		if selErr != nil {
			return nil, planSelectionError(input.Body.Slug)
		}
		return &WizardOutput{Body: newWizardView(state)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-wizard",
		Method:      http.MethodPost,
		Path:        "/wizard/submit",
		Summary:     "Submit the wizard and start payment",
		Tags:        []string{"Wizard"},
	}, func(ctx context.Context, input *WizardTokenInput) (*SubmitWizardOutput, error) {
		state, err := deps.load(ctx, input.Token)
		if err != nil {
			return nil, err
		}

		state, subErr := deps.Controller.Submit(ctx, state)
		if saveErr := deps.save(ctx, state); saveErr != nil {
			return nil, saveErr
		}

		switch {
		case errors.Is(subErr, wizard.ErrPlanUnresolved):
			metrics.CheckoutSubmissions.WithLabelValues(metrics.ResultNoPlan).Inc()
			return nil, planSelectionError("")
		case subErr != nil:
			metrics.CheckoutSubmissions.WithLabelValues(metrics.ResultFailed).Inc()
			return nil, huma.Error502BadGateway(state.SubmitError)
		}

		if err := deps.recordAttempt(ctx, state); err != nil {
			return nil, err
		}

		metrics.CheckoutSubmissions.WithLabelValues(metrics.ResultSuccess).Inc()
		return &SubmitWizardOutput{Body: *state.Submission}, nil
	})
}

func (d WizardDeps) load(ctx context.Context, token string) (wizard.State, error) {
	id, err := auth.ValidateWizardToken(d.Secret, token)
	if err != nil {
		return wizard.State{}, huma.Error401Unauthorized("invalid wizard token")
	}

	state, err := d.Sessions.LoadWizard(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return wizard.State{}, huma.Error404NotFound("wizard session not found or expired")
		}
		return wizard.State{}, huma.Error500InternalServerError("failed to load wizard session", err)
	}
	return state, nil
}

func (d WizardDeps) save(ctx context.Context, state wizard.State) error {
	if err := d.Sessions.SaveWizard(ctx, state, d.SessionTTL); err != nil {
		return huma.Error500InternalServerError("failed to save wizard session", err)
	}
	return nil
}

// recordAttempt writes the submission to the checkout ledger so the status
// stream can later accept its precheckout id.
func (d WizardDeps) recordAttempt(ctx context.Context, state wizard.State) error {
	q := state.Quote()
	now := time.Now()
	attempt := &domain.CheckoutAttempt{
		ID:            uuid.New(),
		PrecheckoutID: state.Submission.PrecheckoutID,
		SessionID:     state.SessionID,
		PlanSlug:      state.Plan.Slug,
		ContactEmail:  state.Tenant.ContactEmail,
		Period:        string(q.Period),
		Recurring:     int64(q.Recurring),
		OneTime:       int64(q.OneTime),
		State:         domain.ProvisioningVerifying,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := d.Attempts.CheckoutAttempts().Create(ctx, attempt); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.CheckoutSubmissions.WithLabelValues(metrics.ResultConflict).Inc()
			log.Error().Str("precheckout_id", attempt.PrecheckoutID).Msg("precheckout id reused by backend")
			return huma.Error409Conflict("checkout already recorded")
		}
		return huma.Error500InternalServerError("failed to record checkout", err)
	}
	return nil
}

func planSelectionError(slug string) error {
	return huma.Error422UnprocessableEntity("plan could not be resolved", &huma.ErrorDetail{
		Message:  "redirect",
		Location: "redirect",
		Value:    string(wizard.RedirectPlanSelection),
	}, &huma.ErrorDetail{
		Message:  "unknown plan",
		Location: "body.slug",
		Value:    slug,
	})
}
