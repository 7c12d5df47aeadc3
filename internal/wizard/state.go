// Package wizard holds the checkout wizard's draft state and the pure reducer
// that moves it between steps.
package wizard

import (
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/valenante/paginaVenta-sub002/internal/domain"
	"github.com/valenante/paginaVenta-sub002/internal/pricing"
)

type Step int

const (
	StepBusiness Step = iota + 1
	StepConfiguration
	StepServices
	StepSummary
)

// StepCount is the number of wizard steps.
const StepCount = int(StepSummary)

func (s Step) clamp() Step {
	if s < StepBusiness {
		return StepBusiness
	}
	if s > StepSummary {
		return StepSummary
	}
	return s
}

// Redirect tells the client to leave the wizard for another page.
type Redirect string

const (
	RedirectNone          Redirect = ""
	RedirectPlanSelection Redirect = "plan_selection"
)

// Submission is the result of the last successful submit.
type Submission struct {
	PrecheckoutID string `json:"precheckoutId"`
	RedirectURL   string `json:"redirectUrl"`
}

// State is one wizard session.
type State struct {
	SessionID     uuid.UUID                 `json:"sessionId"`
	Step          Step                      `json:"step"`
	Tenant        domain.TenantDraft        `json:"tenant"`
	Admin         domain.AdminDraft         `json:"admin"`
	Configuration domain.ConfigurationDraft `json:"configuration"`
	Services      pricing.Selections        `json:"services"`
	Period        pricing.BillingPeriod     `json:"period"`
	Plan          *domain.Plan              `json:"plan,omitempty"`
	Shape         Shape                     `json:"shape"`
	Redirect      Redirect                  `json:"redirect,omitempty"`
	SubmitError   string                    `json:"submitError,omitempty"`
	Submission    *Submission               `json:"submission,omitempty"`
}

// NewState returns an empty session on the first step.
func NewState(id uuid.UUID) State {
	return State{
		SessionID: id,
		Step:      StepBusiness,
		Configuration: domain.ConfigurationDraft{
			Features: map[string]bool{},
		},
		Services: pricing.DefaultPriceList.Normalize(pricing.Selections{}),
		Period:   pricing.PeriodMonthly,
		Shape:    Shape{Toggles: []Toggle{}, Fixed: []domain.Feature{}},
	}
}

// BasePrice is the monthly price of the selected plan, zero when no plan is
// resolved.
func (s State) BasePrice() pricing.Money {
	if s.Plan == nil {
		return 0
	}
	return pricing.FromFloat(s.Plan.MonthlyPrice)
}

// Breakdown prices the current drafts. It is computed on every call.
func (s State) Breakdown() pricing.Breakdown {
	return pricing.Compute(s.BasePrice(), s.Services)
}

// Quote presents the current breakdown for the selected billing period.
func (s State) Quote() pricing.Quote {
	return pricing.QuoteFor(s.Breakdown(), s.Period)
}

// Issue is an advisory validation message for one field.
type Issue struct {
	Step    Step   `json:"step"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate reports missing or malformed fields. Issues never block
// navigation; the client shows them next to each step.
func (s State) Validate() []Issue {
	var issues []Issue
	add := func(step Step, field, msg string) {
		issues = append(issues, Issue{Step: step, Field: field, Message: msg})
	}

	if strings.TrimSpace(s.Tenant.BusinessName) == "" {
		add(StepBusiness, "tenant.businessName", "business name is required")
	}
	if !validEmail(s.Tenant.ContactEmail) {
		add(StepBusiness, "tenant.contactEmail", "a valid contact email is required")
	}
	if strings.TrimSpace(s.Admin.DisplayName) == "" {
		add(StepBusiness, "admin.displayName", "owner name is required")
	}
	if !validEmail(s.Admin.LoginEmail) {
		add(StepBusiness, "admin.loginEmail", "a valid login email is required")
	}
	if s.Plan == nil {
		add(StepBusiness, "tenant.planSlug", "select a plan")
	}
	for _, t := range s.Shape.Toggles {
		if _, ok := s.Configuration.Features[t.Key]; !ok {
			add(StepConfiguration, "configuration.features."+t.Key, "value not set")
		}
	}

	return issues
}

func validEmail(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}
