package domain

import "github.com/valenante/paginaVenta-sub002/internal/pricing"

// DraftBundle is everything the backend needs to create a pre-checkout.
type DraftBundle struct {
	Tenant        TenantDraft
	Admin         AdminDraft
	Configuration ConfigurationDraft
	Services      pricing.Selections
	Period        pricing.BillingPeriod
	Breakdown     pricing.Breakdown
	TotalDueNow   pricing.Money
}

type PaymentSessionRequest struct {
	PrecheckoutID string
	TenantEmail   string
	PlanSlug      string
}
