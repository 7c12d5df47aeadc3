package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/valenante/paginaVenta-sub002/internal/domain"
	"github.com/valenante/paginaVenta-sub002/internal/metrics"
	"github.com/valenante/paginaVenta-sub002/internal/pricing"
	"github.com/valenante/paginaVenta-sub002/internal/server/middleware"
	"github.com/valenante/paginaVenta-sub002/internal/wizard"
)

type CreateQuoteInput struct {
	Body struct {
		PlanSlug string                `json:"planSlug" minLength:"1" doc:"Plan slug"`
		Period   pricing.BillingPeriod `json:"period,omitempty" enum:"monthly,annual" doc:"Billing period, monthly by default"`
		Services wizard.ServicesPatch  `json:"services,omitempty" doc:"Service selections; omitted items use defaults"`
	}
}

type CreateOperatorQuoteInput struct {
	Body struct {
		PlanSlug  string                `json:"planSlug,omitempty" doc:"Plan slug; ignored when basePrice is set"`
		BasePrice *float64              `json:"basePrice,omitempty" minimum:"0" doc:"Negotiated monthly base price in euros"`
		Period    pricing.BillingPeriod `json:"period,omitempty" enum:"monthly,annual" doc:"Billing period, monthly by default"`
		Services  wizard.ServicesPatch  `json:"services,omitempty" doc:"Service selections; omitted items use defaults"`
	}
}

// QuoteView is a priced selection. Services are echoed back after clamping.
type QuoteView struct {
	PlanSlug string             `json:"planSlug,omitempty"`
	Services pricing.Selections `json:"services"`
	pricing.Quote
}

type QuoteOutput struct {
	Body QuoteView
}

// RegisterQuoteRoutes prices selections for the public storefront.
func RegisterQuoteRoutes(api huma.API, catalog wizard.PlanCatalog) {
	huma.Register(api, huma.Operation{
		OperationID: "create-quote",
		Method:      http.MethodPost,
		Path:        "/quotes",
		Summary:     "Price a plan and service selection",
		Tags:        []string{"Quotes"},
	}, func(ctx context.Context, input *CreateQuoteInput) (*QuoteOutput, error) {
		plan, err := resolvePlan(ctx, catalog, input.Body.PlanSlug)
		if err != nil {
			return nil, err
		}

		view := quote(plan.Slug, pricing.FromFloat(plan.MonthlyPrice), input.Body.Services, input.Body.Period)
		metrics.QuotesComputed.WithLabelValues(metrics.SourcePublic).Inc()
		return &QuoteOutput{Body: view}, nil
	})
}

// RegisterOperatorRoutes registers the sales operator endpoints. The group
// must sit behind middleware.RequireOperator.
func RegisterOperatorRoutes(api huma.API, catalog wizard.PlanCatalog) {
	huma.Register(api, huma.Operation{
		OperationID: "create-operator-quote",
		Method:      http.MethodPost,
		Path:        "/operator/quotes",
		Summary:     "Price a custom quote for a sales operator",
		Tags:        []string{"Operator"},
	}, func(ctx context.Context, input *CreateOperatorQuoteInput) (*QuoteOutput, error) {
		if _, ok := middleware.OperatorFromContext(ctx); !ok {
			return nil, huma.Error403Forbidden("missing operator context")
		}

		var (
			slug string
			base pricing.Money
		)
		switch {
		case input.Body.BasePrice != nil:
			base = pricing.FromFloat(*input.Body.BasePrice)
		case input.Body.PlanSlug != "":
			plan, err := resolvePlan(ctx, catalog, input.Body.PlanSlug)
			if err != nil {
				return nil, err
			}
			slug, base = plan.Slug, pricing.FromFloat(plan.MonthlyPrice)
		default:
			return nil, huma.Error422UnprocessableEntity("planSlug or basePrice is required")
		}

		view := quote(slug, base, input.Body.Services, input.Body.Period)
		metrics.QuotesComputed.WithLabelValues(metrics.SourceOperator).Inc()
		return &QuoteOutput{Body: view}, nil
	})
}

func resolvePlan(ctx context.Context, catalog wizard.PlanCatalog, slug string) (*domain.Plan, error) {
	plans, err := catalog.ListPlans(ctx)
	if err != nil {
		return nil, huma.Error502BadGateway("plan catalog unavailable", err)
	}
	plan, ok := domain.FindPlan(plans, slug)
	if !ok {
		return nil, huma.Error404NotFound("plan not found")
	}
	return plan, nil
}

func quote(slug string, base pricing.Money, services wizard.ServicesPatch, period pricing.BillingPeriod) QuoteView {
	sel := services.Apply(pricing.Selections{})
	return QuoteView{
		PlanSlug: slug,
		Services: sel,
		Quote:    pricing.QuoteFor(pricing.DefaultPriceList.Compute(base, sel), period),
	}
}
