package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/valenante/paginaVenta-sub002/internal/domain"
	"github.com/valenante/paginaVenta-sub002/internal/wizard"
)

type ListPlansInput struct{}

type ListPlansOutput struct {
	Body []domain.Plan
}

// RegisterPlanRoutes exposes the public plan catalog. Every plan carries its
// resolved business type so the storefront never repeats the slug heuristic.
func RegisterPlanRoutes(api huma.API, catalog wizard.PlanCatalog) {
	huma.Register(api, huma.Operation{
		OperationID: "list-plans",
		Method:      http.MethodGet,
		Path:        "/plans",
		Summary:     "List public subscription plans",
		Tags:        []string{"Plans"},
	}, func(ctx context.Context, _ *ListPlansInput) (*ListPlansOutput, error) {
		plans, err := catalog.ListPlans(ctx)
		if err != nil {
			return nil, huma.Error502BadGateway("plan catalog unavailable", err)
		}

		out := make([]domain.Plan, 0, len(plans))
		for _, p := range plans {
			p.BusinessType = p.ResolvedBusinessType()
			out = append(out, p)
		}
		return &ListPlansOutput{Body: out}, nil
	})
}
