package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/valenante/paginaVenta-sub002/internal/api/v1"
	"github.com/valenante/paginaVenta-sub002/internal/domain"
	"github.com/valenante/paginaVenta-sub002/internal/pricing"
)

// ---------------------------------------------------------------------------
// TestListPlans
// ---------------------------------------------------------------------------

func TestListPlans(t *testing.T) {
	t.Parallel()

	t.Run("resolves_business_type", func(t *testing.T) {
		t.Parallel()

		declared := shopPlan()
		declared.Slug = "plan-mixto"
		declared.BusinessType = domain.BusinessTypeShop

		_, api := humatest.New(t)
		v1.RegisterPlanRoutes(api, staticCatalog(restaurantPlan(), shopPlan(), declared))

		resp := api.Get("/plans")
		require.Equal(t, http.StatusOK, resp.Code)

		var plans []domain.Plan
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&plans))
		require.Len(t, plans, 3)
		assert.Equal(t, domain.BusinessTypeRestaurant, plans[0].BusinessType)
		assert.Equal(t, domain.BusinessTypeShop, plans[1].BusinessType)
		assert.Equal(t, domain.BusinessTypeShop, plans[2].BusinessType)
	})

	t.Run("catalog_unavailable", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterPlanRoutes(api, &mockCatalog{listPlansFunc: func(context.Context) ([]domain.Plan, error) {
			return nil, errors.New("timeout")
		}})

		resp := api.Get("/plans")
		assert.Equal(t, http.StatusBadGateway, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestCreateQuote
// ---------------------------------------------------------------------------

func TestCreateQuote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		body          map[string]any
		wantCode      int
		wantRecurring pricing.Money
		wantOneTime   pricing.Money
		wantDue       pricing.Money
	}{
		{
			name:          "plan_only",
			body:          map[string]any{"planSlug": "restaurante-pro"},
			wantCode:      http.StatusOK,
			wantRecurring: 4990,
			wantOneTime:   5000,
			wantDue:       9990,
		},
		{
			name: "services_annual",
			body: map[string]any{
				"planSlug": "restaurante-pro",
				"period":   "annual",
				"services": map[string]any{
					"voiceKitchen": true,
					"terminals":    2,
					"tables":       31,
				},
			},
			wantCode:      http.StatusOK,
			wantRecurring: 4990 + 1000,
			wantOneTime:   2*45000 + 5200,
			wantDue:       2*45000 + 5200 + (4990+1000)*11,
		},
		{
			name: "quantities_saturate",
			body: map[string]any{
				"planSlug": "tienda-basica",
				"services": map[string]any{"printers": 999},
			},
			wantCode:      http.StatusOK,
			wantRecurring: 1990,
			wantOneTime:   10*12000 + 5000,
			wantDue:       1990 + 10*12000 + 5000,
		},
		{
			name: "numeric_string_quantity",
			body: map[string]any{
				"planSlug": "tienda-basica",
				"services": map[string]any{"printers": "3"},
			},
			wantCode:      http.StatusOK,
			wantRecurring: 1990,
			wantOneTime:   3*12000 + 5000,
			wantDue:       1990 + 3*12000 + 5000,
		},
		{
			name: "garbage_quantity_is_zero",
			body: map[string]any{
				"planSlug": "tienda-basica",
				"services": map[string]any{"printers": "abc"},
			},
			wantCode:      http.StatusOK,
			wantRecurring: 1990,
			wantOneTime:   5000,
			wantDue:       1990 + 5000,
		},
		{
			name: "fractional_quantity_truncates",
			body: map[string]any{
				"planSlug": "tienda-basica",
				"services": map[string]any{"printers": 2.5},
			},
			wantCode:      http.StatusOK,
			wantRecurring: 1990,
			wantOneTime:   2*12000 + 5000,
			wantDue:       1990 + 2*12000 + 5000,
		},
		{
			name:     "unknown_plan",
			body:     map[string]any{"planSlug": "nope"},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "bad_period",
			body:     map[string]any{"planSlug": "restaurante-pro", "period": "weekly"},
			wantCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			v1.RegisterQuoteRoutes(api, staticCatalog(restaurantPlan(), shopPlan()))

			resp := api.Post("/quotes", tt.body)
			require.Equal(t, tt.wantCode, resp.Code, resp.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}

			var view v1.QuoteView
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
			assert.Equal(t, tt.wantRecurring, view.Recurring)
			assert.Equal(t, tt.wantOneTime, view.OneTime)
			assert.Equal(t, tt.wantDue, view.TotalDueNow)
		})
	}
}

func TestQuoteSchema(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	v1.RegisterQuoteRoutes(api, staticCatalog(restaurantPlan()))

	schemas := api.OpenAPI().Components.Schemas.Map()

	view := schemas["QuoteView"]
	require.NotNil(t, view)
	for _, field := range []string{"recurring", "oneTime", "recurringBilled", "totalDueNow"} {
		require.Contains(t, view.Properties, field)
		assert.Contains(t, view.Properties[field].Description, "in cents", field)
	}

	sel := schemas["Selections"]
	require.NotNil(t, sel)
	require.Contains(t, sel.Properties, "printers")
	assert.Len(t, sel.Properties["printers"].OneOf, 3, "numbers, strings and booleans are all accepted")
}

// ---------------------------------------------------------------------------
// TestCreateOperatorQuote
// ---------------------------------------------------------------------------

func TestCreateOperatorQuote(t *testing.T) {
	t.Parallel()

	t.Run("negotiated_base_price", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterOperatorRoutes(api, staticCatalog(restaurantPlan()))

		resp := api.PostCtx(operatorCtx("ventas@example.com"), "/operator/quotes", map[string]any{
			"basePrice": 39.5,
			"services": map[string]any{
				"terminalSourcing": "existing",
				"terminals":        4,
			},
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		var view v1.QuoteView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
		assert.Equal(t, pricing.Money(3950), view.Recurring)
		assert.Equal(t, pricing.Quantity(0), view.Services.Terminals)
		assert.Equal(t, pricing.Money(6000+5000), view.OneTime)
	})

	t.Run("huge_base_price_is_capped", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterOperatorRoutes(api, staticCatalog(restaurantPlan()))

		resp := api.PostCtx(operatorCtx("ventas@example.com"), "/operator/quotes", map[string]any{
			"basePrice": 1e300,
			"period":    "annual",
			"services":  map[string]any{"voiceKitchen": true},
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		var view v1.QuoteView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
		assert.Equal(t, pricing.DefaultPriceList.MaxBasePrice+1000, view.Recurring)
		assert.Positive(t, int64(view.RecurringBilled))
		assert.Positive(t, int64(view.TotalDueNow))
	})

	t.Run("same_engine_as_public", func(t *testing.T) {
		t.Parallel()

		body := map[string]any{
			"planSlug": "restaurante-pro",
			"services": map[string]any{"screens": 3, "screenTier": "pro"},
		}

		_, api := humatest.New(t)
		v1.RegisterQuoteRoutes(api, staticCatalog(restaurantPlan()))
		v1.RegisterOperatorRoutes(api, staticCatalog(restaurantPlan()))

		var public, operator v1.QuoteView
		resp := api.Post("/quotes", body)
		require.Equal(t, http.StatusOK, resp.Code)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&public))

		resp = api.PostCtx(operatorCtx("op"), "/operator/quotes", body)
		require.Equal(t, http.StatusOK, resp.Code)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&operator))

		assert.Equal(t, public.Quote, operator.Quote)
	})

	t.Run("missing_operator", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterOperatorRoutes(api, staticCatalog(restaurantPlan()))

		resp := api.Post("/operator/quotes", map[string]any{"planSlug": "restaurante-pro"})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("nothing_to_price", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterOperatorRoutes(api, staticCatalog(restaurantPlan()))

		resp := api.PostCtx(operatorCtx("op"), "/operator/quotes", map[string]any{})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}
