package domain

import "strings"

type BusinessType string

const (
	BusinessTypeRestaurant BusinessType = "restaurant"
	BusinessTypeShop       BusinessType = "shop"
)

// ParseBusinessType accepts the catalog's Spanish and English spellings.
// Unknown values return "" so the caller can fall back to the slug heuristic.
func ParseBusinessType(s string) BusinessType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "restaurante", "restaurant":
		return BusinessTypeRestaurant
	case "tienda", "shop":
		return BusinessTypeShop
	default:
		return ""
	}
}

// BusinessTypeFromSlug is the heuristic used when a plan does not declare its
// business type: slugs mentioning "tienda" or "shop" are shop plans, every
// other slug is a restaurant plan.
func BusinessTypeFromSlug(slug string) BusinessType {
	s := strings.ToLower(slug)
	if strings.Contains(s, "tienda") || strings.Contains(s, "shop") {
		return BusinessTypeShop
	}
	return BusinessTypeRestaurant
}

type Feature struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	ConfigKey   string `json:"configKey,omitempty"`
	Description string `json:"description,omitempty"`
}

// Configurable reports whether the tenant can toggle the feature at onboarding.
func (f Feature) Configurable() bool {
	return strings.TrimSpace(f.ConfigKey) != ""
}

type Plan struct {
	Slug         string       `json:"slug"`
	Name         string       `json:"name"`
	MonthlyPrice float64      `json:"monthlyPrice"`
	AnnualPrice  float64      `json:"annualPrice"`
	BusinessType BusinessType `json:"businessType,omitempty"`
	Features     []Feature    `json:"features"`
}

// ResolvedBusinessType returns the declared business type, or the slug
// heuristic when the plan declares none.
func (p *Plan) ResolvedBusinessType() BusinessType {
	if p.BusinessType != "" {
		return p.BusinessType
	}
	return BusinessTypeFromSlug(p.Slug)
}

// FindPlan returns the plan with the given slug.
func FindPlan(plans []Plan, slug string) (*Plan, bool) {
	for i := range plans {
		if plans[i].Slug == slug {
			return &plans[i], true
		}
	}
	return nil, false
}
