package wizard

import (
	"strings"

	"github.com/valenante/paginaVenta-sub002/internal/domain"
)

// Toggle is a feature the tenant may switch on or off during onboarding.
type Toggle struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Default     bool   `json:"default"`
}

// Shape is the configuration form derived from a plan: toggles for features
// with a config key, fixed display items for the rest.
type Shape struct {
	Toggles []Toggle         `json:"toggles"`
	Fixed   []domain.Feature `json:"fixed"`
}

// ShapeFor maps a plan's feature catalog to a Shape. Duplicate keys keep the
// first declaration.
func ShapeFor(plan domain.Plan) Shape {
	sh := Shape{
		Toggles: make([]Toggle, 0, len(plan.Features)),
		Fixed:   make([]domain.Feature, 0),
	}
	seen := make(map[string]struct{}, len(plan.Features))

	for _, f := range plan.Features {
		if !f.Configurable() {
			sh.Fixed = append(sh.Fixed, f)
			continue
		}

		key := strings.TrimSpace(f.ConfigKey)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		sh.Toggles = append(sh.Toggles, Toggle{
			Key:         key,
			Name:        f.Name,
			Category:    f.Category,
			Description: f.Description,
			Default:     true,
		})
	}

	return sh
}

// Has reports whether key is a toggle of this shape.
func (sh Shape) Has(key string) bool {
	for _, t := range sh.Toggles {
		if t.Key == key {
			return true
		}
	}
	return false
}

// Seed returns the feature map for this shape: current values are kept for
// declared keys, missing keys get the toggle default, and keys the shape does
// not declare are dropped.
func (sh Shape) Seed(current map[string]bool) map[string]bool {
	out := make(map[string]bool, len(sh.Toggles))
	for _, t := range sh.Toggles {
		if v, ok := current[t.Key]; ok {
			out[t.Key] = v
			continue
		}
		out[t.Key] = t.Default
	}
	return out
}
