package backend

import (
	"github.com/valenante/paginaVenta-sub002/internal/domain"
	"github.com/valenante/paginaVenta-sub002/internal/pricing"
)

// Wire shapes of the platform backend. Field names follow the backend's
// Spanish JSON.

type planFeatureWire struct {
	Nombre      string `json:"nombre"`
	Categoria   string `json:"categoria"`
	ConfigKey   string `json:"configKey,omitempty"`
	Descripcion string `json:"descripcion,omitempty"`
}

type planWire struct {
	Slug          string            `json:"slug"`
	Nombre        string            `json:"nombre"`
	PrecioMensual float64           `json:"precioMensual"`
	PrecioAnual   float64           `json:"precioAnual"`
	TipoNegocio   string            `json:"tipoNegocio,omitempty"`
	Features      []planFeatureWire `json:"features"`
}

func (w planWire) toDomain() domain.Plan {
	p := domain.Plan{
		Slug:         w.Slug,
		Name:         w.Nombre,
		MonthlyPrice: w.PrecioMensual,
		AnnualPrice:  w.PrecioAnual,
		BusinessType: domain.ParseBusinessType(w.TipoNegocio),
		Features:     make([]domain.Feature, 0, len(w.Features)),
	}
	for _, f := range w.Features {
		p.Features = append(p.Features, domain.Feature{
			Name:        f.Nombre,
			Category:    f.Categoria,
			ConfigKey:   f.ConfigKey,
			Description: f.Descripcion,
		})
	}
	return p
}

type tenantWire struct {
	Nombre      string `json:"nombre"`
	Email       string `json:"email"`
	Plan        string `json:"plan"`
	TipoNegocio string `json:"tipoNegocio"`
}

type adminWire struct {
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
}

type configWire struct {
	Features map[string]bool `json:"features"`
	Colores  struct {
		Principal  string `json:"principal"`
		Secundario string `json:"secundario"`
	} `json:"colores"`
	Info struct {
		Telefono  string `json:"telefono"`
		Direccion string `json:"direccion"`
	} `json:"info"`
}

type pricingWire struct {
	Periodo    string  `json:"periodo"`
	Recurrente float64 `json:"recurrente"`
	Unico      float64 `json:"unico"`
	TotalHoy   float64 `json:"totalHoy"`
}

type checkoutSessionRequest struct {
	Tenant    tenantWire         `json:"tenant"`
	Admin     adminWire          `json:"admin"`
	Config    configWire         `json:"config"`
	Servicios pricing.Selections `json:"servicios"`
	Pricing   pricingWire        `json:"pricing"`
}

func newCheckoutSessionRequest(b domain.DraftBundle) checkoutSessionRequest {
	req := checkoutSessionRequest{
		Tenant: tenantWire{
			Nombre:      b.Tenant.BusinessName,
			Email:       b.Tenant.ContactEmail,
			Plan:        b.Tenant.PlanSlug,
			TipoNegocio: string(b.Tenant.BusinessType),
		},
		Admin: adminWire{
			Nombre: b.Admin.DisplayName,
			Email:  b.Admin.LoginEmail,
		},
		Servicios: b.Services,
		Pricing: pricingWire{
			Periodo:    string(b.Period),
			Recurrente: b.Breakdown.Recurring.Float(),
			Unico:      b.Breakdown.OneTime.Float(),
			TotalHoy:   b.TotalDueNow.Float(),
		},
	}
	req.Config.Features = b.Configuration.Features
	req.Config.Colores.Principal = b.Configuration.Colors.Primary
	req.Config.Colores.Secundario = b.Configuration.Colors.Secondary
	req.Config.Info.Telefono = b.Configuration.Info.Phone
	req.Config.Info.Direccion = b.Configuration.Info.Address
	return req
}

type checkoutSessionResponse struct {
	PrecheckoutID string `json:"precheckoutId"`
}

type paymentSessionRequest struct {
	PrecheckoutID string `json:"precheckoutId"`
	TenantEmail   string `json:"tenantEmail"`
	Plan          string `json:"plan"`
}

type paymentSessionResponse struct {
	URL string `json:"url"`
}

type statusResponse struct {
	Status string `json:"status"`
	Tenant *struct {
		Nombre string `json:"nombre"`
	} `json:"tenant,omitempty"`
	PasswordSetupURL string `json:"passwordSetupUrl,omitempty"`
	Error            *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (w statusResponse) toDomain() domain.StatusReport {
	r := domain.StatusReport{
		Status:           domain.BackendStatus(w.Status),
		PasswordSetupURL: w.PasswordSetupURL,
	}
	if w.Tenant != nil {
		r.TenantName = w.Tenant.Nombre
	}
	if w.Error != nil {
		r.ErrorMessage = w.Error.Message
	}
	return r
}
