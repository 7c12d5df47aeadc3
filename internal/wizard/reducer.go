package wizard

import (
	"github.com/valenante/paginaVenta-sub002/internal/domain"
	"github.com/valenante/paginaVenta-sub002/internal/pricing"
)

// Action is one state transition. Reduce is the only place actions are
// applied.
type Action interface {
	isAction()
}

type (
	Advance struct{}
	Retreat struct{}
	Update  struct{ Patch Patch }

	// PlanResolved installs a plan fetched from the catalog.
	PlanResolved struct{ Plan domain.Plan }
	// PlanFailed records that the requested slug could not be resolved.
	PlanFailed struct{ Slug string }

	Submitted    struct{ Submission Submission }
	SubmitFailed struct{ Message string }
)

func (Advance) isAction()      {}
func (Retreat) isAction()      {}
func (Update) isAction()       {}
func (PlanResolved) isAction() {}
func (PlanFailed) isAction()   {}
func (Submitted) isAction()    {}
func (SubmitFailed) isAction() {}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Tenant   *TenantPatch          `json:"tenant,omitempty"`
	Admin    *AdminPatch           `json:"admin,omitempty"`
	Features map[string]bool       `json:"features,omitempty"`
	Colors   *ColorsPatch          `json:"colors,omitempty"`
	Info     *InfoPatch            `json:"info,omitempty"`
	Services *ServicesPatch        `json:"services,omitempty"`
	Period   *pricing.BillingPeriod `json:"period,omitempty"`
}

type TenantPatch struct {
	BusinessName *string `json:"businessName,omitempty"`
	ContactEmail *string `json:"contactEmail,omitempty"`
}

type AdminPatch struct {
	DisplayName *string `json:"displayName,omitempty"`
	LoginEmail  *string `json:"loginEmail,omitempty"`
}

type ColorsPatch struct {
	Primary   *string `json:"primary,omitempty"`
	Secondary *string `json:"secondary,omitempty"`
}

type InfoPatch struct {
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

type ServicesPatch struct {
	VoiceKitchen    *bool `json:"voiceKitchen,omitempty"`
	VoiceOrders     *bool `json:"voiceOrders,omitempty"`
	Photography     *bool `json:"photography,omitempty"`
	InitialDataLoad *bool `json:"initialDataLoad,omitempty"`
	Training        *bool `json:"training,omitempty"`
	CatalogLoading  *bool `json:"catalogLoading,omitempty"`

	TerminalSourcing *pricing.TerminalSourcing `json:"terminalSourcing,omitempty"`
	Terminals        *pricing.Quantity         `json:"terminals,omitempty"`
	ScreenTier       *pricing.ScreenTier       `json:"screenTier,omitempty"`
	Screens          *pricing.Quantity         `json:"screens,omitempty"`
	Printers         *pricing.Quantity         `json:"printers,omitempty"`
	WaiterDevices    *pricing.Quantity         `json:"waiterDevices,omitempty"`
	Tables           *pricing.Quantity         `json:"tables,omitempty"`
}

// Reduce applies a to s and returns the new state. s is not modified.
func Reduce(s State, a Action) State {
	s.Configuration = s.Configuration.Clone()

	switch act := a.(type) {
	case Advance:
		if s.Step == StepBusiness && s.Plan == nil {
			s.Redirect = RedirectPlanSelection
			return s
		}
		s.Step = (s.Step + 1).clamp()

	case Retreat:
		s.Step = (s.Step - 1).clamp()

	case Update:
		s = applyPatch(s, act.Patch)

	case PlanResolved:
		plan := act.Plan
		s.Plan = &plan
		s.Tenant.PlanSlug = plan.Slug
		s.Tenant.BusinessType = plan.ResolvedBusinessType()
		s.Shape = ShapeFor(plan)
		s.Configuration.Features = s.Shape.Seed(s.Configuration.Features)
		s.Redirect = RedirectNone

	case PlanFailed:
		s.Plan = nil
		s.Tenant.PlanSlug = ""
		s.Tenant.BusinessType = ""
		s.Shape = Shape{Toggles: []Toggle{}, Fixed: []domain.Feature{}}
		s.Configuration.Features = map[string]bool{}
		s.Step = StepBusiness
		s.Redirect = RedirectPlanSelection

	case Submitted:
		sub := act.Submission
		s.Submission = &sub
		s.SubmitError = ""

	case SubmitFailed:
		s.SubmitError = act.Message
	}

	return s
}

func applyPatch(s State, p Patch) State {
	if t := p.Tenant; t != nil {
		setString(&s.Tenant.BusinessName, t.BusinessName)
		setString(&s.Tenant.ContactEmail, t.ContactEmail)
	}
	if a := p.Admin; a != nil {
		setString(&s.Admin.DisplayName, a.DisplayName)
		setString(&s.Admin.LoginEmail, a.LoginEmail)
	}
	for k, v := range p.Features {
		if s.Shape.Has(k) {
			s.Configuration.Features[k] = v
		}
	}
	if c := p.Colors; c != nil {
		setString(&s.Configuration.Colors.Primary, c.Primary)
		setString(&s.Configuration.Colors.Secondary, c.Secondary)
	}
	if i := p.Info; i != nil {
		setString(&s.Configuration.Info.Phone, i.Phone)
		setString(&s.Configuration.Info.Address, i.Address)
	}
	if sp := p.Services; sp != nil {
		s.Services = sp.Apply(s.Services)
	}
	if p.Period != nil {
		s.Period = p.Period.OrDefault()
	}
	return s
}

// Apply overlays p on sel and normalizes the result. Existing terminals carry
// no unit count.
func (p ServicesPatch) Apply(sel pricing.Selections) pricing.Selections {
	setBool(&sel.VoiceKitchen, p.VoiceKitchen)
	setBool(&sel.VoiceOrders, p.VoiceOrders)
	setBool(&sel.Photography, p.Photography)
	setBool(&sel.InitialDataLoad, p.InitialDataLoad)
	setBool(&sel.Training, p.Training)
	setBool(&sel.CatalogLoading, p.CatalogLoading)

	if p.TerminalSourcing != nil {
		sel.TerminalSourcing = *p.TerminalSourcing
	}
	if p.ScreenTier != nil {
		sel.ScreenTier = *p.ScreenTier
	}
	setQuantity(&sel.Terminals, p.Terminals)
	setQuantity(&sel.Screens, p.Screens)
	setQuantity(&sel.Printers, p.Printers)
	setQuantity(&sel.WaiterDevices, p.WaiterDevices)
	setQuantity(&sel.Tables, p.Tables)

	sel = pricing.DefaultPriceList.Normalize(sel)
	if sel.TerminalSourcing == pricing.TerminalSourcingExisting {
		sel.Terminals = 0
	}
	return sel
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setQuantity(dst *pricing.Quantity, v *pricing.Quantity) {
	if v != nil {
		*dst = *v
	}
}
