package domain

// TenantDraft is the business being onboarded.
type TenantDraft struct {
	BusinessName string       `json:"businessName"`
	ContactEmail string       `json:"contactEmail"`
	PlanSlug     string       `json:"planSlug"`
	BusinessType BusinessType `json:"businessType"`
}

// AdminDraft is the owner account created alongside the tenant.
type AdminDraft struct {
	DisplayName string `json:"displayName"`
	LoginEmail  string `json:"loginEmail"`
}

type Colors struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

type BusinessInfo struct {
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ConfigurationDraft holds the plan-shaped feature toggles, keyed by dotted
// path (e.g. "flujoPedidos.permitePedidosComida"), plus theming and contact
// details.
type ConfigurationDraft struct {
	Features map[string]bool `json:"features"`
	Colors   Colors          `json:"colors"`
	Info     BusinessInfo    `json:"info"`
}

// Clone returns a deep copy so reducers never share the feature map.
func (c ConfigurationDraft) Clone() ConfigurationDraft {
	out := c
	out.Features = make(map[string]bool, len(c.Features))
	for k, v := range c.Features {
		out.Features[k] = v
	}
	return out
}
