package domain

// ProvisioningState is the client-observed state of a tenant provisioning job.
type ProvisioningState string

const (
	ProvisioningVerifying          ProvisioningState = "verifying"
	ProvisioningPaymentPending     ProvisioningState = "paymentPending"
	ProvisioningInProgress         ProvisioningState = "provisioning"
	ProvisioningActive             ProvisioningState = "active"
	ProvisioningActiveWithWarnings ProvisioningState = "activeWithWarnings"
	ProvisioningFailed             ProvisioningState = "failed"
	ProvisioningTransportError     ProvisioningState = "transportError"
)

// Terminal reports whether no further transition can leave s.
func (s ProvisioningState) Terminal() bool {
	switch s {
	case ProvisioningPaymentPending,
		ProvisioningActive,
		ProvisioningActiveWithWarnings,
		ProvisioningFailed,
		ProvisioningTransportError:
		return true
	default:
		return false
	}
}

// Settled reports whether s is a backend outcome that later polls cannot
// change. Payment and transport states stay open to a fresh verification.
func (s ProvisioningState) Settled() bool {
	switch s {
	case ProvisioningActive, ProvisioningActiveWithWarnings, ProvisioningFailed:
		return true
	default:
		return false
	}
}

// BackendStatus is the job status reported by the platform backend.
type BackendStatus string

const (
	StatusPaymentPending     BackendStatus = "PAYMENT_PENDING"
	StatusProvisioning       BackendStatus = "PROVISIONING"
	StatusActive             BackendStatus = "ACTIVE"
	StatusActiveWithWarnings BackendStatus = "ACTIVE_WITH_WARNINGS"
	StatusFailed             BackendStatus = "FAILED"
)

// ProvisioningRef identifies one checkout attempt to the status endpoints.
type ProvisioningRef struct {
	SessionID     string `json:"sessionId"`
	PrecheckoutID string `json:"precheckoutId"`
}

type PaymentVerification struct {
	PaymentStatus string `json:"payment_status"`
}

func (v PaymentVerification) Paid() bool {
	return v.PaymentStatus == "paid"
}

// StatusReport is one answer of the provisioning status endpoint.
type StatusReport struct {
	Status           BackendStatus
	TenantName       string
	PasswordSetupURL string
	ErrorMessage     string
}
