package provisioning

import "github.com/valenante/paginaVenta-sub002/internal/domain"

// Message is the user-facing copy for a provisioning state. failed and
// transportError have distinct copy: the first is a setup failure, the
// second means the status could not be checked.
func Message(state domain.ProvisioningState) string {
	switch state {
	case domain.ProvisioningVerifying:
		return "Verificando tu pago..."
	case domain.ProvisioningPaymentPending:
		return "Tu pago todavía no está confirmado. Si ya pagaste, espera unos minutos y recarga la página."
	case domain.ProvisioningInProgress:
		return "Estamos preparando tu cuenta. Esto puede tardar un par de minutos."
	case domain.ProvisioningActive:
		return "¡Todo listo! Tu cuenta está activa."
	case domain.ProvisioningActiveWithWarnings:
		return "Tu cuenta está activa, pero algunos pasos necesitan revisión. Te contactaremos."
	case domain.ProvisioningFailed:
		return "Hubo un problema al configurar tu cuenta. Nuestro equipo ya fue notificado."
	case domain.ProvisioningTransportError:
		return "No pudimos comprobar el estado de tu cuenta. Recarga la página para volver a intentarlo."
	default:
		return ""
	}
}
