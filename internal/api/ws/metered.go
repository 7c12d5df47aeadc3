package ws

import (
	"context"
	"time"

	"github.com/valenante/paginaVenta-sub002/internal/domain"
	"github.com/valenante/paginaVenta-sub002/internal/metrics"
	"github.com/valenante/paginaVenta-sub002/internal/provisioning"
)

var _ provisioning.StatusClient = meteredClient{} //nolint:gochecknoglobals // compile-time check

// meteredClient counts and times the requests pollers send to the backend.
type meteredClient struct {
	next provisioning.StatusClient
}

func (m meteredClient) VerifyPayment(ctx context.Context, ref domain.ProvisioningRef) (domain.PaymentVerification, error) {
	start := time.Now()
	v, err := m.next.VerifyPayment(ctx, ref)
	observe("verify", start, err)
	return v, err
}

func (m meteredClient) ProvisioningStatus(ctx context.Context, ref domain.ProvisioningRef) (domain.StatusReport, error) {
	start := time.Now()
	report, err := m.next.ProvisioningStatus(ctx, ref)
	observe("status", start, err)
	return report, err
}

func observe(endpoint string, start time.Time, err error) {
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.StatusRequests.WithLabelValues(endpoint, outcome).Inc()
	metrics.BackendRequestDuration.WithLabelValues(endpoint, outcome).Observe(time.Since(start).Seconds())
}
