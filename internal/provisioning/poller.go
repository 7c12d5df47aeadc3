// Package provisioning tracks a paid checkout until its tenant is provisioned.
package provisioning

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/valenante/paginaVenta-sub002/internal/domain"
)

const (
	DefaultInterval            = 2 * time.Second
	DefaultMaxTransportRetries = 2
	defaultBackoffInitial      = 500 * time.Millisecond
	defaultBackoffMax          = 5 * time.Second
)

// StatusClient is the backend surface the poller needs.
type StatusClient interface {
	VerifyPayment(ctx context.Context, ref domain.ProvisioningRef) (domain.PaymentVerification, error)
	ProvisioningStatus(ctx context.Context, ref domain.ProvisioningRef) (domain.StatusReport, error)
}

// Options configures a Poller. Zero values take the defaults, except
// MaxTransportRetries where 0 means fail on the first transport error;
// use a negative value for the default.
type Options struct {
	Interval            time.Duration
	MaxTransportRetries int
	BackoffInitial      time.Duration
	BackoffMax          time.Duration
	Scheduler           Scheduler
}

// Snapshot is the observable state of a Poller.
type Snapshot struct {
	State            domain.ProvisioningState `json:"state"`
	Message          string                   `json:"message"`
	TenantName       string                   `json:"tenantName,omitempty"`
	PasswordSetupURL string                   `json:"passwordSetupUrl,omitempty"`
	ErrorMessage     string                   `json:"errorMessage,omitempty"`
	Polls            int                      `json:"polls"`
}

// Poller verifies the payment once, then polls the provisioning status until
// a terminal state is reached or Stop is called. At most one request is in
// flight: the next tick is scheduled only after a response was handled.
type Poller struct {
	client StatusClient
	ref    domain.ProvisioningRef
	opts   Options

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	snap     Snapshot
	alive    bool
	started  bool
	timer    Timer
	retries  int
	backoff  *backoff.ExponentialBackOff
	updates  chan Snapshot
	done     chan struct{}
	doneOnce sync.Once
}

func New(client StatusClient, ref domain.ProvisioningRef, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxTransportRetries < 0 {
		opts.MaxTransportRetries = DefaultMaxTransportRetries
	}
	if opts.BackoffInitial <= 0 {
		opts.BackoffInitial = defaultBackoffInitial
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = defaultBackoffMax
	}
	if opts.Scheduler == nil {
		opts.Scheduler = SystemScheduler()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.BackoffInitial
	b.MaxInterval = opts.BackoffMax
	b.Reset()

	return &Poller{
		client:  client,
		ref:     ref,
		opts:    opts,
		backoff: b,
		snap: Snapshot{
			State:   domain.ProvisioningVerifying,
			Message: Message(domain.ProvisioningVerifying),
		},
		updates: make(chan Snapshot, 1),
		done:    make(chan struct{}),
	}
}

// Start schedules the payment verification. It returns immediately; calling
// it twice has no effect.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}
	p.started = true
	p.alive = true
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.publishLocked()
	p.timer = p.opts.Scheduler.AfterFunc(0, p.verify)
}

// Stop cancels the pending tick and any in-flight request. Responses that
// arrive afterwards are discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.alive = false
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	cancel := p.cancel
	p.closeDone()
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Snapshot returns the current state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Updates delivers the latest snapshot after every change. Unread snapshots
// are replaced by newer ones.
func (p *Poller) Updates() <-chan Snapshot {
	return p.updates
}

// Done is closed once the poller reached a terminal state or was stopped.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) verify() {
	if !p.isAlive() {
		return
	}

	v, err := p.client.VerifyPayment(p.ctx, p.ref)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.alive {
		return
	}
	if err != nil {
		p.transportFailureLocked(err, p.verify)
		return
	}
	p.resetRetriesLocked()

	if !v.Paid() {
		p.finishLocked(domain.ProvisioningPaymentPending)
		return
	}

	p.setStateLocked(domain.ProvisioningInProgress)
	p.timer = p.opts.Scheduler.AfterFunc(p.opts.Interval, p.poll)
}

func (p *Poller) poll() {
	if !p.isAlive() {
		return
	}

	report, err := p.client.ProvisioningStatus(p.ctx, p.ref)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.alive {
		return
	}
	if err != nil {
		p.transportFailureLocked(err, p.poll)
		return
	}
	p.resetRetriesLocked()
	p.snap.Polls++
	p.absorbLocked(report)

	switch report.Status {
	case domain.StatusActive:
		p.finishLocked(domain.ProvisioningActive)
	case domain.StatusActiveWithWarnings:
		p.finishLocked(domain.ProvisioningActiveWithWarnings)
	case domain.StatusFailed:
		p.finishLocked(domain.ProvisioningFailed)
	default:
		p.setStateLocked(domain.ProvisioningInProgress)
		p.timer = p.opts.Scheduler.AfterFunc(p.opts.Interval, p.poll)
	}
}

// absorbLocked copies the side-channel fields present in report.
func (p *Poller) absorbLocked(report domain.StatusReport) {
	if report.TenantName != "" {
		p.snap.TenantName = report.TenantName
	}
	if report.PasswordSetupURL != "" {
		p.snap.PasswordSetupURL = report.PasswordSetupURL
	}
	if report.ErrorMessage != "" {
		p.snap.ErrorMessage = report.ErrorMessage
	}
}

func (p *Poller) transportFailureLocked(err error, retry func()) {
	if p.ctx.Err() != nil {
		p.alive = false
		p.timer = nil
		p.closeDone()
		return
	}

	if p.retries < p.opts.MaxTransportRetries {
		p.retries++
		wait := p.backoff.NextBackOff()
		log.Warn().Err(err).
			Str("precheckout_id", p.ref.PrecheckoutID).
			Int("retry", p.retries).
			Dur("wait", wait).
			Msg("provisioning status request failed, retrying")
		p.timer = p.opts.Scheduler.AfterFunc(wait, retry)
		return
	}

	log.Error().Err(err).
		Str("precheckout_id", p.ref.PrecheckoutID).
		Str("state", string(p.snap.State)).
		Msg("provisioning status unavailable")
	p.finishLocked(domain.ProvisioningTransportError)
}

func (p *Poller) resetRetriesLocked() {
	p.retries = 0
	p.backoff.Reset()
}

func (p *Poller) setStateLocked(state domain.ProvisioningState) {
	p.snap.State = state
	p.snap.Message = Message(state)
	p.publishLocked()
}

func (p *Poller) finishLocked(state domain.ProvisioningState) {
	p.setStateLocked(state)
	p.alive = false
	p.timer = nil
	p.closeDone()
}

// publishLocked replaces any unread snapshot with the current one. Only
// lock holders send, so the send after draining never blocks.
func (p *Poller) publishLocked() {
	select {
	case <-p.updates:
	default:
	}
	p.updates <- p.snap
}

func (p *Poller) closeDone() {
	p.doneOnce.Do(func() { close(p.done) })
}

func (p *Poller) isAlive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive
}
