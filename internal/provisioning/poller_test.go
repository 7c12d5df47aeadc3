package provisioning_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valenante/paginaVenta-sub002/internal/domain"
	"github.com/valenante/paginaVenta-sub002/internal/provisioning"
)

// ---------------------------------------------------------------------------
// Fake scheduler
// ---------------------------------------------------------------------------

type fakeTimer struct {
	at      time.Duration
	delay   time.Duration
	f       func()
	stopped bool
	sched   *fakeScheduler
}

func (t *fakeTimer) Stop() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	pending []*fakeTimer
	delays  []time.Duration
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) provisioning.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{at: s.now + d, delay: d, f: f, sched: s}
	s.pending = append(s.pending, t)
	s.delays = append(s.delays, d)
	return t
}

// runNext fires the earliest live timer on the calling goroutine. It
// returns false when nothing is pending.
func (s *fakeScheduler) runNext() bool {
	s.mu.Lock()
	live := s.pending[:0]
	for _, t := range s.pending {
		if !t.stopped {
			live = append(live, t)
		}
	}
	s.pending = live
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return false
	}
	sort.SliceStable(s.pending, func(i, j int) bool { return s.pending[i].at < s.pending[j].at })
	next := s.pending[0]
	s.pending = s.pending[1:]
	s.now = next.at
	s.mu.Unlock()

	next.f()
	return true
}

func (s *fakeScheduler) runAll(t *testing.T) {
	t.Helper()
	for i := 0; s.runNext(); i++ {
		require.Less(t, i, 100, "poller did not settle")
	}
}

func (s *fakeScheduler) livePending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (s *fakeScheduler) scheduledDelays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// ---------------------------------------------------------------------------
// Scripted client
// ---------------------------------------------------------------------------

type statusResult struct {
	report domain.StatusReport
	err    error
}

type scriptedClient struct {
	mu           sync.Mutex
	verifyResult domain.PaymentVerification
	verifyErrs   []error
	statuses     []statusResult
	verifyCalls  int
	statusCalls  int
}

func (c *scriptedClient) VerifyPayment(context.Context, domain.ProvisioningRef) (domain.PaymentVerification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verifyCalls++
	if len(c.verifyErrs) > 0 {
		err := c.verifyErrs[0]
		c.verifyErrs = c.verifyErrs[1:]
		return domain.PaymentVerification{}, err
	}
	return c.verifyResult, nil
}

func (c *scriptedClient) ProvisioningStatus(context.Context, domain.ProvisioningRef) (domain.StatusReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusCalls++
	if len(c.statuses) == 0 {
		return domain.StatusReport{Status: domain.StatusProvisioning}, nil
	}
	r := c.statuses[0]
	c.statuses = c.statuses[1:]
	return r.report, r.err
}

func (c *scriptedClient) calls() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verifyCalls, c.statusCalls
}

func paid() domain.PaymentVerification {
	return domain.PaymentVerification{PaymentStatus: "paid"}
}

var ref = domain.ProvisioningRef{SessionID: "cs_test_1", PrecheckoutID: "pre_1"} //nolint:gochecknoglobals // test fixture

func newPoller(client provisioning.StatusClient, sched *fakeScheduler, retries int) *provisioning.Poller {
	return provisioning.New(client, ref, provisioning.Options{
		Interval:            2 * time.Second,
		MaxTransportRetries: retries,
		BackoffInitial:      100 * time.Millisecond,
		BackoffMax:          time.Second,
		Scheduler:           sched,
	})
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// State machine
// ---------------------------------------------------------------------------

func TestPoller_HappyPath(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{
		verifyResult: paid(),
		statuses: []statusResult{
			{report: domain.StatusReport{Status: domain.StatusPaymentPending}},
			{report: domain.StatusReport{Status: domain.StatusProvisioning, TenantName: "Casa Pepe"}},
			{report: domain.StatusReport{Status: domain.StatusActive, PasswordSetupURL: "https://app.example.com/setup/xyz"}},
		},
	}
	sched := &fakeScheduler{}
	p := newPoller(client, sched, 0)

	p.Start(context.Background())
	assert.Equal(t, domain.ProvisioningVerifying, p.Snapshot().State)

	require.True(t, sched.runNext())
	assert.Equal(t, domain.ProvisioningInProgress, p.Snapshot().State)

	sched.runAll(t)

	snap := p.Snapshot()
	assert.Equal(t, domain.ProvisioningActive, snap.State)
	assert.Equal(t, "Casa Pepe", snap.TenantName)
	assert.Equal(t, "https://app.example.com/setup/xyz", snap.PasswordSetupURL)
	assert.Equal(t, 3, snap.Polls)
	assert.True(t, isClosed(p.Done()))

	verifies, polls := client.calls()
	assert.Equal(t, 1, verifies)
	assert.Equal(t, 3, polls)
	assert.Equal(t, []time.Duration{0, 2 * time.Second, 2 * time.Second, 2 * time.Second}, sched.scheduledDelays())
}

func TestPoller_PaymentNotConfirmed(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{verifyResult: domain.PaymentVerification{PaymentStatus: "unpaid"}}
	sched := &fakeScheduler{}
	p := newPoller(client, sched, 0)

	p.Start(context.Background())
	sched.runAll(t)

	assert.Equal(t, domain.ProvisioningPaymentPending, p.Snapshot().State)
	_, polls := client.calls()
	assert.Zero(t, polls)
	assert.Zero(t, sched.livePending())
}

func TestPoller_BackendFailure(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{
		verifyResult: paid(),
		statuses: []statusResult{
			{report: domain.StatusReport{Status: domain.StatusProvisioning, TenantName: "Casa Pepe"}},
			{report: domain.StatusReport{Status: domain.StatusFailed, ErrorMessage: "dominio no disponible"}},
		},
	}
	sched := &fakeScheduler{}
	p := newPoller(client, sched, 2)

	p.Start(context.Background())
	sched.runAll(t)

	snap := p.Snapshot()
	assert.Equal(t, domain.ProvisioningFailed, snap.State)
	assert.Equal(t, "dominio no disponible", snap.ErrorMessage)
	assert.Equal(t, "Casa Pepe", snap.TenantName)
	assert.Zero(t, sched.livePending())
}

func TestPoller_ActiveWithWarnings(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{
		verifyResult: paid(),
		statuses: []statusResult{
			{report: domain.StatusReport{Status: "SOMETHING_NEW"}},
			{report: domain.StatusReport{Status: domain.StatusActiveWithWarnings}},
		},
	}
	sched := &fakeScheduler{}
	p := newPoller(client, sched, 0)

	p.Start(context.Background())
	sched.runAll(t)

	assert.Equal(t, domain.ProvisioningActiveWithWarnings, p.Snapshot().State)
	_, polls := client.calls()
	assert.Equal(t, 2, polls)
}

// ---------------------------------------------------------------------------
// Transport failures
// ---------------------------------------------------------------------------

func TestPoller_TransportFailFast(t *testing.T) {
	t.Parallel()

	t.Run("during verification", func(t *testing.T) {
		t.Parallel()

		client := &scriptedClient{verifyErrs: []error{errors.New("connection refused")}}
		sched := &fakeScheduler{}
		p := newPoller(client, sched, 0)

		p.Start(context.Background())
		sched.runAll(t)

		assert.Equal(t, domain.ProvisioningTransportError, p.Snapshot().State)
		_, polls := client.calls()
		assert.Zero(t, polls)
	})

	t.Run("during polling", func(t *testing.T) {
		t.Parallel()

		client := &scriptedClient{
			verifyResult: paid(),
			statuses:     []statusResult{{err: errors.New("502")}},
		}
		sched := &fakeScheduler{}
		p := newPoller(client, sched, 0)

		p.Start(context.Background())
		sched.runAll(t)

		assert.Equal(t, domain.ProvisioningTransportError, p.Snapshot().State)
		_, polls := client.calls()
		assert.Equal(t, 1, polls)
		assert.Zero(t, sched.livePending())
	})
}

func TestPoller_TransportRetries(t *testing.T) {
	t.Parallel()

	t.Run("recovers within budget", func(t *testing.T) {
		t.Parallel()

		client := &scriptedClient{
			verifyResult: paid(),
			statuses: []statusResult{
				{err: errors.New("timeout")},
				{err: errors.New("timeout")},
				{report: domain.StatusReport{Status: domain.StatusActive}},
			},
		}
		sched := &fakeScheduler{}
		p := newPoller(client, sched, 2)

		p.Start(context.Background())
		sched.runAll(t)

		assert.Equal(t, domain.ProvisioningActive, p.Snapshot().State)

		delays := sched.scheduledDelays()
		require.Len(t, delays, 4)
		for _, d := range delays[2:] {
			assert.Positive(t, d)
			assert.LessOrEqual(t, d, time.Second)
		}
	})

	t.Run("exhausted budget", func(t *testing.T) {
		t.Parallel()

		client := &scriptedClient{
			verifyResult: paid(),
			statuses: []statusResult{
				{err: errors.New("timeout")},
				{err: errors.New("timeout")},
				{err: errors.New("timeout")},
			},
		}
		sched := &fakeScheduler{}
		p := newPoller(client, sched, 2)

		p.Start(context.Background())
		sched.runAll(t)

		assert.Equal(t, domain.ProvisioningTransportError, p.Snapshot().State)
		_, polls := client.calls()
		assert.Equal(t, 3, polls)
	})

	t.Run("negative means default", func(t *testing.T) {
		t.Parallel()

		client := &scriptedClient{verifyErrs: []error{errors.New("a"), errors.New("b")}, verifyResult: paid()}
		sched := &fakeScheduler{}
		p := newPoller(client, sched, -1)

		p.Start(context.Background())
		require.True(t, sched.runNext())
		require.True(t, sched.runNext())
		require.True(t, sched.runNext())

		assert.Equal(t, domain.ProvisioningInProgress, p.Snapshot().State)
		verifies, _ := client.calls()
		assert.Equal(t, 3, verifies)
	})
}

func TestMessage_DistinctTerminalCopy(t *testing.T) {
	t.Parallel()

	states := []domain.ProvisioningState{
		domain.ProvisioningVerifying,
		domain.ProvisioningPaymentPending,
		domain.ProvisioningInProgress,
		domain.ProvisioningActive,
		domain.ProvisioningActiveWithWarnings,
		domain.ProvisioningFailed,
		domain.ProvisioningTransportError,
	}

	seen := make(map[string]domain.ProvisioningState)
	for _, s := range states {
		msg := provisioning.Message(s)
		require.NotEmpty(t, msg, "state %s", s)
		prev, dup := seen[msg]
		assert.False(t, dup, "%s and %s share copy", s, prev)
		seen[msg] = s
	}
	assert.Empty(t, provisioning.Message("bogus"))
}

// ---------------------------------------------------------------------------
// Cancellation
// ---------------------------------------------------------------------------

type blockingClient struct {
	scriptedClient
	entered chan struct{}
	release chan struct{}
}

func (c *blockingClient) ProvisioningStatus(ctx context.Context, r domain.ProvisioningRef) (domain.StatusReport, error) {
	c.entered <- struct{}{}
	<-c.release
	_, _ = c.scriptedClient.ProvisioningStatus(ctx, r)
	return domain.StatusReport{Status: domain.StatusActive, TenantName: "late"}, nil
}

func TestPoller_StopDuringInFlightRequest(t *testing.T) {
	t.Parallel()

	client := &blockingClient{
		scriptedClient: scriptedClient{verifyResult: paid()},
		entered:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	sched := &fakeScheduler{}
	p := newPoller(client, sched, 2)

	p.Start(context.Background())
	require.True(t, sched.runNext())
	require.Equal(t, domain.ProvisioningInProgress, p.Snapshot().State)

	tickDone := make(chan struct{})
	go func() {
		defer close(tickDone)
		sched.runNext()
	}()

	<-client.entered
	p.Stop()
	close(client.release)
	<-tickDone

	snap := p.Snapshot()
	assert.Equal(t, domain.ProvisioningInProgress, snap.State, "late response must be discarded")
	assert.Empty(t, snap.TenantName)
	assert.Zero(t, sched.livePending())
	assert.True(t, isClosed(p.Done()))

	sched.runAll(t)
	_, polls := client.calls()
	assert.Equal(t, 1, polls)
}

func TestPoller_StopBeforeVerification(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{verifyResult: paid()}
	sched := &fakeScheduler{}
	p := newPoller(client, sched, 0)

	p.Start(context.Background())
	p.Stop()
	sched.runAll(t)

	verifies, polls := client.calls()
	assert.Zero(t, verifies)
	assert.Zero(t, polls)
}

func TestPoller_Updates(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{
		verifyResult: paid(),
		statuses:     []statusResult{{report: domain.StatusReport{Status: domain.StatusActive}}},
	}
	sched := &fakeScheduler{}
	p := newPoller(client, sched, 0)

	p.Start(context.Background())
	first := <-p.Updates()
	assert.Equal(t, domain.ProvisioningVerifying, first.State)

	sched.runAll(t)

	last := <-p.Updates()
	assert.Equal(t, domain.ProvisioningActive, last.State)
	assert.Equal(t, provisioning.Message(domain.ProvisioningActive), last.Message)

	select {
	case extra := <-p.Updates():
		t.Fatalf("unexpected update %+v", extra)
	default:
	}
}

func TestPoller_RealScheduler(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{
		verifyResult: paid(),
		statuses:     []statusResult{{report: domain.StatusReport{Status: domain.StatusActive}}},
	}
	p := provisioning.New(client, ref, provisioning.Options{Interval: 5 * time.Millisecond})

	p.Start(context.Background())
	defer p.Stop()

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not finish")
	}
	assert.Equal(t, domain.ProvisioningActive, p.Snapshot().State)
}
