package v1_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"

	v1 "github.com/valenante/paginaVenta-sub002/internal/api/v1"
	"github.com/valenante/paginaVenta-sub002/internal/domain"
	"github.com/valenante/paginaVenta-sub002/internal/server/middleware"
	"github.com/valenante/paginaVenta-sub002/internal/wizard"
)

const testSecret = "test-wizard-secret"

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

func operatorCtx(subject string) context.Context {
	return context.WithValue(context.Background(), middleware.ContextKeyOperator, subject)
}

func tokenHeader(token string) string {
	return v1.WizardTokenHeader + ": " + token
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func restaurantPlan() domain.Plan {
	return domain.Plan{
		Slug:         "restaurante-pro",
		Name:         "Restaurante Pro",
		MonthlyPrice: 49.9,
		AnnualPrice:  548.9,
		Features: []domain.Feature{
			{Name: "Pedidos", Category: "Operativa", ConfigKey: "flujoPedidos.permitePedidosComida"},
			{Name: "Reservas", Category: "Clientes", ConfigKey: "reservas.activas"},
			{Name: "Soporte", Category: "Soporte"},
		},
	}
}

func shopPlan() domain.Plan {
	return domain.Plan{
		Slug:         "tienda-basica",
		Name:         "Tienda Básica",
		MonthlyPrice: 19.9,
		Features: []domain.Feature{
			{Name: "Catálogo", Category: "Tienda", ConfigKey: "tienda.catalogoOnline"},
		},
	}
}

// ---------------------------------------------------------------------------
// Mock PlanCatalog
// ---------------------------------------------------------------------------

type mockCatalog struct {
	listPlansFunc func(ctx context.Context) ([]domain.Plan, error)
}

func (m *mockCatalog) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	return m.listPlansFunc(ctx)
}

func staticCatalog(plans ...domain.Plan) *mockCatalog {
	return &mockCatalog{listPlansFunc: func(context.Context) ([]domain.Plan, error) {
		return plans, nil
	}}
}

// ---------------------------------------------------------------------------
// Mock CheckoutService
// ---------------------------------------------------------------------------

type mockCheckout struct {
	createCheckoutFunc func(ctx context.Context, b domain.DraftBundle) (string, error)
	createPaymentFunc  func(ctx context.Context, r domain.PaymentSessionRequest) (string, error)
}

func (m *mockCheckout) CreateCheckoutSession(ctx context.Context, b domain.DraftBundle) (string, error) {
	return m.createCheckoutFunc(ctx, b)
}

func (m *mockCheckout) CreatePaymentSession(ctx context.Context, r domain.PaymentSessionRequest) (string, error) {
	return m.createPaymentFunc(ctx, r)
}

// ---------------------------------------------------------------------------
// In-memory SessionStore
// ---------------------------------------------------------------------------

type memSessions struct {
	mu      sync.Mutex
	states  map[uuid.UUID]wizard.State
	saves   int
	saveErr error
}

func newMemSessions() *memSessions {
	return &memSessions{states: make(map[uuid.UUID]wizard.State)}
}

func (m *memSessions) SaveWizard(_ context.Context, s wizard.State, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.states[s.SessionID] = s
	return nil
}

func (m *memSessions) LoadWizard(_ context.Context, id uuid.UUID) (wizard.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[id]
	if !ok {
		return wizard.State{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *memSessions) DeleteWizard(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, id)
	return nil
}

func (m *memSessions) get(id uuid.UUID) wizard.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[id]
}

// ---------------------------------------------------------------------------
// Mock CheckoutAttemptRepository
// ---------------------------------------------------------------------------

type mockAttemptRepo struct {
	createFunc      func(ctx context.Context, a *domain.CheckoutAttempt) error
	getFunc         func(ctx context.Context, precheckoutID string) (*domain.CheckoutAttempt, error)
	updateStateFunc func(ctx context.Context, precheckoutID string, state domain.ProvisioningState) error
}

func (m *mockAttemptRepo) Create(ctx context.Context, a *domain.CheckoutAttempt) error {
	return m.createFunc(ctx, a)
}

func (m *mockAttemptRepo) GetByPrecheckoutID(ctx context.Context, precheckoutID string) (*domain.CheckoutAttempt, error) {
	return m.getFunc(ctx, precheckoutID)
}

func (m *mockAttemptRepo) UpdateState(ctx context.Context, precheckoutID string, state domain.ProvisioningState) error {
	return m.updateStateFunc(ctx, precheckoutID, state)
}

type mockAttemptStore struct {
	attempts domain.CheckoutAttemptRepository
}

func (m *mockAttemptStore) CheckoutAttempts() domain.CheckoutAttemptRepository { return m.attempts }

// ---------------------------------------------------------------------------
// Wizard API harness
// ---------------------------------------------------------------------------

type wizardHarness struct {
	api      humatest.TestAPI
	sessions *memSessions
}

func newWizardHarness(t *testing.T, catalog wizard.PlanCatalog, checkout wizard.CheckoutService, attempts domain.CheckoutAttemptRepository) *wizardHarness {
	t.Helper()

	if attempts == nil {
		attempts = &mockAttemptRepo{}
	}

	_, api := humatest.New(t)
	sessions := newMemSessions()
	v1.RegisterWizardRoutes(api, v1.WizardDeps{
		Sessions:   sessions,
		Attempts:   &mockAttemptStore{attempts: attempts},
		Controller: wizard.NewController(catalog, checkout),
		Secret:     testSecret,
		SessionTTL: time.Hour,
	})
	return &wizardHarness{api: api, sessions: sessions}
}
