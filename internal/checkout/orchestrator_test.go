package checkout_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blackgym/storefront/internal/checkout"
	appErrors "github.com/blackgym/storefront/internal/errors"
	"github.com/blackgym/storefront/internal/models"
	"github.com/blackgym/storefront/internal/notification"
	"github.com/blackgym/storefront/internal/notify"
	"github.com/blackgym/storefront/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCart struct {
	mu       sync.Mutex
	items    []models.CartItem
	total    float64
	hydrated bool
	cleared  bool
}

func (c *fakeCart) Snapshot() models.CartSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]models.CartItem, len(c.items))
	copy(items, c.items)

	count := 0
	for _, item := range items {
		count += item.Quantity
	}

	return models.CartSnapshot{Items: items, Total: c.total, ItemCount: count}
}

func (c *fakeCart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items) == 0
}

func (c *fakeCart) HasHydrated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.hydrated
}

func (c *fakeCart) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.cleared = true
}

func (c *fakeCart) wasCleared() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cleared
}

type fakeStock struct {
	result *models.StockResult
	err    error
	got    []models.StockQuery
}

func (s *fakeStock) CheckStock(ctx context.Context, queries []models.StockQuery) (*models.StockResult, error) {
	s.got = queries

	return s.result, s.err
}

type fakeOrders struct {
	created *models.Orden
	err     error
	got     models.OrdenCreate
}

func (o *fakeOrders) Create(ctx context.Context, orden models.OrdenCreate) (*models.Orden, error) {
	o.got = orden

	return o.created, o.err
}

type fakeMailer struct {
	mu        sync.Mutex
	sent      bool
	recipient string
	err       error
	done      chan struct{}
}

func newFakeMailer(err error) *fakeMailer {
	return &fakeMailer{err: err, done: make(chan struct{})}
}

func (m *fakeMailer) SendOrderConfirmation(ctx context.Context, orden *models.Orden, form models.CheckoutForm, lines []notification.LineDetail, recipient string) error {
	m.mu.Lock()
	m.sent = true
	m.recipient = recipient
	m.mu.Unlock()

	close(m.done)

	return m.err
}

// fakeRunner captures the hooks so the test drives the simulation by hand.
type fakeRunner struct {
	hooks   payment.Hooks
	started bool
	stopped bool
}

func (r *fakeRunner) Start() { r.started = true }
func (r *fakeRunner) Stop()  { r.stopped = true }

type fixture struct {
	cart   *fakeCart
	stock  *fakeStock
	orders *fakeOrders
	mailer *fakeMailer
	events *notify.Recorder
	runner *fakeRunner
}

func validForm() models.CheckoutForm {
	return models.CheckoutForm{
		Name:    "Juan Perez",
		Phone:   "5555 1234",
		Email:   "juan@example.com",
		Address: "4a Avenida 12-34",
		City:    "Guatemala",
		Region:  "Guatemala",
	}
}

func validCard() models.CardDetails {
	return models.CardDetails{
		Number:      "4111 1111 1111 1111",
		Holder:      "Juan Perez",
		ExpiryMonth: 12,
		ExpiryYear:  2030,
		CVV:         "123",
	}
}

func newFixture() *fixture {
	return &fixture{
		cart: &fakeCart{
			hydrated: true,
			items: []models.CartItem{
				{ProductID: 1, Name: "Mancuernas 10kg", UnitPrice: 250.00, AvailableStock: 5, Quantity: 2},
			},
			total: 500.00,
		},
		stock:  &fakeStock{result: &models.StockResult{OK: true}},
		orders: &fakeOrders{created: &models.Orden{ID: 77, Cliente: "Juan Perez", Total: 500.00}},
		mailer: newFakeMailer(nil),
		events: notify.NewRecorder(),
		runner: &fakeRunner{},
	}
}

func newOrchestrator(f *fixture) *checkout.Orchestrator {
	return checkout.New(checkout.Deps{
		Cart:         f.cart,
		Stock:        f.stock,
		Orders:       f.orders,
		Mailer:       f.mailer,
		Notifier:     f.events,
		EmailTimeout: time.Second,
		NewRunner: func(hooks payment.Hooks) checkout.Runner {
			f.runner.hooks = hooks

			return f.runner
		},
	})
}

// advance walks a session from form to a driven processing run.
func advance(t *testing.T, o *checkout.Orchestrator, f *fixture) {
	t.Helper()

	fieldErrs, err := o.SubmitForm(context.Background(), validForm())
	require.NoError(t, err)
	require.Empty(t, fieldErrs)

	fieldErrs, err = o.SubmitCard(context.Background(), validCard())
	require.NoError(t, err)
	require.Empty(t, fieldErrs)
	require.True(t, f.runner.started)
}

func TestSubmitForm(t *testing.T) {
	t.Run("Success - Advances To Payment", func(t *testing.T) {
		// Arrange
		f := newFixture()
		o := newOrchestrator(f)

		// Act
		fieldErrs, err := o.SubmitForm(context.Background(), validForm())

		// Assert
		assert.NoError(t, err)
		assert.Empty(t, fieldErrs)
		assert.Equal(t, checkout.StepPayment, o.Session().Step)
	})

	t.Run("Failure - Missing Fields Block Transition", func(t *testing.T) {
		// Arrange
		f := newFixture()
		o := newOrchestrator(f)

		// Act
		fieldErrs, err := o.SubmitForm(context.Background(), models.CheckoutForm{})

		// Assert
		assert.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeValidation, appErr.Code)
		assert.Contains(t, fieldErrs, "cliente")
		assert.Contains(t, fieldErrs, "telefono")
		assert.Contains(t, fieldErrs, "email")
		assert.Contains(t, fieldErrs, "direccion")
		assert.Contains(t, fieldErrs, "ciudad")
		assert.Contains(t, fieldErrs, "departamento")
		assert.Equal(t, checkout.StepForm, o.Session().Step)
	})

	t.Run("Failure - Invalid Email And Phone", func(t *testing.T) {
		// Arrange
		f := newFixture()
		o := newOrchestrator(f)

		form := validForm()
		form.Email = "not-an-email"
		form.Phone = "12ab34"

		// Act
		fieldErrs, err := o.SubmitForm(context.Background(), form)

		// Assert
		assert.Error(t, err)
		assert.Equal(t, "Invalid email format", fieldErrs["email"])
		assert.Contains(t, fieldErrs["telefono"], "digits")
	})

	t.Run("Failure - Empty Cart", func(t *testing.T) {
		// Arrange
		f := newFixture()
		f.cart.items = nil
		o := newOrchestrator(f)

		// Act
		fieldErrs, err := o.SubmitForm(context.Background(), validForm())

		// Assert
		assert.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeEmptyCart, appErr.Code)
		assert.Empty(t, fieldErrs)
		assert.Equal(t, checkout.StepForm, o.Session().Step)
	})

	t.Run("Failure - Wrong Step", func(t *testing.T) {
		// Arrange
		f := newFixture()
		o := newOrchestrator(f)
		_, err := o.SubmitForm(context.Background(), validForm())
		require.NoError(t, err)

		// Act
		_, err = o.SubmitForm(context.Background(), validForm())

		// Assert
		assert.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeInvalidState, appErr.Code)
	})
}

func TestGuardEmptyCart(t *testing.T) {
	t.Run("Success - Fires On Hydrated Empty Cart", func(t *testing.T) {
		// Arrange
		f := newFixture()
		f.cart.items = nil
		o := newOrchestrator(f)

		// Act & Assert
		assert.True(t, o.GuardEmptyCart())
	})

	t.Run("Success - Holds While Hydrating", func(t *testing.T) {
		// Arrange
		f := newFixture()
		f.cart.items = nil
		f.cart.hydrated = false
		o := newOrchestrator(f)

		// Act & Assert
		assert.False(t, o.GuardEmptyCart())
	})

	t.Run("Success - Holds Past The Form Step", func(t *testing.T) {
		// Arrange
		f := newFixture()
		o := newOrchestrator(f)
		_, err := o.SubmitForm(context.Background(), validForm())
		require.NoError(t, err)

		f.cart.items = nil

		// Act & Assert
		assert.False(t, o.GuardEmptyCart())
	})
}

func TestSubmitCard(t *testing.T) {
	t.Run("Success - Advances To Processing", func(t *testing.T) {
		// Arrange
		f := newFixture()
		o := newOrchestrator(f)
		_, err := o.SubmitForm(context.Background(), validForm())
		require.NoError(t, err)

		// Act
		fieldErrs, err := o.SubmitCard(context.Background(), validCard())

		// Assert
		assert.NoError(t, err)
		assert.Empty(t, fieldErrs)
		assert.True(t, f.runner.started)

		session := o.Session()
		assert.Equal(t, checkout.StepProcessing, session.Step)
		assert.Equal(t, "**** **** **** 1111", session.CardMasked)
		assert.Equal(t, payment.BrandVisa, session.CardBrand)
		assert.Len(t, session.Items, 1)
		assert.InDelta(t, 500.00, session.Total, 0.001)
	})

	t.Run("Failure - Invalid Card Blocks Transition", func(t *testing.T) {
		// Arrange
		f := newFixture()
		o := newOrchestrator(f)
		_, err := o.SubmitForm(context.Background(), validForm())
		require.NoError(t, err)

		card := validCard()
		card.Number = "4111111111111112"

		// Act
		fieldErrs, err := o.SubmitCard(context.Background(), card)

		// Assert
		assert.Error(t, err)
		assert.Contains(t, fieldErrs, "cardNumber")
		assert.False(t, f.runner.started)
		assert.Equal(t, checkout.StepPayment, o.Session().Step)
	})

	t.Run("Failure - Wrong Step", func(t *testing.T) {
		// Arrange
		f := newFixture()
		o := newOrchestrator(f)

		// Act
		_, err := o.SubmitCard(context.Background(), validCard())

		// Assert
		assert.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeInvalidState, appErr.Code)
	})
}

func TestProcessingOutcome(t *testing.T) {
	t.Run("Success - Order Submitted And Cart Cleared", func(t *testing.T) {
		// Arrange
		f := newFixture()
		o := newOrchestrator(f)
		advance(t, o, f)

		// Act: drive the simulation to a successful outcome
		f.runner.hooks.Progress(100)
		f.runner.hooks.Done(true)

		// Assert
		session := o.Session()
		assert.Equal(t, checkout.StepResult, session.Step)
		assert.Equal(t, checkout.OutcomeSuccess, session.Outcome)
		assert.Equal(t, int64(77), session.OrderID)
		assert.True(t, strings.HasPrefix(session.TransactionID, "TXN-"))
		assert.Equal(t, 100, session.Progress)

		assert.Equal(t, "Juan Perez", f.orders.got.Cliente)
		require.Len(t, f.orders.got.Productos, 1)
		assert.Equal(t, int64(1), f.orders.got.Productos[0].ID)
		assert.Equal(t, 2, f.orders.got.Productos[0].Cantidad)
		assert.InDelta(t, 250.00, f.orders.got.Productos[0].PrecioUnitario, 0.001)

		require.Len(t, f.stock.got, 1)
		assert.Equal(t, int64(1), f.stock.got[0].ID)

		assert.True(t, f.cart.wasCleared())

		select {
		case <-f.mailer.done:
			assert.Equal(t, "juan@example.com", f.mailer.recipient)
		case <-time.After(time.Second):
			t.Fatal("confirmation email never fired")
		}
	})

	t.Run("Failure - Declined Payment", func(t *testing.T) {
		// Arrange
		f := newFixture()
		o := newOrchestrator(f)
		advance(t, o, f)

		// Act
		f.runner.hooks.Done(false)

		// Assert
		session := o.Session()
		assert.Equal(t, checkout.StepResult, session.Step)
		assert.Equal(t, checkout.OutcomeFailure, session.Outcome)
		assert.Equal(t, checkout.ReasonInsufficientFunds, session.FailureReason)
		assert.Empty(t, session.TransactionID)
		assert.False(t, f.cart.wasCleared())
	})

	t.Run("Failure - Order Submission Error", func(t *testing.T) {
		// Arrange
		f := newFixture()
		f.orders.created = nil
		f.orders.err = errors.New("backend down")
		o := newOrchestrator(f)
		advance(t, o, f)

		// Act
		f.runner.hooks.Done(true)

		// Assert
		session := o.Session()
		assert.Equal(t, checkout.OutcomeFailure, session.Outcome)
		assert.Equal(t, checkout.ReasonServerError, session.FailureReason)
		assert.False(t, f.cart.wasCleared())
	})

	t.Run("Failure - Stock Shortfall", func(t *testing.T) {
		// Arrange
		f := newFixture()
		f.stock.result = &models.StockResult{
			OK: false,
			Shortfalls: []models.StockShortfall{
				{ID: 1, Mensaje: "Mancuernas 10kg: only 1 unit left"},
			},
		}
		o := newOrchestrator(f)
		advance(t, o, f)

		// Act
		f.runner.hooks.Done(true)

		// Assert
		session := o.Session()
		assert.Equal(t, checkout.OutcomeFailure, session.Outcome)
		assert.Equal(t, "Mancuernas 10kg: only 1 unit left", session.FailureReason)
		assert.Zero(t, f.orders.got.Cliente)
	})

	t.Run("Success - Email Failure Does Not Fail Checkout", func(t *testing.T) {
		// Arrange
		f := newFixture()
		f.mailer = newFakeMailer(errors.New("sendgrid unavailable"))
		o := newOrchestrator(f)
		advance(t, o, f)

		// Act
		f.runner.hooks.Done(true)

		// Assert
		session := o.Session()
		assert.Equal(t, checkout.OutcomeSuccess, session.Outcome)

		select {
		case <-f.mailer.done:
		case <-time.After(time.Second):
			t.Fatal("confirmation email never fired")
		}
	})
}

func TestRetry(t *testing.T) {
	t.Run("Success - Failed Result Returns To Payment", func(t *testing.T) {
		// Arrange
		f := newFixture()
		o := newOrchestrator(f)
		advance(t, o, f)
		f.runner.hooks.Done(false)

		// Act
		err := o.Retry()

		// Assert
		assert.NoError(t, err)

		session := o.Session()
		assert.Equal(t, checkout.StepPayment, session.Step)
		assert.Equal(t, checkout.OutcomePending, session.Outcome)
		assert.Empty(t, session.FailureReason)
		assert.Zero(t, session.Progress)
	})

	t.Run("Failure - Not Available After Success", func(t *testing.T) {
		// Arrange
		f := newFixture()
		o := newOrchestrator(f)
		advance(t, o, f)
		f.runner.hooks.Done(true)

		// Act
		err := o.Retry()

		// Assert
		assert.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeInvalidState, appErr.Code)
	})

	t.Run("Failure - Not Available Mid-Flow", func(t *testing.T) {
		// Arrange
		f := newFixture()
		o := newOrchestrator(f)

		// Act & Assert
		assert.Error(t, o.Retry())
	})
}

func TestCancel(t *testing.T) {
	t.Run("Success - Payment Returns To Form", func(t *testing.T) {
		// Arrange
		f := newFixture()
		o := newOrchestrator(f)
		_, err := o.SubmitForm(context.Background(), validForm())
		require.NoError(t, err)

		// Act
		err = o.Cancel()

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, checkout.StepForm, o.Session().Step)
	})

	t.Run("Success - Processing Stops The Runner", func(t *testing.T) {
		// Arrange
		f := newFixture()
		o := newOrchestrator(f)
		advance(t, o, f)

		// Act
		err := o.Cancel()

		// Assert
		assert.NoError(t, err)
		assert.True(t, f.runner.stopped)

		session := o.Session()
		assert.Equal(t, checkout.StepPayment, session.Step)
		assert.Zero(t, session.Progress)
	})

	t.Run("Success - Form Is A No-Op", func(t *testing.T) {
		// Arrange
		f := newFixture()
		o := newOrchestrator(f)

		// Act & Assert
		assert.NoError(t, o.Cancel())
		assert.Equal(t, checkout.StepForm, o.Session().Step)
	})

	t.Run("Failure - Result Is Terminal", func(t *testing.T) {
		// Arrange
		f := newFixture()
		o := newOrchestrator(f)
		advance(t, o, f)
		f.runner.hooks.Done(false)

		// Act
		err := o.Cancel()

		// Assert
		assert.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeInvalidState, appErr.Code)
	})
}

func TestProgressAndPhaseHooks(t *testing.T) {
	// Arrange
	f := newFixture()
	o := newOrchestrator(f)
	advance(t, o, f)

	// Act
	f.runner.hooks.Progress(42)
	f.runner.hooks.Phase(2)

	// Assert
	session := o.Session()
	assert.Equal(t, 42, session.Progress)
	assert.Equal(t, 2, session.PhaseIndex)
	assert.Equal(t, payment.Phases[2], session.Phase)
}
