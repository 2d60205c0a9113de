// Package checkout drives the multi-step purchase flow: customer form,
// payment capture, simulated processing and the terminal result, coordinating
// the cart store, order submission and the confirmation email.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/blackgym/storefront/internal/errors"
	"github.com/blackgym/storefront/internal/metrics"
	"github.com/blackgym/storefront/internal/models"
	"github.com/blackgym/storefront/internal/notification"
	"github.com/blackgym/storefront/internal/notify"
	"github.com/blackgym/storefront/internal/payment"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CartStore is the slice of the cart the orchestrator needs. *cart.Store
// satisfies it.
type CartStore interface {
	Snapshot() models.CartSnapshot
	IsEmpty() bool
	HasHydrated() bool
	Clear(ctx context.Context)
}

type StockChecker interface {
	CheckStock(ctx context.Context, queries []models.StockQuery) (*models.StockResult, error)
}

type OrderCreator interface {
	Create(ctx context.Context, orden models.OrdenCreate) (*models.Orden, error)
}

// Runner is one simulated processing run. payment.Processor satisfies it.
type Runner interface {
	Start()
	Stop()
}

type Deps struct {
	Cart     CartStore
	Stock    StockChecker
	Orders   OrderCreator
	Mailer   notification.OrderMailer
	Notifier notify.Notifier
	Logger   *slog.Logger

	Processor      payment.Config
	ClearCartDelay time.Duration
	EmailTimeout   time.Duration

	// test seams
	NewRunner func(hooks payment.Hooks) Runner
	Now       func() time.Time
}

type Orchestrator struct {
	deps     Deps
	validate *validator.Validate

	mu      sync.Mutex
	session Session
	runner  Runner
}

func newValidator() *validator.Validate {
	v := validator.New()

	// report field errors under the wire names the form uses
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation("phonedigits", func(fl validator.FieldLevel) bool {
		digits := strings.ReplaceAll(fl.Field().String(), " ", "")
		if len(digits) < 8 || len(digits) > 15 {
			return false
		}

		for _, r := range digits {
			if r < '0' || r > '9' {
				return false
			}
		}

		return true
	})

	return v
}

func New(deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	if deps.Now == nil {
		deps.Now = time.Now
	}

	if deps.EmailTimeout <= 0 {
		deps.EmailTimeout = 10 * time.Second
	}

	o := &Orchestrator{
		deps:     deps,
		validate: newValidator(),
	}

	o.session = Session{
		ID:        uuid.NewString(),
		Step:      StepForm,
		Outcome:   OutcomePending,
		CreatedAt: deps.Now(),
	}

	return o
}

// Session returns a copy of the current state.
func (o *Orchestrator) Session() Session {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.session
	s.Items = append([]models.CartItem(nil), o.session.Items...)

	return s
}

// GuardEmptyCart aborts the flow when the cart turns out empty on the form
// step. It only fires once hydration completed, so an unloaded cart never
// reads as an abandoned one.
func (o *Orchestrator) GuardEmptyCart() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session.Step != StepForm {
		return false
	}

	if !o.deps.Cart.HasHydrated() || !o.deps.Cart.IsEmpty() {
		return false
	}

	o.notifyError("Your cart is empty")

	return true
}

// SubmitForm validates the customer fields and advances Form to Payment. A
// non-empty field error map blocks the transition; nothing is partially
// submitted.
func (o *Orchestrator) SubmitForm(ctx context.Context, form models.CheckoutForm) (map[string]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session.Step != StepForm {
		return nil, errors.InvalidStateError(fmt.Sprintf("cannot submit form from step %q", o.session.Step))
	}

	form = trimForm(form)

	if fieldErrs := o.validateForm(form); len(fieldErrs) > 0 {
		o.notifyError("Please fix the errors in the form")

		return fieldErrs, errors.ValidationError("Form validation failed")
	}

	if o.deps.Cart.HasHydrated() && o.deps.Cart.IsEmpty() {
		o.notifyError("Your cart is empty")

		return nil, errors.EmptyCartError("Cannot check out an empty cart")
	}

	o.session.Form = form
	o.session.Step = StepPayment

	return nil, nil
}

func trimForm(form models.CheckoutForm) models.CheckoutForm {
	form.Name = strings.TrimSpace(form.Name)
	form.Phone = strings.TrimSpace(form.Phone)
	form.Email = strings.TrimSpace(form.Email)
	form.Address = strings.TrimSpace(form.Address)
	form.City = strings.TrimSpace(form.City)
	form.Region = strings.TrimSpace(form.Region)
	form.PostalCode = strings.TrimSpace(form.PostalCode)
	form.Notes = strings.TrimSpace(form.Notes)

	return form
}

func (o *Orchestrator) validateForm(form models.CheckoutForm) map[string]string {
	err := o.validate.Struct(form)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"form": "invalid input data"}
	}

	fieldErrs := make(map[string]string, len(validationErrs))

	for _, fe := range validationErrs {
		switch {
		case fe.Tag() == "required":
			fieldErrs[fe.Field()] = fmt.Sprintf("The %s field is required", fe.Field())
		case fe.Tag() == "email":
			fieldErrs[fe.Field()] = "Invalid email format"
		case fe.Tag() == "phonedigits":
			fieldErrs[fe.Field()] = "Phone must have between 8 and 15 digits"
		default:
			fieldErrs[fe.Field()] = fmt.Sprintf("The %s field is invalid", fe.Field())
		}
	}

	return fieldErrs
}

// SubmitCard validates the capture and advances Payment to Processing. Card
// data is forwarded to the simulation and dropped; only the masked display
// form and brand are retained.
func (o *Orchestrator) SubmitCard(ctx context.Context, card models.CardDetails) (map[string]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session.Step != StepPayment {
		return nil, errors.InvalidStateError(fmt.Sprintf("cannot submit payment from step %q", o.session.Step))
	}

	if fieldErrs := payment.ValidateCard(o.deps.Now(), card); len(fieldErrs) > 0 {
		o.notifyError("Please fix the errors in the form")

		return fieldErrs, errors.ValidationError("Card validation failed")
	}

	snapshot := o.deps.Cart.Snapshot()

	o.session.Step = StepProcessing
	o.session.Outcome = OutcomePending
	o.session.FailureReason = ""
	o.session.Progress = 0
	o.session.PhaseIndex = 0
	o.session.Phase = payment.Phases[0]
	o.session.CardMasked = payment.MaskNumber(card.Number)
	o.session.CardBrand = payment.DetectBrand(card.Number)
	o.session.Items = snapshot.Items
	o.session.Total = snapshot.Total

	hooks := payment.Hooks{
		Progress: o.onProgress,
		Phase:    o.onPhase,
		Done:     o.onProcessed,
	}

	if o.deps.NewRunner != nil {
		o.runner = o.deps.NewRunner(hooks)
	} else {
		o.runner = payment.NewProcessor(o.deps.Processor, hooks)
	}

	o.runner.Start()

	return nil, nil
}

func (o *Orchestrator) onProgress(percent int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session.Step == StepProcessing {
		o.session.Progress = percent
	}
}

func (o *Orchestrator) onPhase(index int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session.Step == StepProcessing {
		o.session.PhaseIndex = index
		o.session.Phase = payment.Phases[index]
	}
}

// onProcessed receives the single simulation outcome and finishes the run.
// It runs on the processor's goroutine.
func (o *Orchestrator) onProcessed(success bool) {
	if !success {
		o.finish(OutcomeFailure, ReasonInsufficientFunds, "", 0)
		o.notifyError("Payment was declined")

		return
	}

	o.completeOrder()
}

// completeOrder runs the success path: revalidate stock, submit the order,
// fire the confirmation email, clear the cart after the display delay.
func (o *Orchestrator) completeOrder() {
	o.mu.Lock()

	if o.session.Step != StepProcessing {
		o.mu.Unlock()

		return
	}

	form := o.session.Form
	items := append([]models.CartItem(nil), o.session.Items...)
	total := o.session.Total
	logger := o.deps.Logger.With(slog.String("checkout_session", o.session.ID))
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// long-lived carts can hold stale stock snapshots, so ask the backend
	// again before committing the order
	if reason, ok := o.revalidateStock(ctx, items, logger); !ok {
		o.finish(OutcomeFailure, reason, "", 0)
		o.notifyError("Some products are no longer available")

		return
	}

	transactionID := newTransactionID(o.deps.Now())

	orden := models.OrdenCreate{
		Cliente:      form.Name,
		Telefono:     form.Phone,
		Direccion:    form.Address,
		Ciudad:       form.City,
		Departamento: form.Region,
		CodigoPostal: form.PostalCode,
		Notas:        form.Notes,
		Total:        total,
		Productos:    orderLines(items),
	}

	created, err := o.deps.Orders.Create(ctx, orden)
	if err != nil {
		logger.Error("order submission failed", slog.String("error", err.Error()))
		o.finish(OutcomeFailure, ReasonServerError, "", 0)
		o.notifyError("Error processing the order")

		return
	}

	o.sendConfirmation(created, form, items, logger)

	o.finish(OutcomeSuccess, "", transactionID, created.ID)
	o.notifySuccess("Payment processed successfully!")

	if o.deps.ClearCartDelay > 0 {
		// let the confirmation render with the purchased items before the
		// cart empties underneath it
		time.AfterFunc(o.deps.ClearCartDelay, func() {
			o.deps.Cart.Clear(context.Background())
		})
	} else {
		o.deps.Cart.Clear(context.Background())
	}
}

func (o *Orchestrator) revalidateStock(ctx context.Context, items []models.CartItem, logger *slog.Logger) (string, bool) {
	if o.deps.Stock == nil {
		return "", true
	}

	queries := make([]models.StockQuery, 0, len(items))
	for _, item := range items {
		queries = append(queries, models.StockQuery{ID: item.ProductID, Cantidad: item.Quantity})
	}

	result, err := o.deps.Stock.CheckStock(ctx, queries)
	if err != nil {
		logger.Error("stock revalidation failed", slog.String("error", err.Error()))

		return ReasonServerError, false
	}

	if !result.OK {
		reason := "some products are out of stock"
		if len(result.Shortfalls) > 0 && result.Shortfalls[0].Mensaje != "" {
			reason = result.Shortfalls[0].Mensaje
		}

		return reason, false
	}

	return "", true
}

// sendConfirmation fires the email and returns without awaiting delivery.
// Its outcome is logged only; it never blocks or fails the checkout.
func (o *Orchestrator) sendConfirmation(created *models.Orden, form models.CheckoutForm, items []models.CartItem, logger *slog.Logger) {
	if o.deps.Mailer == nil {
		return
	}

	lines := make([]notification.LineDetail, 0, len(items))
	for _, item := range items {
		lines = append(lines, notification.LineDetail{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.deps.EmailTimeout)
		defer cancel()

		if err := o.deps.Mailer.SendOrderConfirmation(ctx, created, form, lines, form.Email); err != nil {
			logger.Warn("order confirmation email failed",
				slog.Int64("order_id", created.ID),
				slog.String("error", err.Error()))

			return
		}

		logger.Info("order confirmation email sent", slog.Int64("order_id", created.ID))
	}()
}

func orderLines(items []models.CartItem) []models.OrdenItem {
	lines := make([]models.OrdenItem, 0, len(items))

	for _, item := range items {
		lines = append(lines, models.OrdenItem{
			ID:             item.ProductID,
			Cantidad:       item.Quantity,
			PrecioUnitario: item.UnitPrice,
		})
	}

	return lines
}

// finish commits a terminal result. A session cancelled mid-processing
// discards the late outcome.
func (o *Orchestrator) finish(outcome Outcome, reason, transactionID string, orderID int64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session.Step != StepProcessing {
		return
	}

	o.session.Step = StepResult
	o.session.Outcome = outcome
	o.session.FailureReason = reason
	o.session.TransactionID = transactionID
	o.session.OrderID = orderID
	o.session.Progress = 100

	metrics.CheckoutOutcome(string(outcome))
}

// Retry re-enters payment capture from a failed result without re-validating
// the form step.
func (o *Orchestrator) Retry() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session.Step != StepResult || o.session.Outcome != OutcomeFailure {
		return errors.InvalidStateError("retry is only available after a failed payment")
	}

	o.session.Step = StepPayment
	o.session.Outcome = OutcomePending
	o.session.FailureReason = ""
	o.session.Progress = 0
	o.session.PhaseIndex = 0
	o.session.Phase = ""

	return nil
}

// Cancel backs out of the flow without mutating the cart: Payment returns to
// Form, Processing stops both timers (no outcome callback will fire) and
// returns to Payment. Result is terminal for cancel.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.session.Step {
	case StepPayment:
		o.session.Step = StepForm

		return nil

	case StepProcessing:
		if o.runner != nil {
			runner := o.runner
			o.runner = nil

			// Stop takes the processor's own lock; release ours first
			o.mu.Unlock()
			runner.Stop()
			o.mu.Lock()
		}

		if o.session.Step == StepProcessing {
			o.session.Step = StepPayment
			o.session.Progress = 0
			o.session.PhaseIndex = 0
			o.session.Phase = ""
		}

		return nil

	case StepForm:
		return nil

	default:
		return errors.InvalidStateError(fmt.Sprintf("cannot cancel from step %q", o.session.Step))
	}
}

const txnAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newTransactionID mints a client-side id unique per session: monotonic
// timestamp plus a random suffix.
func newTransactionID(now time.Time) string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = txnAlphabet[rand.IntN(len(txnAlphabet))]
	}

	return fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), suffix)
}

func (o *Orchestrator) notifySuccess(message string) {
	if o.deps.Notifier != nil {
		o.deps.Notifier.Success(message)
	}
}

func (o *Orchestrator) notifyError(message string) {
	if o.deps.Notifier != nil {
		o.deps.Notifier.Error(message)
	}
}
