package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/blackgym/storefront/internal/api/middleware"
	"github.com/blackgym/storefront/internal/cart"
	"github.com/blackgym/storefront/internal/checkout"
	appErrors "github.com/blackgym/storefront/internal/errors"
	"github.com/blackgym/storefront/internal/models"
	"github.com/blackgym/storefront/internal/notification"
	"github.com/blackgym/storefront/internal/notify"
	"github.com/blackgym/storefront/internal/payment"
	"github.com/blackgym/storefront/internal/utils"
	"github.com/blackgym/storefront/internal/utils/response"
)

// CheckoutDeps bundles the collaborators a checkout run needs.
type CheckoutDeps struct {
	Carts          *cart.Manager
	Stock          checkout.StockChecker
	Orders         checkout.OrderCreator
	Mailer         notification.OrderMailer
	Notifier       notify.Notifier
	Logger         *slog.Logger
	Processor      payment.Config
	ClearCartDelay time.Duration
}

type CheckoutHandler struct {
	deps CheckoutDeps

	mu       sync.Mutex
	sessions map[string]*checkout.Orchestrator
}

func NewCheckoutHandler(deps CheckoutDeps) *CheckoutHandler {
	return &CheckoutHandler{
		deps:     deps,
		sessions: make(map[string]*checkout.Orchestrator),
	}
}

func (h *CheckoutHandler) get(id string) *checkout.Orchestrator {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.sessions[id]
}

func (h *CheckoutHandler) put(o *checkout.Orchestrator) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[o.Session().ID] = o
}

func (h *CheckoutHandler) drop(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.sessions, id)
}

// Begin starts a checkout session from the submitted customer form.
func (h *CheckoutHandler) Begin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		store := h.deps.Carts.Get(r.Context(), sessionKey(w, r))

		var form models.CheckoutForm
		if err := utils.DecodeJSONBody(r, &form); err != nil {
			response.Error(w, appErrors.BadRequestError(err.Error()))

			return
		}

		orchestrator := checkout.New(checkout.Deps{
			Cart:           store,
			Stock:          h.deps.Stock,
			Orders:         h.deps.Orders,
			Mailer:         h.deps.Mailer,
			Notifier:       h.deps.Notifier,
			Logger:         h.deps.Logger,
			Processor:      h.deps.Processor,
			ClearCartDelay: h.deps.ClearCartDelay,
		})

		fieldErrs, err := orchestrator.SubmitForm(r.Context(), form)
		if err != nil {
			response.FieldErrors(w, err, fieldErrs)

			return
		}

		h.put(orchestrator)

		session := orchestrator.Session()
		logger.Info("checkout session started", slog.String("checkout_session", session.ID))
		response.Success(w, http.StatusCreated, session)

	}
}

// Status reports the session state. The empty-cart guard runs here: a form
// step whose hydrated cart is empty aborts the whole flow.
func (h *CheckoutHandler) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		orchestrator := h.get(r.PathValue("id"))
		if orchestrator == nil {
			response.Error(w, appErrors.NotFoundError("Checkout session not found"))

			return
		}

		if orchestrator.GuardEmptyCart() {
			h.drop(orchestrator.Session().ID)
			response.Error(w, appErrors.EmptyCartError("Your cart is empty"))

			return
		}

		response.Success(w, http.StatusOK, orchestrator.Session())

	}
}

// Pay captures card details and starts the processing simulation.
func (h *CheckoutHandler) Pay() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		orchestrator := h.get(r.PathValue("id"))
		if orchestrator == nil {
			response.Error(w, appErrors.NotFoundError("Checkout session not found"))

			return
		}

		var card models.CardDetails
		if err := utils.DecodeJSONBody(r, &card); err != nil {
			response.Error(w, appErrors.BadRequestError(err.Error()))

			return
		}

		fieldErrs, err := orchestrator.SubmitCard(r.Context(), card)
		if err != nil {
			response.FieldErrors(w, err, fieldErrs)

			return
		}

		response.Success(w, http.StatusAccepted, orchestrator.Session())

	}
}

func (h *CheckoutHandler) Retry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		orchestrator := h.get(r.PathValue("id"))
		if orchestrator == nil {
			response.Error(w, appErrors.NotFoundError("Checkout session not found"))

			return
		}

		if err := orchestrator.Retry(); err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, orchestrator.Session())

	}
}

func (h *CheckoutHandler) Cancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		orchestrator := h.get(r.PathValue("id"))
		if orchestrator == nil {
			response.Error(w, appErrors.NotFoundError("Checkout session not found"))

			return
		}

		if err := orchestrator.Cancel(); err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, orchestrator.Session())

	}
}
