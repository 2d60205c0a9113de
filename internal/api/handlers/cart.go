package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/blackgym/storefront/internal/api/middleware"
	"github.com/blackgym/storefront/internal/cart"
	"github.com/blackgym/storefront/internal/catalog"
	appErrors "github.com/blackgym/storefront/internal/errors"
	"github.com/blackgym/storefront/internal/models"
	"github.com/blackgym/storefront/internal/utils"
	"github.com/blackgym/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SessionHeader identifies the caller's cart across requests, the
// server-side analogue of the browser's storage key.
const SessionHeader = "X-Cart-Session"

type CartHandler struct {
	carts     *cart.Manager
	catalog   catalog.Client
	validator *validator.Validate
}

func NewCartHandler(carts *cart.Manager, catalogClient catalog.Client) *CartHandler {
	return &CartHandler{
		carts:     carts,
		catalog:   catalogClient,
		validator: validator.New(),
	}
}

// sessionKey resolves the cart session, minting one when the header is
// absent, and always echoes it back.
func sessionKey(w http.ResponseWriter, r *http.Request) string {
	key := r.Header.Get(SessionHeader)
	if key == "" {
		key = uuid.NewString()
	}

	w.Header().Set(SessionHeader, key)

	return key
}

type cartView struct {
	models.CartSnapshot
	FormattedTotal string `json:"formatted_total"`
	IsEmpty        bool   `json:"is_empty"`
}

func viewOf(store *cart.Store) cartView {
	snapshot := store.Snapshot()

	return cartView{
		CartSnapshot:   snapshot,
		FormattedTotal: store.FormattedTotal(),
		IsEmpty:        snapshot.IsEmpty(),
	}
}

func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		store := h.carts.Get(r.Context(), sessionKey(w, r))

		response.Success(w, http.StatusOK, viewOf(store))

	}
}

func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		store := h.carts.Get(r.Context(), sessionKey(w, r))

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		// fetch the live product so the stored stock snapshot is current
		producto, err := h.catalog.Get(r.Context(), req.ProductID)
		if err != nil {
			logger.Warn("product lookup failed", slog.Int64("product_id", req.ProductID), slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		if err := store.AddItem(r.Context(), *producto, req.Quantity); err != nil {
			response.Error(w, err)

			return
		}

		logger.Info("item added to cart", slog.Int64("product_id", req.ProductID))
		response.Success(w, http.StatusOK, viewOf(store))

	}
}

func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		store := h.carts.Get(r.Context(), sessionKey(w, r))

		productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			response.Error(w, appErrors.BadRequestError("Invalid product id"))

			return
		}

		var req models.UpdateQuantityRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		if err := store.UpdateQuantity(r.Context(), productID, req.Quantity); err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, viewOf(store))

	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		store := h.carts.Get(r.Context(), sessionKey(w, r))

		productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			response.Error(w, appErrors.BadRequestError("Invalid product id"))

			return
		}

		store.RemoveItem(r.Context(), productID)

		response.Success(w, http.StatusOK, viewOf(store))

	}
}

func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		store := h.carts.Get(r.Context(), sessionKey(w, r))

		store.Clear(r.Context())

		response.Success(w, http.StatusOK, viewOf(store))

	}
}
