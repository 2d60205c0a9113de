package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/blackgym/storefront/internal/api/middleware"
	"github.com/blackgym/storefront/internal/catalog"
	appErrors "github.com/blackgym/storefront/internal/errors"
	"github.com/blackgym/storefront/internal/models"
	"github.com/blackgym/storefront/internal/utils/response"
)

type CatalogHandler struct {
	catalog catalog.Client
}

func NewCatalogHandler(client catalog.Client) *CatalogHandler {
	return &CatalogHandler{catalog: client}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}

	return value
}

// ListProducts proxies the backend listing. A backend failure degrades to an
// empty page so a browsing view always has something to render.
func (h *CatalogHandler) ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		params := catalog.ListParams{
			Page:     queryInt(r, "page", 1),
			Limit:    queryInt(r, "limit", 12),
			Category: r.URL.Query().Get("categoria"),
			Search:   r.URL.Query().Get("search"),
		}

		page, err := h.catalog.List(r.Context(), params)
		if err != nil {
			logger.Error("product listing failed", slog.String("error", err.Error()))

			empty := models.ProductPage{
				Productos:  []models.Producto{},
				Pagination: models.Pagination{Page: params.Page, Limit: params.Limit},
			}
			response.WriteJson(w, http.StatusOK, response.APIResponse{
				Success: false,
				Data:    empty,
				Error:   &response.ErrorResponse{Code: appErrors.ErrCodeRemote, Message: "Failed to fetch products"},
			})

			return
		}

		response.Success(w, http.StatusOK, page)

	}
}

func (h *CatalogHandler) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || id < 1 {
			response.Error(w, appErrors.BadRequestError("Invalid product ID"))

			return
		}

		producto, err := h.catalog.Get(r.Context(), id)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, producto)

	}
}

func (h *CatalogHandler) ListCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		page, err := h.catalog.Categories(r.Context(), queryInt(r, "page", 1), queryInt(r, "limit", 50))
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, page)

	}
}
