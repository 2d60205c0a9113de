package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blackgym/storefront/internal/api/handlers"
	"github.com/blackgym/storefront/internal/catalog"
	appErrors "github.com/blackgym/storefront/internal/errors"
	"github.com/blackgym/storefront/internal/models"
	"github.com/blackgym/storefront/internal/testutils"
	"github.com/blackgym/storefront/internal/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCatalog struct{}

func (failingCatalog) List(ctx context.Context, params catalog.ListParams) (*models.ProductPage, error) {
	return nil, appErrors.RemoteError("Failed to fetch products")
}

func (failingCatalog) Get(ctx context.Context, id int64) (*models.Producto, error) {
	return nil, appErrors.RemoteError("Failed to fetch product")
}

func (failingCatalog) Categories(ctx context.Context, page, limit int) (*models.CategoryPage, error) {
	return nil, appErrors.RemoteError("Failed to fetch categories")
}

func (failingCatalog) CheckStock(ctx context.Context, queries []models.StockQuery) (*models.StockResult, error) {
	return nil, appErrors.RemoteError("Stock check failed")
}

func TestListProducts(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		handler := handlers.NewCatalogHandler(newFakeCatalog())
		req := testutils.CreateTestRequest(http.MethodGet, "/api/v1/products?page=1&limit=12", nil, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.ListProducts()(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Success bool               `json:"success"`
			Data    models.ProductPage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Len(t, resp.Data.Productos, 2)
	})

	t.Run("Success - Remote Failure Degrades To Empty Page", func(t *testing.T) {
		// Arrange
		handler := handlers.NewCatalogHandler(failingCatalog{})
		req := testutils.CreateTestRequest(http.MethodGet, "/api/v1/products", nil, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.ListProducts()(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Success bool                    `json:"success"`
			Data    models.ProductPage      `json:"data"`
			Error   *response.ErrorResponse `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Empty(t, resp.Data.Productos)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeRemote, resp.Error.Code)
	})
}

func TestGetProduct(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		handler := handlers.NewCatalogHandler(newFakeCatalog())
		req := testutils.CreateTestRequest(http.MethodGet, "/api/v1/products/1", nil,
			map[string]string{"id": "1"})
		rec := httptest.NewRecorder()

		// Act
		handler.GetProduct()(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data models.Producto `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Mancuernas 10kg", resp.Data.Nombre)
	})

	t.Run("Failure - Invalid ID", func(t *testing.T) {
		// Arrange
		handler := handlers.NewCatalogHandler(newFakeCatalog())
		req := testutils.CreateTestRequest(http.MethodGet, "/api/v1/products/abc", nil,
			map[string]string{"id": "abc"})
		rec := httptest.NewRecorder()

		// Act
		handler.GetProduct()(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		handler := handlers.NewCatalogHandler(newFakeCatalog())
		req := testutils.CreateTestRequest(http.MethodGet, "/api/v1/products/99", nil,
			map[string]string{"id": "99"})
		rec := httptest.NewRecorder()

		// Act
		handler.GetProduct()(rec, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
