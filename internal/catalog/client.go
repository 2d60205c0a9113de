// Package catalog consumes the backend's product and category endpoints.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blackgym/storefront/internal/errors"
	"github.com/blackgym/storefront/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type ListParams struct {
	Page     int
	Limit    int
	Category string
	Search   string
}

type Client interface {
	List(ctx context.Context, params ListParams) (*models.ProductPage, error)
	Get(ctx context.Context, id int64) (*models.Producto, error)
	Categories(ctx context.Context, page, limit int) (*models.CategoryPage, error)
	CheckStock(ctx context.Context, queries []models.StockQuery) (*models.StockResult, error)
}

type client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) Client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// envelope is the backend's optional response wrapper. Endpoints answer
// either `{success, data}` or the bare entity; decodeFlexible handles both.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func decodeFlexible(body []byte, dest any) error {
	var env envelope

	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, dest)
	}

	return json.Unmarshal(body, dest)
}

func (c *client) do(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var body io.Reader

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request payload: %w", err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, resp.StatusCode, nil
}

// List fetches a product page. On failure callers fall back to an empty
// result set with the error rather than crashing the listing.
func (c *client) List(ctx context.Context, params ListParams) (*models.ProductPage, error) {
	query := url.Values{}

	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}

	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}

	if params.Category != "" {
		query.Set("categoria", params.Category)
	}

	if params.Search != "" {
		query.Set("search", params.Search)
	}

	path := "/api/productos"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	body, status, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, errors.RemoteError("Failed to fetch products").WithError(err)
	}

	if status != http.StatusOK {
		return nil, errors.RemoteError(fmt.Sprintf("Product listing failed with status %d", status))
	}

	var page models.ProductPage
	if err := decodeFlexible(body, &page); err != nil {
		return nil, errors.RemoteError("Malformed product listing response").WithError(err)
	}

	return &page, nil
}

func (c *client) Get(ctx context.Context, id int64) (*models.Producto, error) {
	body, status, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/productos/%d", id), nil)
	if err != nil {
		return nil, errors.RemoteError("Failed to fetch product").WithError(err)
	}

	if status == http.StatusNotFound {
		return nil, errors.NotFoundError(fmt.Sprintf("Product %d not found", id))
	}

	if status != http.StatusOK {
		return nil, errors.RemoteError(fmt.Sprintf("Product fetch failed with status %d", status))
	}

	var producto models.Producto
	if err := decodeFlexible(body, &producto); err != nil {
		return nil, errors.RemoteError("Malformed product response").WithError(err)
	}

	return &producto, nil
}

func (c *client) Categories(ctx context.Context, page, limit int) (*models.CategoryPage, error) {
	query := url.Values{}

	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}

	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/categorias"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	body, status, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, errors.RemoteError("Failed to fetch categories").WithError(err)
	}

	if status != http.StatusOK {
		return nil, errors.RemoteError(fmt.Sprintf("Category listing failed with status %d", status))
	}

	var categories models.CategoryPage
	if err := json.Unmarshal(body, &categories); err != nil {
		return nil, errors.RemoteError("Malformed category response").WithError(err)
	}

	return &categories, nil
}

// CheckStock asks the backend whether every requested quantity is still
// available. A negative answer is a valid result, not an error; only
// transport or decode failures return one.
func (c *client) CheckStock(ctx context.Context, queries []models.StockQuery) (*models.StockResult, error) {
	payload := struct {
		Productos []models.StockQuery `json:"productos"`
	}{Productos: queries}

	body, status, err := c.do(ctx, http.MethodPost, "/api/productos/check-stock", payload)
	if err != nil {
		return nil, errors.RemoteError("Stock check failed").WithError(err)
	}

	if status != http.StatusOK && status != http.StatusConflict && status != http.StatusBadRequest {
		return nil, errors.RemoteError(fmt.Sprintf("Stock check failed with status %d", status))
	}

	var result models.StockResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.RemoteError("Malformed stock check response").WithError(err)
	}

	return &result, nil
}
