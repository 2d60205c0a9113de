// Package orders translates a finalized checkout payload into the backend's
// order-creation call and normalizes the response.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/blackgym/storefront/internal/errors"
	"github.com/blackgym/storefront/internal/metrics"
	"github.com/blackgym/storefront/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Client interface {
	Create(ctx context.Context, orden models.OrdenCreate) (*models.Orden, error)
	Get(ctx context.Context, id int64) (*models.Orden, error)
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

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func decodeOrden(body []byte) (*models.Orden, error) {
	var env envelope

	raw := body
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		raw = env.Data
	}

	var orden models.Orden
	if err := json.Unmarshal(raw, &orden); err != nil {
		return nil, err
	}

	return &orden, nil
}

// Create submits the order. A response without an assigned identifier is a
// failure; the orchestrator never retries this internally.
func (c *client) Create(ctx context.Context, orden models.OrdenCreate) (*models.Orden, error) {
	data, err := json.Marshal(orden)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ordenes", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.RemoteError("Failed to submit order").WithError(err)
	}
	defer resp.Body.Close()

	metrics.ObserveOrderSubmission(time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.RemoteError("Failed to read order response").WithError(err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.RemoteError(fmt.Sprintf("Order submission failed with status %d", resp.StatusCode))
	}

	created, err := decodeOrden(body)
	if err != nil {
		return nil, errors.RemoteError("Malformed order response").WithError(err)
	}

	if created.ID == 0 {
		return nil, errors.RemoteError("Backend returned an order without an identifier")
	}

	return created, nil
}

func (c *client) Get(ctx context.Context, id int64) (*models.Orden, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/ordenes/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.RemoteError("Failed to fetch order").WithError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.RemoteError("Failed to read order response").WithError(err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.NotFoundError(fmt.Sprintf("Order %d not found", id))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.RemoteError(fmt.Sprintf("Order fetch failed with status %d", resp.StatusCode))
	}

	orden, err := decodeOrden(body)
	if err != nil {
		return nil, errors.RemoteError("Malformed order response").WithError(err)
	}

	return orden, nil
}
