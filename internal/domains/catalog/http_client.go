package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"foodorder-backend/internal/config"
)

// =====================================================
// HTTP CLIENT IMPLEMENTATION
// =====================================================

type httpClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a catalog client against the configured service.
func NewHTTPClient(cfg config.CatalogConfig) Client {
	return &httpClient{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *httpClient) GetProduct(ctx context.Context, productID uuid.UUID) (*Product, error) {
	url := fmt.Sprintf("%s/internal/products/%s", c.baseURL, productID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogDown, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrCatalogDown, resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var product Product
	if err := json.Unmarshal(bodyBytes, &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}

	return &product, nil
}

func (c *httpClient) GetProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]*Product, error) {
	products := make(map[uuid.UUID]*Product, len(productIDs))

	for _, id := range productIDs {
		if _, ok := products[id]; ok {
			continue
		}
		product, err := c.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		products[id] = product
	}

	return products, nil
}
