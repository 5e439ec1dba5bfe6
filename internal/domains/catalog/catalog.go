package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the menu entry as the catalog service reports it. Prices are
// snapshotted onto order items at checkout, so later menu edits never move
// an existing order's totals.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
	Extras    []Extra         `json:"extras,omitempty"`
}

// Extra is a priced add-on belonging to a product.
type Extra struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

var (
	ErrProductNotFound = errors.New("product not found in catalog")
	ErrExtraNotFound   = errors.New("extra not found for product")
	ErrCatalogDown     = errors.New("catalog service unavailable")
)

// Client resolves products at order creation time.
type Client interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*Product, error)
	GetProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]*Product, error)
}
