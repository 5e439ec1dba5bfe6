package gateway

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuthorizeRequest carries everything a card authorizer needs.
type AuthorizeRequest struct {
	OrderID   uuid.UUID
	Amount    decimal.Decimal
	CardToken string
}

// AuthorizeResult is the authorizer's answer. Declined is a normal
// outcome, not an error; errors are transport failures only.
type AuthorizeResult struct {
	Approved       bool
	TransactionRef string
	DeclineReason  string
}

// CardGateway authorizes card payments.
type CardGateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error)
}
