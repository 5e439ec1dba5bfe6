package card

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"foodorder-backend/internal/config"
	"foodorder-backend/internal/domains/payment/gateway"
)

// =====================================================
// SIMULATED CARD AUTHORIZER
// =====================================================
// Stand-in for a real acquirer integration. Tokens with the "declined"
// prefix always decline, which gives tests and demos a deterministic
// failure path; the configured decline rate adds random declines on top.

const declinedTokenPrefix = "declined"

type authorizer struct {
	declineRate float64
}

// NewAuthorizer creates the simulated card gateway.
func NewAuthorizer(cfg config.PaymentConfig) gateway.CardGateway {
	return &authorizer{
		declineRate: cfg.CardDeclineRate,
	}
}

func (a *authorizer) Authorize(ctx context.Context, req gateway.AuthorizeRequest) (*gateway.AuthorizeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if strings.HasPrefix(req.CardToken, declinedTokenPrefix) {
		return &gateway.AuthorizeResult{
			Approved:      false,
			DeclineReason: "card declined by issuer",
		}, nil
	}

	// One gateway instance serves concurrent requests, so only the locked
	// top-level rand functions are safe here.
	if a.declineRate > 0 && rand.Float64() < a.declineRate {
		return &gateway.AuthorizeResult{
			Approved:      false,
			DeclineReason: "insufficient funds",
		}, nil
	}

	return &gateway.AuthorizeResult{
		Approved:       true,
		TransactionRef: fmt.Sprintf("TXN-%d-%04d", time.Now().Unix(), rand.Intn(10000)),
	}, nil
}
