package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrDeclined is returned by a gateway when the charge was processed but
// refused. Callers treat it as retryable user-facing input, not a system
// failure.
var ErrDeclined = errors.New("card payment declined")

// ChargeResult is the gateway's answer to a successful charge.
type ChargeResult struct {
	TransactionID string    `json:"transaction_id"`
	Amount        float64   `json:"amount"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// Gateway is the card-processing collaborator. The engine only consumes this
// contract; the real processor lives outside the service.
type Gateway interface {
	Charge(ctx context.Context, card CardDetails, amount float64) (*ChargeResult, error)
}

// MockGateway approves every locally valid card and fabricates transaction
// ids. Used in development and tests until a real processor is wired in.
type MockGateway struct{}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// declineNumbers are Luhn-valid test cards the mock always refuses, so
// decline handling can be exercised deterministically end to end.
var declineNumbers = map[string]string{
	"4000000000000002": "card declined",
	"4000000000009995": "insufficient funds",
}

func (g *MockGateway) Charge(ctx context.Context, card CardDetails, amount float64) (*ChargeResult, error) {
	if err := card.Validate(time.Now()); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDeclined, err)
	}
	if reason, ok := declineNumbers[digitsOnly(card.Number)]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDeclined, reason)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("charge amount must be positive, got %.2f", amount)
	}

	shortID := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return &ChargeResult{
		TransactionID: fmt.Sprintf("TXN_%d_%s", time.Now().Unix(), shortID),
		Amount:        amount,
		ProcessedAt:   time.Now(),
	}, nil
}

func digitsOnly(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
