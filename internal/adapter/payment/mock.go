package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrDeclined is the mock's pass/fail signal. Real gateway integration is
// outside this service.
var ErrDeclined = errors.New("payment declined")

// MockGateway approves every charge up to a configured ceiling. A ceiling of
// zero approves everything.
type MockGateway struct {
	declineAbove decimal.Decimal
}

func NewMockGateway(declineAbove int64) *MockGateway {
	return &MockGateway{declineAbove: decimal.NewFromInt(declineAbove)}
}

func (g *MockGateway) Charge(ctx context.Context, orderNumber string, amount decimal.Decimal) error {
	if g.declineAbove.IsPositive() && amount.GreaterThan(g.declineAbove) {
		return ErrDeclined
	}
	return nil
}
