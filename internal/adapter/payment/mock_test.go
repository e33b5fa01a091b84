package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMockGateway(t *testing.T) {
	tests := []struct {
		name         string
		declineAbove int64
		amount       int64
		wantDeclined bool
	}{
		{"zero ceiling approves everything", 0, 1000000, false},
		{"amount under ceiling", 100000, 75000, false},
		{"amount at ceiling", 100000, 100000, false},
		{"amount over ceiling", 100000, 100001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewMockGateway(tt.declineAbove)
			err := g.Charge(context.Background(), "ORD-2026-000001", decimal.NewFromInt(tt.amount))
			if tt.wantDeclined && !errors.Is(err, ErrDeclined) {
				t.Errorf("expected ErrDeclined, got %v", err)
			}
			if !tt.wantDeclined && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
