package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/UOS2025SWE/MrDaebak-sub000/internal/domain"
)

// Commands accepted by the order service.

type CustomizationRequest struct {
	IngredientCode string
	// Quantity is the desired total quantity, compared against the style's
	// base quantity scaled by the order quantity.
	Quantity int
}

type SideDishRequest struct {
	Code     string
	Quantity int
}

type CreateOrderCommand struct {
	StoreID         string
	MenuCode        string
	StyleCode       string
	Quantity        int
	Customizations  []CustomizationRequest
	SideDishes      []SideDishRequest
	CustomerID      *uuid.UUID
	DeliveryAddress string
	ScheduledFor    *time.Time
}

type TransitionCommand struct {
	OrderID   uuid.UUID
	NewStatus domain.Status
	Role      domain.ActorRole
	Actor     string
}

// OrderResult is returned from every lifecycle operation.
type OrderResult struct {
	ID                uuid.UUID
	Number            string
	Status            domain.Status
	PaymentStatus     domain.PaymentStatus
	TotalPrice        decimal.Decimal
	EstimatedDelivery time.Time
	Breakdown         *domain.PriceBreakdown
}

// OrderService is the lifecycle controller boundary consumed by routers.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*OrderResult, error)
	TransitionStatus(ctx context.Context, cmd TransitionCommand) (*OrderResult, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID, actorCustomerID uuid.UUID) (*OrderResult, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResult, error)
	GetOrderByNumber(ctx context.Context, number string) (*OrderResult, error)
	GetPricingBreakdown(ctx context.Context, orderID uuid.UUID) (*domain.PriceBreakdown, error)
	GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error)
}

// PricingRequest is the input of one pricing calculation.
type PricingRequest struct {
	MenuCode       string
	StyleCode      string
	Quantity       int
	Customizations []CustomizationRequest
	SideDishes     []SideDishRequest
	CustomerID     *uuid.UUID
}

// PricingCalculator produces the itemized breakdown and the total ingredient
// draw used for inventory reservation.
type PricingCalculator interface {
	Calculate(ctx context.Context, req PricingRequest) (*domain.PriceBreakdown, []domain.IngredientRequirement, error)
}

// LoyaltyResolver reads the current tier state of a customer. A nil customer
// id means a guest order, which always resolves to the zero tier.
type LoyaltyResolver interface {
	Resolve(ctx context.Context, customerID *uuid.UUID) (domain.LoyaltyStanding, error)
}

// PaymentGateway is the pass/fail mock boundary; real gateway integration is
// out of scope.
type PaymentGateway interface {
	Charge(ctx context.Context, orderNumber string, amount decimal.Decimal) error
}
