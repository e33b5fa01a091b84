package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order represents a priced, inventory-reserved dinner order.
type Order struct {
	ID                uuid.UUID
	Number            string
	CustomerID        *uuid.UUID
	StoreID           string
	Status            Status
	PaymentStatus     PaymentStatus
	Item              OrderLineItem
	SideDishes        []SideDishLine
	Reservations      []Reservation
	TotalPrice        decimal.Decimal
	Breakdown         PriceBreakdown
	DeliveryAddress   string
	ScheduledFor      *time.Time
	EstimatedDelivery time.Time
	InventoryConsumed bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OrderLineItem is the single menu selection of an order. UnitPrice is frozen
// at creation time; later catalog changes never reprice historical orders.
type OrderLineItem struct {
	MenuCode       string
	StyleCode      string
	Quantity       int
	UnitPrice      decimal.Decimal
	Customizations []IngredientCustomization
}

// IngredientCustomization records the difference between the requested total
// quantity and the style's scaled base quantity. Negative deltas are kept for
// kitchen information only and are never refunded.
type IngredientCustomization struct {
	IngredientCode    string
	RequestedQuantity int
	Delta             int
}

// SideDishLine is one ordered side dish with its frozen unit price.
type SideDishLine struct {
	SideDishCode string          `json:"side_dish_code"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

// NewOrder assembles an order in its initial state from a completed pricing
// calculation. Reservations carry the total ingredient draw.
func NewOrder(storeID string, customerID *uuid.UUID, breakdown PriceBreakdown, deliveryAddress string, scheduledFor *time.Time, estimatedDelivery time.Time) (*Order, error) {
	if storeID == "" {
		return nil, &ValidationError{Field: "store_id", Message: "store is required"}
	}
	if len(deliveryAddress) < 10 {
		return nil, &ValidationError{Field: "delivery_address", Message: "delivery address must be at least 10 characters"}
	}

	customizations := make([]IngredientCustomization, 0, len(breakdown.Customizations))
	for _, c := range breakdown.Customizations {
		customizations = append(customizations, IngredientCustomization{
			IngredientCode:    c.IngredientCode,
			RequestedQuantity: c.RequestedQuantity,
			Delta:             c.RequestedQuantity - c.BaseQuantity,
		})
	}

	now := time.Now().UTC()
	return &Order{
		ID:            uuid.New(),
		CustomerID:    customerID,
		StoreID:       storeID,
		Status:        StatusReceived,
		PaymentStatus: PaymentPending,
		Item: OrderLineItem{
			MenuCode:       breakdown.MenuCode,
			StyleCode:      breakdown.StyleCode,
			Quantity:       breakdown.Quantity,
			UnitPrice:      breakdown.UnitPrice,
			Customizations: customizations,
		},
		SideDishes:        breakdown.SideDishes,
		TotalPrice:        breakdown.FinalPrice,
		Breakdown:         breakdown,
		DeliveryAddress:   deliveryAddress,
		ScheduledFor:      scheduledFor,
		EstimatedDelivery: estimatedDelivery,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Reserve attaches the total per-ingredient draw as unconsumed reservations.
// Codes must already be deduplicated; quantities of zero are skipped.
func (o *Order) Reserve(draw []IngredientRequirement) {
	o.Reservations = o.Reservations[:0]
	for _, req := range draw {
		if req.Quantity <= 0 {
			continue
		}
		o.Reservations = append(o.Reservations, Reservation{
			OrderID:        o.ID,
			StoreID:        o.StoreID,
			IngredientCode: req.IngredientCode,
			Quantity:       req.Quantity,
		})
	}
}

// GuardTransition validates a requested status change against the lifecycle
// graph and the actor's role. It does not mutate the order; persisted state is
// the source of truth and the storage layer re-checks under its transaction.
func (o *Order) GuardTransition(next Status, role ActorRole) error {
	if !next.Valid() {
		return &ValidationError{Field: "status", Message: "unknown status"}
	}
	if o.Status.Terminal() {
		return &StateTransitionError{From: o.Status, To: next, Reason: "order is in a terminal state"}
	}

	switch next {
	case StatusPreparing, StatusDelivering, StatusCompleted:
		if !role.IsStaff() {
			return &StateTransitionError{From: o.Status, To: next, Reason: "requires staff role"}
		}
		if !o.Status.CanTransitionTo(next) {
			return &StateTransitionError{From: o.Status, To: next}
		}
	case StatusCancelled:
		// Customers may only cancel while the order is still received; staff
		// may cancel from any non-terminal state.
		if !role.IsStaff() && o.Status != StatusReceived {
			return &StateTransitionError{From: o.Status, To: next, Reason: "customers may only cancel received orders"}
		}
	case StatusPaymentFailed:
		if !role.IsStaff() {
			return &StateTransitionError{From: o.Status, To: next, Reason: "requires staff role"}
		}
	default:
		return &StateTransitionError{From: o.Status, To: next}
	}
	return nil
}
