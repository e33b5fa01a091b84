package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type DiscountTargetType string

const (
	TargetMenuItem DiscountTargetType = "menu_item"
	TargetSideDish DiscountTargetType = "side_dish"
)

// EventDiscount is a time-bounded promotional discount scoped to a single target.
type EventDiscount struct {
	ID         uuid.UUID
	Name       string
	TargetType DiscountTargetType
	TargetCode string
	Type       DiscountType
	Value      decimal.Decimal
	StartsAt   time.Time
	EndsAt     time.Time
	Published  bool
	CreatedAt  time.Time
}

// ActiveAt reports whether the discount applies at the given instant.
func (d EventDiscount) ActiveAt(t time.Time) bool {
	return d.Published && !t.Before(d.StartsAt) && !t.After(d.EndsAt)
}

// DiscountApplication records one discount actually applied during pricing,
// including the capped monetary amount.
type DiscountApplication struct {
	EventID    uuid.UUID          `json:"event_id"`
	EventName  string             `json:"event_name"`
	TargetType DiscountTargetType `json:"target_type"`
	TargetCode string             `json:"target_code"`
	Type       DiscountType       `json:"type"`
	Value      decimal.Decimal    `json:"value"`
	Applied    decimal.Decimal    `json:"applied"`
}

// CustomizationCharge itemizes the billing outcome of one ingredient
// customization. Amount is zero when the requested quantity does not exceed
// the scaled base.
type CustomizationCharge struct {
	IngredientCode    string          `json:"ingredient_code"`
	BaseQuantity      int             `json:"base_quantity"`
	RequestedQuantity int             `json:"requested_quantity"`
	BilledQuantity    int             `json:"billed_quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Amount            decimal.Decimal `json:"amount"`
}

// LoyaltyStanding is the informational tier state of a customer.
type LoyaltyStanding struct {
	Tier            string          `json:"tier"`
	Percent         decimal.Decimal `json:"percent"`
	CompletedOrders int             `json:"completed_orders"`
	OrdersToNext    int             `json:"orders_to_next_tier"`
}

// PriceBreakdown is the fully itemized result of a pricing calculation. It is
// frozen on the order at creation time; catalog or discount changes after that
// never alter it.
type PriceBreakdown struct {
	MenuCode           string                `json:"menu_code"`
	StyleCode          string                `json:"style_code"`
	Quantity           int                   `json:"quantity"`
	UnitPrice          decimal.Decimal       `json:"unit_price"`
	BaseTotal          decimal.Decimal       `json:"base_total"`
	CustomizationTotal decimal.Decimal       `json:"customization_total"`
	Customizations     []CustomizationCharge `json:"customizations,omitempty"`
	SideDishTotal      decimal.Decimal       `json:"side_dish_total"`
	SideDishes         []SideDishLine        `json:"side_dishes,omitempty"`
	Subtotal           decimal.Decimal       `json:"subtotal"`
	EventDiscounts     []DiscountApplication `json:"event_discounts,omitempty"`
	EventDiscountTotal decimal.Decimal       `json:"event_discount_total"`
	Loyalty            LoyaltyStanding       `json:"loyalty"`
	LoyaltyDiscount    decimal.Decimal       `json:"loyalty_discount"`
	FinalPrice         decimal.Decimal       `json:"final_price"`
}

// RoundCurrency rounds to the nearest whole currency unit, half up. Discount
// amounts are rounded at application time, not only at the end.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}
