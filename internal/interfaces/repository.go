package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/UOS2025SWE/MrDaebak-sub000/internal/domain"
)

// CatalogReader resolves menu/style/side-dish codes to priced catalog entries.
// External collaborator of the pricing core.
type CatalogReader interface {
	// MenuWithStyle returns the menu entry and the style, or a CatalogError
	// when the pairing is unknown or not allowed.
	MenuWithStyle(ctx context.Context, menuCode, styleCode string) (*domain.MenuItem, *domain.MenuStyle, error)
	SideDish(ctx context.Context, code string) (*domain.SideDish, error)
	// IngredientPrices returns unit surcharge prices for the given codes.
	// Codes without a price row are absent from the result.
	IngredientPrices(ctx context.Context, codes []string) (map[string]decimal.Decimal, error)
}

// DiscountRepository yields active, published, date-scoped event discounts for
// one target, ordered by event creation time so stacking is reproducible.
type DiscountRepository interface {
	ActiveForTarget(ctx context.Context, target domain.DiscountTargetType, code string, at time.Time) ([]domain.EventDiscount, error)
}

// LoyaltyRepository reads the counter state that feeds tier resolution. The
// counter itself is incremented by the order lifecycle, not through this
// interface.
type LoyaltyRepository interface {
	CompletedOrderCount(ctx context.Context, customerID uuid.UUID) (int, error)
}

// InventoryRepository covers the ledger operations outside the order
// transactions: reads and manual restocks.
type InventoryRepository interface {
	StockLevels(ctx context.Context, storeID string, codes []string) (map[string]int, error)
	Restock(ctx context.Context, storeID, ingredientCode string, delta int) error
}

// OrderRepository persists orders and executes the transition transactions.
// Every read-then-write sequence (availability check before reserving, status
// check before a side effect, stock check before a debit) runs inside a single
// transaction in the implementation.
type OrderRepository interface {
	// Create persists the order, its line item, customizations, side dish
	// lines and reservations atomically. Inside the same transaction it
	// verifies, under row locks, that on-hand stock minus other orders'
	// unconsumed reservations covers every reservation; otherwise it rolls
	// back and returns an InsufficientStockError naming every shortfall.
	Create(ctx context.Context, order *domain.Order) error

	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByNumber(ctx context.Context, number string) (*domain.Order, error)
	NextOrderNumber(ctx context.Context, year int) (string, error)
	StatusHistory(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error)

	// TransitionStatus performs a compare-and-set status update. When the
	// persisted status no longer matches from, it returns a ConflictError
	// (another transition won) or a StateTransitionError.
	TransitionStatus(ctx context.Context, orderID uuid.UUID, from, to domain.Status, changedBy string) error

	// BeginPreparing moves a received order to preparing and, for customer
	// orders, increments the loyalty order count and lifetime spend in the
	// same transaction. The status guard makes the increment happen at most
	// once per order.
	BeginPreparing(ctx context.Context, orderID uuid.UUID, changedBy string) error

	// CompleteWithConsumption moves a delivering order to completed and
	// consumes its reservations: re-validates stock under row locks, debits
	// the ledger for every reservation and flags them and the order consumed,
	// all in one transaction. A second call on a completed order is a no-op.
	// Insufficient stock at this point rejects the whole transition.
	CompleteWithConsumption(ctx context.Context, orderID uuid.UUID, changedBy string) error

	// CancelWithRelease moves the order from the expected status to the
	// target failure status, deletes its unconsumed reservations and records
	// the payment outcome. The ledger is never touched.
	CancelWithRelease(ctx context.Context, orderID uuid.UUID, from, to domain.Status, payment domain.PaymentStatus, changedBy string) error

	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status domain.PaymentStatus) error
}
