package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/UOS2025SWE/MrDaebak-sub000/internal/domain"
)

// OrderCreatedMessage is published to the orders topic exchange after a
// successful creation.
type OrderCreatedMessage struct {
	OrderID           uuid.UUID            `json:"order_id"`
	OrderNumber       string               `json:"order_number"`
	StoreID           string               `json:"store_id"`
	MenuCode          string               `json:"menu_code"`
	StyleCode         string               `json:"style_code"`
	Quantity          int                  `json:"quantity"`
	TotalPrice        decimal.Decimal      `json:"total_price"`
	Status            domain.Status        `json:"status"`
	PaymentStatus     domain.PaymentStatus `json:"payment_status"`
	EstimatedDelivery time.Time            `json:"estimated_delivery"`
}

// StatusUpdateMessage is broadcast on the status fanout exchange after every
// successful transition.
type StatusUpdateMessage struct {
	OrderID     uuid.UUID     `json:"order_id"`
	OrderNumber string        `json:"order_number"`
	OldStatus   domain.Status `json:"old_status"`
	NewStatus   domain.Status `json:"new_status"`
	ChangedBy   string        `json:"changed_by"`
	Timestamp   time.Time     `json:"timestamp"`
}

type MessagePublisher interface {
	PublishOrderCreated(ctx context.Context, msg OrderCreatedMessage) error
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
}

type MessageConsumer interface {
	ConsumeStatusUpdates(ctx context.Context, handler StatusUpdateHandler) error
}

type StatusUpdateHandler func(ctx context.Context, body []byte) error
