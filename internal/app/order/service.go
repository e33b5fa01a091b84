package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/UOS2025SWE/MrDaebak-sub000/internal/adapter/logger"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/domain"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/interfaces"
)

// Service is the order lifecycle controller. It owns creation, status
// transitions with their side effects (loyalty increment, inventory
// consumption, reservation release) and the read surface.
type Service struct {
	orders           interfaces.OrderRepository
	pricing          interfaces.PricingCalculator
	payments         interfaces.PaymentGateway
	publisher        interfaces.MessagePublisher
	logger           logger.Logger
	deliveryEstimate time.Duration
	now              func() time.Time
}

func NewService(
	orders interfaces.OrderRepository,
	pricing interfaces.PricingCalculator,
	payments interfaces.PaymentGateway,
	publisher interfaces.MessagePublisher,
	lgr logger.Logger,
	deliveryEstimate time.Duration,
) *Service {
	return &Service{
		orders:           orders,
		pricing:          pricing,
		payments:         payments,
		publisher:        publisher,
		logger:           lgr,
		deliveryEstimate: deliveryEstimate,
		now:              time.Now,
	}
}

// CreateOrder prices the request, persists the order together with its
// inventory reservations in one transaction, applies the mock payment and
// publishes the created event. A failed payment downgrades the order to
// payment_failed and releases its reservations; nothing was ever debited.
func (s *Service) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*interfaces.OrderResult, error) {
	breakdown, draw, err := s.pricing.Calculate(ctx, interfaces.PricingRequest{
		MenuCode:       cmd.MenuCode,
		StyleCode:      cmd.StyleCode,
		Quantity:       cmd.Quantity,
		Customizations: cmd.Customizations,
		SideDishes:     cmd.SideDishes,
		CustomerID:     cmd.CustomerID,
	})
	if err != nil {
		return nil, err
	}

	estimated := s.now().UTC().Add(s.deliveryEstimate)
	if cmd.ScheduledFor != nil {
		estimated = *cmd.ScheduledFor
	}

	ord, err := domain.NewOrder(cmd.StoreID, cmd.CustomerID, *breakdown, cmd.DeliveryAddress, cmd.ScheduledFor, estimated)
	if err != nil {
		return nil, err
	}
	ord.Reserve(draw)

	number, err := s.orders.NextOrderNumber(ctx, s.now().UTC().Year())
	if err != nil {
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}
	ord.Number = number

	if err := s.orders.Create(ctx, ord); err != nil {
		var stockErr *domain.InsufficientStockError
		if errors.As(err, &stockErr) {
			s.logger.Info("order_rejected", "Insufficient stock for order", "", map[string]interface{}{
				"order_number": number,
				"shortfalls":   len(stockErr.Shortfalls),
			})
			return nil, err
		}
		s.logger.Error("db_transaction_failed", "Failed to create order", "", nil, err)
		return nil, err
	}

	// Payment is applied immediately after creation and may downgrade the
	// order. The creation itself is already committed at this point.
	if err := s.payments.Charge(ctx, ord.Number, ord.TotalPrice); err != nil {
		s.logger.Info("payment_declined", "Payment failed, order downgraded", "", map[string]interface{}{
			"order_number": ord.Number,
		})
		if relErr := s.orders.CancelWithRelease(ctx, ord.ID, domain.StatusReceived, domain.StatusPaymentFailed, domain.PaymentFailed, "payment"); relErr != nil {
			return nil, fmt.Errorf("failed to record payment failure: %w", relErr)
		}
		ord.Status = domain.StatusPaymentFailed
		ord.PaymentStatus = domain.PaymentFailed
	} else {
		if payErr := s.orders.UpdatePaymentStatus(ctx, ord.ID, domain.PaymentPaid); payErr != nil {
			return nil, fmt.Errorf("failed to record payment: %w", payErr)
		}
		ord.PaymentStatus = domain.PaymentPaid
	}

	// Notification failures must not fail an already committed order.
	if err := s.publisher.PublishOrderCreated(ctx, interfaces.OrderCreatedMessage{
		OrderID:           ord.ID,
		OrderNumber:       ord.Number,
		StoreID:           ord.StoreID,
		MenuCode:          ord.Item.MenuCode,
		StyleCode:         ord.Item.StyleCode,
		Quantity:          ord.Item.Quantity,
		TotalPrice:        ord.TotalPrice,
		Status:            ord.Status,
		PaymentStatus:     ord.PaymentStatus,
		EstimatedDelivery: ord.EstimatedDelivery,
	}); err != nil {
		s.logger.Error("publish_failed", "Failed to publish order created event", "", map[string]interface{}{
			"order_number": ord.Number,
		}, err)
	}

	s.logger.Info("order_created", fmt.Sprintf("Order %s created", ord.Number), "", map[string]interface{}{
		"order_id":    ord.ID.String(),
		"total_price": ord.TotalPrice.String(),
		"status":      string(ord.Status),
	})

	return result(ord), nil
}

// TransitionStatus validates the requested change against the persisted order
// and executes it with its side effects inside the storage transaction.
func (s *Service) TransitionStatus(ctx context.Context, cmd interfaces.TransitionCommand) (*interfaces.OrderResult, error) {
	ord, err := s.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	// A duplicate completion signal is a no-op: consumption already happened
	// exactly once and the order is in its terminal success state.
	if cmd.NewStatus == domain.StatusCompleted && ord.Status == domain.StatusCompleted {
		return result(ord), nil
	}

	if err := ord.GuardTransition(cmd.NewStatus, cmd.Role); err != nil {
		return nil, err
	}
	oldStatus := ord.Status

	switch cmd.NewStatus {
	case domain.StatusPreparing:
		// Loyalty increment happens here, at most once, guarded by the
		// received -> preparing compare-and-set inside the transaction.
		err = s.orders.BeginPreparing(ctx, ord.ID, cmd.Actor)
	case domain.StatusDelivering:
		err = s.orders.TransitionStatus(ctx, ord.ID, domain.StatusPreparing, domain.StatusDelivering, cmd.Actor)
	case domain.StatusCompleted:
		err = s.orders.CompleteWithConsumption(ctx, ord.ID, cmd.Actor)
	case domain.StatusCancelled:
		// Staff cancellation; an earlier loyalty increment is intentionally
		// not reversed.
		payment := domain.PaymentRefunded
		if ord.PaymentStatus != domain.PaymentPaid {
			payment = ord.PaymentStatus
		}
		err = s.orders.CancelWithRelease(ctx, ord.ID, oldStatus, domain.StatusCancelled, payment, cmd.Actor)
	case domain.StatusPaymentFailed:
		err = s.orders.CancelWithRelease(ctx, ord.ID, oldStatus, domain.StatusPaymentFailed, domain.PaymentFailed, cmd.Actor)
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	s.publishStatusUpdate(ctx, updated, oldStatus, cmd.Actor)
	return result(updated), nil
}

// CancelOrder is the customer-initiated cancellation. It is only permitted
// while the order is still received and releases the unconsumed reservations
// without touching the ledger.
func (s *Service) CancelOrder(ctx context.Context, orderID uuid.UUID, actorCustomerID uuid.UUID) (*interfaces.OrderResult, error) {
	ord, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord.CustomerID == nil || *ord.CustomerID != actorCustomerID {
		return nil, domain.ErrNotOrderOwner
	}
	if err := ord.GuardTransition(domain.StatusCancelled, domain.RoleCustomer); err != nil {
		return nil, err
	}

	if err := s.orders.CancelWithRelease(ctx, orderID, domain.StatusReceived, domain.StatusCancelled, domain.PaymentRefunded, actorCustomerID.String()); err != nil {
		return nil, err
	}

	updated, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.publishStatusUpdate(ctx, updated, domain.StatusReceived, actorCustomerID.String())
	return result(updated), nil
}

func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*interfaces.OrderResult, error) {
	ord, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return result(ord), nil
}

func (s *Service) GetOrderByNumber(ctx context.Context, number string) (*interfaces.OrderResult, error) {
	ord, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return result(ord), nil
}

// GetPricingBreakdown returns the breakdown frozen at creation time.
func (s *Service) GetPricingBreakdown(ctx context.Context, orderID uuid.UUID) (*domain.PriceBreakdown, error) {
	ord, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	breakdown := ord.Breakdown
	return &breakdown, nil
}

func (s *Service) GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error) {
	return s.orders.StatusHistory(ctx, orderID)
}

func (s *Service) publishStatusUpdate(ctx context.Context, ord *domain.Order, oldStatus domain.Status, changedBy string) {
	msg := interfaces.StatusUpdateMessage{
		OrderID:     ord.ID,
		OrderNumber: ord.Number,
		OldStatus:   oldStatus,
		NewStatus:   ord.Status,
		ChangedBy:   changedBy,
		Timestamp:   s.now().UTC(),
	}
	if err := s.publisher.PublishStatusUpdate(ctx, msg); err != nil {
		s.logger.Error("publish_failed", "Failed to publish status update", "", map[string]interface{}{
			"order_number": ord.Number,
		}, err)
	}
}

func result(ord *domain.Order) *interfaces.OrderResult {
	breakdown := ord.Breakdown
	return &interfaces.OrderResult{
		ID:                ord.ID,
		Number:            ord.Number,
		Status:            ord.Status,
		PaymentStatus:     ord.PaymentStatus,
		TotalPrice:        ord.TotalPrice,
		EstimatedDelivery: ord.EstimatedDelivery,
		Breakdown:         &breakdown,
	}
}
