package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/UOS2025SWE/MrDaebak-sub000/internal/domain"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/interfaces"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

// Create persists the whole order aggregate in one transaction. The
// availability check runs under row locks on the inventory rows so two
// concurrent creations cannot both pass against the same remaining stock.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.checkAvailability(ctx, tx, order); err != nil {
		return err
	}

	breakdown, err := json.Marshal(order.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal price breakdown: %w", err)
	}

	query := `
		INSERT INTO orders (id, number, customer_id, store_id, status, payment_status,
		                    total_price, price_breakdown, delivery_address, scheduled_for,
		                    estimated_delivery, inventory_consumed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = tx.Exec(ctx, query,
		order.ID, order.Number, order.CustomerID, order.StoreID, order.Status, order.PaymentStatus,
		order.TotalPrice, breakdown, order.DeliveryAddress, order.ScheduledFor,
		order.EstimatedDelivery, order.InventoryConsumed, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, menu_code, style_code, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.Exec(ctx, itemQuery,
		order.ID, order.Item.MenuCode, order.Item.StyleCode, order.Item.Quantity, order.Item.UnitPrice,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order item: %w", err)
	}

	for _, c := range order.Item.Customizations {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_customizations (order_id, ingredient_code, requested_quantity, delta)
			 VALUES ($1, $2, $3, $4)`,
			order.ID, c.IngredientCode, c.RequestedQuantity, c.Delta,
		)
		if err != nil {
			return fmt.Errorf("failed to insert customization: %w", err)
		}
	}

	for _, sd := range order.SideDishes {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_side_dishes (order_id, side_dish_code, name, quantity, unit_price, line_total)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			order.ID, sd.SideDishCode, sd.Name, sd.Quantity, sd.UnitPrice, sd.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("failed to insert side dish line: %w", err)
		}
	}

	for _, res := range order.Reservations {
		_, err = tx.Exec(ctx,
			`INSERT INTO inventory_reservations (order_id, store_id, ingredient_code, quantity, consumed)
			 VALUES ($1, $2, $3, $4, FALSE)`,
			order.ID, res.StoreID, res.IngredientCode, res.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert reservation: %w", err)
		}
	}

	if err := r.logStatus(ctx, tx, order.ID, order.Status, "order-service"); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// checkAvailability locks the inventory row of every reserved ingredient and
// verifies on-hand stock minus other orders' unconsumed reservations covers
// the new reservation. Every shortfall is collected before failing.
func (r *orderRepository) checkAvailability(ctx context.Context, tx Tx, order *domain.Order) error {
	var shortfalls []domain.StockShortfall
	for _, res := range order.Reservations {
		var onHand int
		err := tx.QueryRow(ctx,
			`SELECT on_hand FROM inventory WHERE store_id = $1 AND ingredient_code = $2 FOR UPDATE`,
			res.StoreID, res.IngredientCode,
		).Scan(&onHand)
		if errors.Is(err, pgx.ErrNoRows) {
			onHand = 0
		} else if err != nil {
			return fmt.Errorf("failed to read stock for %s: %w", res.IngredientCode, err)
		}

		var reserved int
		err = tx.QueryRow(ctx,
			`SELECT COALESCE(SUM(quantity), 0) FROM inventory_reservations
			 WHERE store_id = $1 AND ingredient_code = $2 AND NOT consumed`,
			res.StoreID, res.IngredientCode,
		).Scan(&reserved)
		if err != nil {
			return fmt.Errorf("failed to read reservations for %s: %w", res.IngredientCode, err)
		}

		available := onHand - reserved
		if available < res.Quantity {
			shortfalls = append(shortfalls, domain.StockShortfall{
				IngredientCode: res.IngredientCode,
				Required:       res.Quantity,
				Available:      available,
			})
		}
	}

	if len(shortfalls) > 0 {
		return &domain.InsufficientStockError{Shortfalls: shortfalls}
	}
	return nil
}

// TransitionStatus is a compare-and-set on the persisted status. A failed set
// is diagnosed by re-reading the current row.
func (r *orderRepository) TransitionStatus(ctx context.Context, orderID uuid.UUID, from, to domain.Status, changedBy string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		orderID, from, to,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.diagnoseFailedSet(ctx, orderID, from, to)
	}

	if err := r.logStatus(ctx, tx, orderID, to, changedBy); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// BeginPreparing performs the received -> preparing set together with the
// loyalty increment in one transaction. The status guard makes the increment
// happen exactly once per order even under retried requests.
func (r *orderRepository) BeginPreparing(ctx context.Context, orderID uuid.UUID, changedBy string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var customerID *uuid.UUID
	var total decimal.Decimal
	var status domain.Status
	err = tx.QueryRow(ctx,
		`SELECT status, customer_id, total_price FROM orders WHERE id = $1 FOR UPDATE`,
		orderID,
	).Scan(&status, &customerID, &total)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read order: %w", err)
	}

	if status != domain.StatusReceived {
		if status == domain.StatusPreparing {
			return &domain.ConflictError{OrderID: orderID, Current: status}
		}
		return &domain.StateTransitionError{From: status, To: domain.StatusPreparing}
	}

	_, err = tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
		orderID, domain.StatusPreparing,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	// Guest orders do not affect loyalty state.
	if customerID != nil {
		_, err = tx.Exec(ctx,
			`INSERT INTO loyalty_accounts (customer_id, order_count, lifetime_spend, updated_at)
			 VALUES ($1, 1, $2, NOW())
			 ON CONFLICT (customer_id) DO UPDATE
			 SET order_count = loyalty_accounts.order_count + 1,
			     lifetime_spend = loyalty_accounts.lifetime_spend + EXCLUDED.lifetime_spend,
			     updated_at = NOW()`,
			*customerID, total,
		)
		if err != nil {
			return fmt.Errorf("failed to update loyalty account: %w", err)
		}
	}

	if err := r.logStatus(ctx, tx, orderID, domain.StatusPreparing, changedBy); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CompleteWithConsumption moves a delivering order to completed and debits
// the ledger for its reservations, all in one transaction. On a second call
// the order is already completed and nothing happens. If stock moved since
// reservation and no longer suffices, the transition is rejected whole.
func (r *orderRepository) CompleteWithConsumption(ctx context.Context, orderID uuid.UUID, changedBy string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status domain.Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read order: %w", err)
	}

	if status == domain.StatusCompleted {
		// Duplicate completion signal; consumption already happened.
		return nil
	}
	if status != domain.StatusDelivering {
		return &domain.StateTransitionError{From: status, To: domain.StatusCompleted}
	}

	rows, err := tx.Query(ctx,
		`SELECT id, store_id, ingredient_code, quantity FROM inventory_reservations
		 WHERE order_id = $1 AND NOT consumed
		 ORDER BY ingredient_code`,
		orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to read reservations: %w", err)
	}
	var reservations []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.ID, &res.StoreID, &res.IngredientCode, &res.Quantity); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read reservations: %w", err)
	}

	// Stock may have moved since reservation; re-validate under locks before
	// debiting anything.
	var shortfalls []domain.StockShortfall
	for _, res := range reservations {
		var onHand int
		err := tx.QueryRow(ctx,
			`SELECT on_hand FROM inventory WHERE store_id = $1 AND ingredient_code = $2 FOR UPDATE`,
			res.StoreID, res.IngredientCode,
		).Scan(&onHand)
		if errors.Is(err, pgx.ErrNoRows) {
			onHand = 0
		} else if err != nil {
			return fmt.Errorf("failed to read stock for %s: %w", res.IngredientCode, err)
		}
		if onHand < res.Quantity {
			shortfalls = append(shortfalls, domain.StockShortfall{
				IngredientCode: res.IngredientCode,
				Required:       res.Quantity,
				Available:      onHand,
			})
		}
	}
	if len(shortfalls) > 0 {
		return &domain.InsufficientStockError{Shortfalls: shortfalls}
	}

	for _, res := range reservations {
		_, err = tx.Exec(ctx,
			`UPDATE inventory SET on_hand = on_hand - $3 WHERE store_id = $1 AND ingredient_code = $2`,
			res.StoreID, res.IngredientCode, res.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to debit stock for %s: %w", res.IngredientCode, err)
		}
		_, err = tx.Exec(ctx,
			`UPDATE inventory_reservations SET consumed = TRUE WHERE id = $1`,
			res.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to mark reservation consumed: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE orders SET status = $2, inventory_consumed = TRUE, updated_at = NOW() WHERE id = $1`,
		orderID, domain.StatusCompleted,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if err := r.logStatus(ctx, tx, orderID, domain.StatusCompleted, changedBy); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CancelWithRelease moves the order into a failure state and deletes its
// unconsumed reservations. The ledger is never touched; nothing was debited.
func (r *orderRepository) CancelWithRelease(ctx context.Context, orderID uuid.UUID, from, to domain.Status, payment domain.PaymentStatus, changedBy string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $3, payment_status = $4, updated_at = NOW()
		 WHERE id = $1 AND status = $2`,
		orderID, from, to, payment,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.diagnoseFailedSet(ctx, orderID, from, to)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM inventory_reservations WHERE order_id = $1 AND NOT consumed`,
		orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to release reservations: %w", err)
	}

	if err := r.logStatus(ctx, tx, orderID, to, changedBy); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status domain.PaymentStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE id = $1`,
		orderID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// diagnoseFailedSet turns a zero-row CAS into the right typed error.
func (r *orderRepository) diagnoseFailedSet(ctx context.Context, orderID uuid.UUID, from, to domain.Status) error {
	var current domain.Status
	err := r.db.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read order status: %w", err)
	}
	if current == from {
		// Raced with another writer between the set and this read.
		return &domain.ConflictError{OrderID: orderID, Current: current}
	}
	if current == to {
		return &domain.ConflictError{OrderID: orderID, Current: current}
	}
	return &domain.StateTransitionError{From: current, To: to}
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.findOne(ctx, `WHERE o.id = $1`, id)
}

func (r *orderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return r.findOne(ctx, `WHERE o.number = $1`, number)
}

func (r *orderRepository) findOne(ctx context.Context, where string, arg any) (*domain.Order, error) {
	query := `
		SELECT o.id, o.number, o.customer_id, o.store_id, o.status, o.payment_status,
		       o.total_price, o.price_breakdown, o.delivery_address, o.scheduled_for,
		       o.estimated_delivery, o.inventory_consumed, o.created_at, o.updated_at,
		       i.menu_code, i.style_code, i.quantity, i.unit_price
		FROM orders o
		JOIN order_items i ON i.order_id = o.id ` + where

	var order domain.Order
	var breakdown []byte
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&order.ID, &order.Number, &order.CustomerID, &order.StoreID, &order.Status, &order.PaymentStatus,
		&order.TotalPrice, &breakdown, &order.DeliveryAddress, &order.ScheduledFor,
		&order.EstimatedDelivery, &order.InventoryConsumed, &order.CreatedAt, &order.UpdatedAt,
		&order.Item.MenuCode, &order.Item.StyleCode, &order.Item.Quantity, &order.Item.UnitPrice,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if err := json.Unmarshal(breakdown, &order.Breakdown); err != nil {
		return nil, fmt.Errorf("failed to unmarshal price breakdown: %w", err)
	}
	order.SideDishes = order.Breakdown.SideDishes

	rows, err := r.db.Query(ctx,
		`SELECT ingredient_code, requested_quantity, delta FROM order_customizations WHERE order_id = $1 ORDER BY ingredient_code`,
		order.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load customizations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c domain.IngredientCustomization
		if err := rows.Scan(&c.IngredientCode, &c.RequestedQuantity, &c.Delta); err != nil {
			return nil, fmt.Errorf("failed to scan customization: %w", err)
		}
		order.Item.Customizations = append(order.Item.Customizations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load customizations: %w", err)
	}

	resRows, err := r.db.Query(ctx,
		`SELECT id, store_id, ingredient_code, quantity, consumed FROM inventory_reservations WHERE order_id = $1 ORDER BY ingredient_code`,
		order.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations: %w", err)
	}
	defer resRows.Close()
	for resRows.Next() {
		res := domain.Reservation{OrderID: order.ID}
		if err := resRows.Scan(&res.ID, &res.StoreID, &res.IngredientCode, &res.Quantity, &res.Consumed); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		order.Reservations = append(order.Reservations, res)
	}
	if err := resRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load reservations: %w", err)
	}

	return &order, nil
}

// NextOrderNumber generates a human-readable number, sequential within the
// calendar year. The per-year counter row makes the allocation a single
// atomic statement, so concurrent creations never draw the same number.
func (r *orderRepository) NextOrderNumber(ctx context.Context, year int) (string, error) {
	var seq int
	err := r.db.QueryRow(ctx,
		`INSERT INTO order_number_counters (year, current) VALUES ($1, 1)
		 ON CONFLICT (year) DO UPDATE SET current = order_number_counters.current + 1
		 RETURNING current`,
		year,
	).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("failed to allocate order number: %w", err)
	}

	return fmt.Sprintf("ORD-%d-%06d", year, seq), nil
}

func (r *orderRepository) StatusHistory(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, order_id, status, changed_by, changed_at, notes
		 FROM order_status_log WHERE order_id = $1 ORDER BY changed_at ASC, id ASC`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		var log domain.StatusLog
		if err := rows.Scan(&log.ID, &log.OrderID, &log.Status, &log.ChangedBy, &log.ChangedAt, &log.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		logs = append(logs, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	return logs, nil
}

func (r *orderRepository) logStatus(ctx context.Context, tx Tx, orderID uuid.UUID, status domain.Status, changedBy string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO order_status_log (order_id, status, changed_by, changed_at) VALUES ($1, $2, $3, $4)`,
		orderID, status, changedBy, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}
	return nil
}
