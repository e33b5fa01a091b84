package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/UOS2025SWE/MrDaebak-sub000/internal/interfaces"
)

type loyaltyRepository struct {
	db DB
}

func NewLoyaltyRepository(db DB) interfaces.LoyaltyRepository {
	return &loyaltyRepository{db: db}
}

// CompletedOrderCount reads the counter fed by the lifecycle controller. A
// customer without an account simply has zero orders.
func (r *loyaltyRepository) CompletedOrderCount(ctx context.Context, customerID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT order_count FROM loyalty_accounts WHERE customer_id = $1`,
		customerID,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read loyalty account: %w", err)
	}
	return count, nil
}
