package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/UOS2025SWE/MrDaebak-sub000/internal/domain"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/interfaces"
)

type discountRepository struct {
	db DB
}

func NewDiscountRepository(db DB) interfaces.DiscountRepository {
	return &discountRepository{db: db}
}

// ActiveForTarget returns published, date-active discounts for one target.
// Ordering by creation time pins the stacking order so a recalculation with
// the same discount state reproduces the same breakdown.
func (r *discountRepository) ActiveForTarget(ctx context.Context, target domain.DiscountTargetType, code string, at time.Time) ([]domain.EventDiscount, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, target_type, target_code, discount_type, value, starts_at, ends_at, published, created_at
		 FROM event_discounts
		 WHERE target_type = $1 AND target_code = $2 AND published
		   AND starts_at <= $3 AND ends_at >= $3
		 ORDER BY created_at ASC, id ASC`,
		target, code, at,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query event discounts: %w", err)
	}
	defer rows.Close()

	var discounts []domain.EventDiscount
	for rows.Next() {
		var d domain.EventDiscount
		if err := rows.Scan(&d.ID, &d.Name, &d.TargetType, &d.TargetCode, &d.Type, &d.Value,
			&d.StartsAt, &d.EndsAt, &d.Published, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event discount: %w", err)
		}
		discounts = append(discounts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query event discounts: %w", err)
	}
	return discounts, nil
}
