package loyalty

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/UOS2025SWE/MrDaebak-sub000/internal/domain"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/interfaces"
)

const (
	TierGuest   = "guest"
	TierNew     = "new"
	TierRegular = "regular"
	TierVIP     = "vip"

	regularThreshold = 5
	vipThreshold     = 10
)

var (
	regularPercent = decimal.NewFromInt(10)
	vipPercent     = decimal.NewFromInt(20)
)

// Resolver maps a customer's historical order count to a discount tier. It
// only reads counter state; the lifecycle controller owns the increments.
type Resolver struct {
	repo interfaces.LoyaltyRepository
}

func NewResolver(repo interfaces.LoyaltyRepository) *Resolver {
	return &Resolver{repo: repo}
}

func (r *Resolver) Resolve(ctx context.Context, customerID *uuid.UUID) (domain.LoyaltyStanding, error) {
	if customerID == nil {
		return domain.LoyaltyStanding{Tier: TierGuest, Percent: decimal.Zero}, nil
	}

	count, err := r.repo.CompletedOrderCount(ctx, *customerID)
	if err != nil {
		return domain.LoyaltyStanding{}, fmt.Errorf("failed to read loyalty count: %w", err)
	}

	standing := domain.LoyaltyStanding{CompletedOrders: count}
	switch {
	case count >= vipThreshold:
		standing.Tier = TierVIP
		standing.Percent = vipPercent
	case count >= regularThreshold:
		standing.Tier = TierRegular
		standing.Percent = regularPercent
		standing.OrdersToNext = vipThreshold - count
	default:
		standing.Tier = TierNew
		standing.Percent = decimal.Zero
		standing.OrdersToNext = regularThreshold - count
	}

	return standing, nil
}
