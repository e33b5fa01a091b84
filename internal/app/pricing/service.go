package pricing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/UOS2025SWE/MrDaebak-sub000/internal/adapter/logger"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/domain"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/interfaces"
)

var oneHundred = decimal.NewFromInt(100)

// Service combines catalog prices, customization overage, side dish costs and
// both discount sources into a reproducible price breakdown. Given the same
// catalog, discount and loyalty state, two calculations for the same request
// produce identical results: discounts apply in event creation order and the
// ingredient draw is emitted in sorted code order.
type Service struct {
	catalog   interfaces.CatalogReader
	discounts interfaces.DiscountRepository
	loyalty   interfaces.LoyaltyResolver
	logger    logger.Logger
	now       func() time.Time
}

func NewService(catalog interfaces.CatalogReader, discounts interfaces.DiscountRepository, loyalty interfaces.LoyaltyResolver, lgr logger.Logger) *Service {
	return &Service{
		catalog:   catalog,
		discounts: discounts,
		loyalty:   loyalty,
		logger:    lgr,
		now:       time.Now,
	}
}

func (s *Service) Calculate(ctx context.Context, req interfaces.PricingRequest) (*domain.PriceBreakdown, []domain.IngredientRequirement, error) {
	if err := validateRequest(req); err != nil {
		return nil, nil, err
	}

	menu, style, err := s.catalog.MenuWithStyle(ctx, req.MenuCode, req.StyleCode)
	if err != nil {
		return nil, nil, err
	}

	unitPrice := menu.BasePrice.Add(style.PriceModifier)
	quantity := decimal.NewFromInt(int64(req.Quantity))
	baseTotal := unitPrice.Mul(quantity)

	// Total ingredient draw, starting from the style's base recipe scaled by
	// order quantity. Customizations below replace per-ingredient totals.
	draw := make(map[string]int)
	for _, ing := range style.BaseIngredients {
		draw[ing.IngredientCode] += ing.Quantity * req.Quantity
	}

	charges, customizationTotal, err := s.priceCustomizations(ctx, req.Customizations, draw)
	if err != nil {
		return nil, nil, err
	}

	sideLines, sideTotal, err := s.priceSideDishes(ctx, req.SideDishes, draw)
	if err != nil {
		return nil, nil, err
	}

	subtotal := baseTotal.Add(customizationTotal).Add(sideTotal)
	now := s.now()

	applications, eventTotal, err := s.applyEventDiscounts(ctx, req, baseTotal, sideLines, now)
	if err != nil {
		return nil, nil, err
	}

	// The loyalty discount is computed against the pre-event subtotal,
	// independent of the event discounts.
	standing, err := s.loyalty.Resolve(ctx, req.CustomerID)
	if err != nil {
		return nil, nil, err
	}
	loyaltyAmount := domain.RoundCurrency(subtotal.Mul(standing.Percent).Div(oneHundred))

	final := subtotal.Sub(eventTotal).Sub(loyaltyAmount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	breakdown := &domain.PriceBreakdown{
		MenuCode:           req.MenuCode,
		StyleCode:          req.StyleCode,
		Quantity:           req.Quantity,
		UnitPrice:          unitPrice,
		BaseTotal:          baseTotal,
		CustomizationTotal: customizationTotal,
		Customizations:     charges,
		SideDishTotal:      sideTotal,
		SideDishes:         sideLines,
		Subtotal:           subtotal,
		EventDiscounts:     applications,
		EventDiscountTotal: eventTotal,
		Loyalty:            standing,
		LoyaltyDiscount:    loyaltyAmount,
		FinalPrice:         final,
	}

	s.logger.Debug("order_priced", fmt.Sprintf("Priced %s/%s x%d", req.MenuCode, req.StyleCode, req.Quantity), "", map[string]interface{}{
		"subtotal":       subtotal.String(),
		"event_discount": eventTotal.String(),
		"loyalty_tier":   standing.Tier,
		"final_price":    final.String(),
	})

	return breakdown, sortedDraw(draw), nil
}

func validateRequest(req interfaces.PricingRequest) error {
	if req.MenuCode == "" {
		return &domain.ValidationError{Field: "menu_code", Message: "menu is required"}
	}
	if req.StyleCode == "" {
		return &domain.ValidationError{Field: "style_code", Message: "style is required"}
	}
	if req.Quantity < 1 {
		return &domain.ValidationError{Field: "quantity", Message: "quantity must be at least 1"}
	}
	// One entry per ingredient and per side dish; duplicates would make the
	// billing depend on listing order and collide on persistence.
	seenIngredients := make(map[string]bool, len(req.Customizations))
	for _, c := range req.Customizations {
		if c.IngredientCode == "" {
			return &domain.ValidationError{Field: "customizations", Message: "ingredient code is required"}
		}
		if c.Quantity < 0 {
			return &domain.ValidationError{Field: "customizations", Message: fmt.Sprintf("quantity for %s must not be negative", c.IngredientCode)}
		}
		if seenIngredients[c.IngredientCode] {
			return &domain.ValidationError{Field: "customizations", Message: fmt.Sprintf("duplicate entry for %s", c.IngredientCode)}
		}
		seenIngredients[c.IngredientCode] = true
	}
	seenSides := make(map[string]bool, len(req.SideDishes))
	for _, sd := range req.SideDishes {
		if sd.Quantity < 1 {
			return &domain.ValidationError{Field: "side_dishes", Message: fmt.Sprintf("quantity for %s must be at least 1", sd.Code)}
		}
		if seenSides[sd.Code] {
			return &domain.ValidationError{Field: "side_dishes", Message: fmt.Sprintf("duplicate entry for %s", sd.Code)}
		}
		seenSides[sd.Code] = true
	}
	return nil
}

// priceCustomizations bills positive deltas over the scaled base quantity and
// records negative deltas free of charge. Ingredient codes absent from the
// base recipe are billed in full at the requested quantity. The draw map is
// updated to the requested totals so reservations reflect what the kitchen
// will actually use.
func (s *Service) priceCustomizations(ctx context.Context, customizations []interfaces.CustomizationRequest, draw map[string]int) ([]domain.CustomizationCharge, decimal.Decimal, error) {
	if len(customizations) == 0 {
		return nil, decimal.Zero, nil
	}

	codes := make([]string, 0, len(customizations))
	for _, c := range customizations {
		codes = append(codes, c.IngredientCode)
	}
	prices, err := s.catalog.IngredientPrices(ctx, codes)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to load ingredient prices: %w", err)
	}

	charges := make([]domain.CustomizationCharge, 0, len(customizations))
	total := decimal.Zero
	for _, c := range customizations {
		base := draw[c.IngredientCode]
		charge := domain.CustomizationCharge{
			IngredientCode:    c.IngredientCode,
			BaseQuantity:      base,
			RequestedQuantity: c.Quantity,
			UnitPrice:         decimal.Zero,
			Amount:            decimal.Zero,
		}

		if billed := c.Quantity - base; billed > 0 {
			price, ok := prices[c.IngredientCode]
			if !ok {
				return nil, decimal.Zero, &domain.CatalogError{Kind: "ingredient", Code: c.IngredientCode, Reason: "no surcharge price defined"}
			}
			charge.BilledQuantity = billed
			charge.UnitPrice = price
			charge.Amount = domain.RoundCurrency(price.Mul(decimal.NewFromInt(int64(billed))))
			total = total.Add(charge.Amount)
		}

		// Quantities below the base are free but still change the draw.
		draw[c.IngredientCode] = c.Quantity
		charges = append(charges, charge)
	}

	return charges, total, nil
}

// priceSideDishes resolves every requested side dish, rejects missing or
// disabled ones and folds their ingredient requirements into the draw.
func (s *Service) priceSideDishes(ctx context.Context, sides []interfaces.SideDishRequest, draw map[string]int) ([]domain.SideDishLine, decimal.Decimal, error) {
	if len(sides) == 0 {
		return nil, decimal.Zero, nil
	}

	lines := make([]domain.SideDishLine, 0, len(sides))
	total := decimal.Zero
	for _, req := range sides {
		dish, err := s.catalog.SideDish(ctx, req.Code)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if !dish.Enabled {
			return nil, decimal.Zero, &domain.CatalogError{Kind: "side_dish", Code: req.Code, Reason: "currently disabled"}
		}

		lineTotal := dish.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))
		lines = append(lines, domain.SideDishLine{
			SideDishCode: dish.Code,
			Name:         dish.Name,
			Quantity:     req.Quantity,
			UnitPrice:    dish.UnitPrice,
			LineTotal:    lineTotal,
		})
		total = total.Add(lineTotal)

		for _, ing := range dish.Ingredients {
			draw[ing.IngredientCode] += ing.Quantity * req.Quantity
		}
	}

	return lines, total, nil
}

// applyEventDiscounts stacks active discounts per target in event creation
// order. Each application is rounded half-up as it happens and capped at the
// target's remaining undiscounted base, so concurrent discounts on one target
// can never exceed 100% of its price.
func (s *Service) applyEventDiscounts(ctx context.Context, req interfaces.PricingRequest, baseTotal decimal.Decimal, sideLines []domain.SideDishLine, now time.Time) ([]domain.DiscountApplication, decimal.Decimal, error) {
	var applications []domain.DiscountApplication
	total := decimal.Zero

	menuDiscounts, err := s.discounts.ActiveForTarget(ctx, domain.TargetMenuItem, req.MenuCode, now)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to load menu discounts: %w", err)
	}
	applied, amount := stackForTarget(menuDiscounts, baseTotal, req.Quantity, now)
	applications = append(applications, applied...)
	total = total.Add(amount)

	for _, line := range sideLines {
		sideDiscounts, err := s.discounts.ActiveForTarget(ctx, domain.TargetSideDish, line.SideDishCode, now)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("failed to load side dish discounts: %w", err)
		}
		applied, amount := stackForTarget(sideDiscounts, line.LineTotal, line.Quantity, now)
		applications = append(applications, applied...)
		total = total.Add(amount)
	}

	return applications, total, nil
}

func stackForTarget(discounts []domain.EventDiscount, base decimal.Decimal, quantity int, now time.Time) ([]domain.DiscountApplication, decimal.Decimal) {
	var applications []domain.DiscountApplication
	remaining := base
	total := decimal.Zero

	for _, d := range discounts {
		// The repository already scopes by date and publication; re-checking
		// here keeps the invariant independent of the discount source.
		if !d.ActiveAt(now) {
			continue
		}

		var nominal decimal.Decimal
		switch d.Type {
		case domain.DiscountPercentage:
			nominal = base.Mul(d.Value).Div(oneHundred)
		case domain.DiscountFixed:
			nominal = d.Value.Mul(decimal.NewFromInt(int64(quantity)))
		default:
			continue
		}

		applied := domain.RoundCurrency(nominal)
		if applied.GreaterThan(remaining) {
			applied = remaining
		}
		if !applied.IsPositive() {
			continue
		}

		remaining = remaining.Sub(applied)
		total = total.Add(applied)
		applications = append(applications, domain.DiscountApplication{
			EventID:    d.ID,
			EventName:  d.Name,
			TargetType: d.TargetType,
			TargetCode: d.TargetCode,
			Type:       d.Type,
			Value:      d.Value,
			Applied:    applied,
		})
	}

	return applications, total
}

func sortedDraw(draw map[string]int) []domain.IngredientRequirement {
	codes := make([]string, 0, len(draw))
	for code := range draw {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	reqs := make([]domain.IngredientRequirement, 0, len(codes))
	for _, code := range codes {
		reqs = append(reqs, domain.IngredientRequirement{IngredientCode: code, Quantity: draw[code]})
	}
	return reqs
}
