package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/UOS2025SWE/MrDaebak-sub000/internal/domain"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/interfaces"
)

type catalogRepository struct {
	db DB
}

func NewCatalogRepository(db DB) interfaces.CatalogReader {
	return &catalogRepository{db: db}
}

// MenuWithStyle resolves a (menu, style) pairing through the menu_styles
// allow-list and loads the style's base recipe.
func (r *catalogRepository) MenuWithStyle(ctx context.Context, menuCode, styleCode string) (*domain.MenuItem, *domain.MenuStyle, error) {
	query := `
		SELECT m.code, m.name, m.base_price, m.enabled, s.code, s.name, s.price_modifier
		FROM menus m
		JOIN menu_styles ms ON ms.menu_code = m.code
		JOIN styles s ON s.code = ms.style_code
		WHERE m.code = $1 AND s.code = $2 AND m.enabled
	`

	var menu domain.MenuItem
	var style domain.MenuStyle
	err := r.db.QueryRow(ctx, query, menuCode, styleCode).Scan(
		&menu.Code, &menu.Name, &menu.BasePrice, &menu.Enabled,
		&style.Code, &style.Name, &style.PriceModifier,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, &domain.CatalogError{
			Kind:   "menu_style",
			Code:   menuCode + "/" + styleCode,
			Reason: "unknown or disallowed pairing",
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve menu/style: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT ingredient_code, quantity FROM style_ingredients WHERE style_code = $1 ORDER BY ingredient_code`,
		styleCode,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load style recipe: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var req domain.IngredientRequirement
		if err := rows.Scan(&req.IngredientCode, &req.Quantity); err != nil {
			return nil, nil, fmt.Errorf("failed to scan style recipe: %w", err)
		}
		style.BaseIngredients = append(style.BaseIngredients, req)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to load style recipe: %w", err)
	}

	return &menu, &style, nil
}

func (r *catalogRepository) SideDish(ctx context.Context, code string) (*domain.SideDish, error) {
	var dish domain.SideDish
	err := r.db.QueryRow(ctx,
		`SELECT code, name, unit_price, enabled FROM side_dishes WHERE code = $1`,
		code,
	).Scan(&dish.Code, &dish.Name, &dish.UnitPrice, &dish.Enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.CatalogError{Kind: "side_dish", Code: code, Reason: "unknown side dish"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load side dish: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT ingredient_code, quantity FROM side_dish_ingredients WHERE side_dish_code = $1 ORDER BY ingredient_code`,
		code,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load side dish recipe: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var req domain.IngredientRequirement
		if err := rows.Scan(&req.IngredientCode, &req.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan side dish recipe: %w", err)
		}
		dish.Ingredients = append(dish.Ingredients, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load side dish recipe: %w", err)
	}

	return &dish, nil
}

func (r *catalogRepository) IngredientPrices(ctx context.Context, codes []string) (map[string]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx,
		`SELECT code, unit_price FROM ingredient_prices WHERE code = ANY($1)`,
		codes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load ingredient prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]decimal.Decimal, len(codes))
	for rows.Next() {
		var code string
		var price decimal.Decimal
		if err := rows.Scan(&code, &price); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient price: %w", err)
		}
		prices[code] = price
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load ingredient prices: %w", err)
	}
	return prices, nil
}
