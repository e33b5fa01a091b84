package domain

import "github.com/shopspring/decimal"

// MenuItem represents a priced dinner menu entry.
type MenuItem struct {
	Code      string
	Name      string
	BasePrice decimal.Decimal
	Enabled   bool
}

// MenuStyle represents a serving style with its price modifier and base recipe.
// The recipe lists ingredient quantities for a single serving.
type MenuStyle struct {
	Code            string
	Name            string
	PriceModifier   decimal.Decimal
	BaseIngredients []IngredientRequirement
}

// IngredientRequirement is one line of a bill of materials.
type IngredientRequirement struct {
	IngredientCode string
	Quantity       int
}

// SideDish represents an orderable side with its own bill of materials.
type SideDish struct {
	Code        string
	Name        string
	UnitPrice   decimal.Decimal
	Enabled     bool
	Ingredients []IngredientRequirement
}
