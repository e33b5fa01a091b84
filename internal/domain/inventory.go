package domain

import "github.com/google/uuid"

// Reservation is a recorded intention to debit inventory. It is not reflected
// in on-hand stock until consumed.
type Reservation struct {
	ID             int
	OrderID        uuid.UUID
	StoreID        string
	IngredientCode string
	Quantity       int
	Consumed       bool
}

// StockLevel is the on-hand quantity of one ingredient at one store.
type StockLevel struct {
	StoreID        string
	IngredientCode string
	OnHand         int
}

// StockShortfall names one ingredient that cannot satisfy a required draw.
// Available already accounts for other orders' unconsumed reservations.
type StockShortfall struct {
	IngredientCode string
	Required       int
	Available      int
}
