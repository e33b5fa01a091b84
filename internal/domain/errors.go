package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrNotOrderOwner = errors.New("order belongs to another customer")
)

// CatalogError covers unknown or disallowed menu/style pairings and unknown or
// disabled side dishes. Not retryable.
type CatalogError struct {
	Kind   string // "menu_style", "side_dish", "ingredient"
	Code   string
	Reason string
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog: %s %q: %s", e.Kind, e.Code, e.Reason)
}

// ValidationError covers malformed request input. Not retryable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// InsufficientStockError carries every shortfalled ingredient, not just the
// first one found.
type InsufficientStockError struct {
	Shortfalls []StockShortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		parts[i] = fmt.Sprintf("%s (required %d, available %d)", s.IngredientCode, s.Required, s.Available)
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

// StateTransitionError reports an illegal status change. The order is left
// unchanged.
type StateTransitionError struct {
	From   Status
	To     Status
	Reason string
}

func (e *StateTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot transition order from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// ConflictError reports that a concurrent transition won the race. The caller
// may re-read the current status and decide whether to retry.
type ConflictError struct {
	OrderID uuid.UUID
	Current Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("order %s already transitioned, current status %s", e.OrderID, e.Current)
}
