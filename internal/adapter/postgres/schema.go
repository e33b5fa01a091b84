package postgres

import (
	"context"
	"fmt"
)

// schemaStatements are applied in order at startup. Every statement is
// idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS menus (
		code VARCHAR(50) PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		base_price NUMERIC(12,0) NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS styles (
		code VARCHAR(50) PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		price_modifier NUMERIC(12,0) NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS menu_styles (
		menu_code VARCHAR(50) NOT NULL REFERENCES menus(code),
		style_code VARCHAR(50) NOT NULL REFERENCES styles(code),
		PRIMARY KEY (menu_code, style_code)
	)`,
	`CREATE TABLE IF NOT EXISTS style_ingredients (
		style_code VARCHAR(50) NOT NULL REFERENCES styles(code),
		ingredient_code VARCHAR(50) NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0),
		PRIMARY KEY (style_code, ingredient_code)
	)`,
	`CREATE TABLE IF NOT EXISTS side_dishes (
		code VARCHAR(50) PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		unit_price NUMERIC(12,0) NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS side_dish_ingredients (
		side_dish_code VARCHAR(50) NOT NULL REFERENCES side_dishes(code),
		ingredient_code VARCHAR(50) NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0),
		PRIMARY KEY (side_dish_code, ingredient_code)
	)`,
	`CREATE TABLE IF NOT EXISTS ingredient_prices (
		code VARCHAR(50) PRIMARY KEY,
		unit_price NUMERIC(12,0) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS event_discounts (
		id UUID PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		target_type VARCHAR(20) NOT NULL,
		target_code VARCHAR(50) NOT NULL,
		discount_type VARCHAR(20) NOT NULL,
		value NUMERIC(12,2) NOT NULL,
		starts_at TIMESTAMPTZ NOT NULL,
		ends_at TIMESTAMPTZ NOT NULL,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_event_discounts_target
		ON event_discounts (target_type, target_code)`,
	`CREATE TABLE IF NOT EXISTS loyalty_accounts (
		customer_id UUID PRIMARY KEY,
		order_count INT NOT NULL DEFAULT 0,
		lifetime_spend NUMERIC(14,0) NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		store_id VARCHAR(50) NOT NULL,
		ingredient_code VARCHAR(50) NOT NULL,
		on_hand INT NOT NULL DEFAULT 0 CHECK (on_hand >= 0),
		PRIMARY KEY (store_id, ingredient_code)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		number VARCHAR(30) NOT NULL UNIQUE,
		customer_id UUID,
		store_id VARCHAR(50) NOT NULL,
		status VARCHAR(20) NOT NULL,
		payment_status VARCHAR(20) NOT NULL,
		total_price NUMERIC(14,0) NOT NULL,
		price_breakdown JSONB NOT NULL,
		delivery_address TEXT NOT NULL,
		scheduled_for TIMESTAMPTZ,
		estimated_delivery TIMESTAMPTZ NOT NULL,
		inventory_consumed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS order_number_counters (
		year INT PRIMARY KEY,
		current INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id UUID PRIMARY KEY REFERENCES orders(id),
		menu_code VARCHAR(50) NOT NULL,
		style_code VARCHAR(50) NOT NULL,
		quantity INT NOT NULL CHECK (quantity >= 1),
		unit_price NUMERIC(12,0) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_customizations (
		order_id UUID NOT NULL REFERENCES orders(id),
		ingredient_code VARCHAR(50) NOT NULL,
		requested_quantity INT NOT NULL,
		delta INT NOT NULL,
		PRIMARY KEY (order_id, ingredient_code)
	)`,
	`CREATE TABLE IF NOT EXISTS order_side_dishes (
		order_id UUID NOT NULL REFERENCES orders(id),
		side_dish_code VARCHAR(50) NOT NULL,
		name VARCHAR(100) NOT NULL,
		quantity INT NOT NULL CHECK (quantity >= 1),
		unit_price NUMERIC(12,0) NOT NULL,
		line_total NUMERIC(14,0) NOT NULL,
		PRIMARY KEY (order_id, side_dish_code)
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_reservations (
		id SERIAL PRIMARY KEY,
		order_id UUID NOT NULL REFERENCES orders(id),
		store_id VARCHAR(50) NOT NULL,
		ingredient_code VARCHAR(50) NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0),
		consumed BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (order_id, ingredient_code)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_open
		ON inventory_reservations (store_id, ingredient_code) WHERE NOT consumed`,
	`CREATE TABLE IF NOT EXISTS order_status_log (
		id SERIAL PRIMARY KEY,
		order_id UUID NOT NULL REFERENCES orders(id),
		status VARCHAR(20) NOT NULL,
		changed_by VARCHAR(100) NOT NULL,
		changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		notes TEXT
	)`,
}

// EnsureSchema creates all tables this service needs.
func EnsureSchema(ctx context.Context, db DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
