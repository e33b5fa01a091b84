package postgres

import (
	"context"
	"fmt"

	"github.com/UOS2025SWE/MrDaebak-sub000/internal/interfaces"
)

type inventoryRepository struct {
	db DB
}

func NewInventoryRepository(db DB) interfaces.InventoryRepository {
	return &inventoryRepository{db: db}
}

// StockLevels reads on-hand quantities outside any order transaction. Codes
// without a ledger row are reported as zero.
func (r *inventoryRepository) StockLevels(ctx context.Context, storeID string, codes []string) (map[string]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ingredient_code, on_hand FROM inventory WHERE store_id = $1 AND ingredient_code = ANY($2)`,
		storeID, codes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	levels := make(map[string]int, len(codes))
	for _, code := range codes {
		levels[code] = 0
	}
	for rows.Next() {
		var code string
		var onHand int
		if err := rows.Scan(&code, &onHand); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels[code] = onHand
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	return levels, nil
}

// Restock applies a signed manual adjustment to the ledger.
func (r *inventoryRepository) Restock(ctx context.Context, storeID, ingredientCode string, delta int) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO inventory (store_id, ingredient_code, on_hand)
		 VALUES ($1, $2, GREATEST($3, 0))
		 ON CONFLICT (store_id, ingredient_code) DO UPDATE
		 SET on_hand = inventory.on_hand + $3`,
		storeID, ingredientCode, delta,
	)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	return nil
}
