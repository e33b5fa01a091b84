package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/UOS2025SWE/MrDaebak-sub000/internal/adapter/logger"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/interfaces"
)

// InventoryHandler exposes the ledger reads and manual restocks used by store
// staff. Reservations are invisible here; only on-hand quantities are shown.
type InventoryHandler struct {
	inventory interfaces.InventoryRepository
	storeID   string
	logger    logger.Logger
}

func NewInventoryHandler(inventory interfaces.InventoryRepository, storeID string, lgr logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		storeID:   storeID,
		logger:    lgr,
	}
}

type RestockRequest struct {
	IngredientCode string `json:"ingredient_code"`
	Delta          int    `json:"delta"`
}

// StockLevels handles GET /inventory?codes=a,b,c.
func (h *InventoryHandler) StockLevels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}
	if !actorRole(r).IsStaff() {
		respondError(w, "Staff role required", http.StatusForbidden, nil)
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("codes"))
	if raw == "" {
		respondError(w, "codes query parameter is required", http.StatusBadRequest, nil)
		return
	}
	codes := strings.Split(raw, ",")
	for i := range codes {
		codes[i] = strings.TrimSpace(codes[i])
	}

	levels, err := h.inventory.StockLevels(r.Context(), h.storeID, codes)
	if err != nil {
		h.logger.Error("inventory_read_failed", "Failed to read stock levels", "", nil, err)
		respondError(w, "Internal server error", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(levels)
}

// Restock handles POST /inventory/restock.
func (h *InventoryHandler) Restock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}
	if !actorRole(r).IsStaff() {
		respondError(w, "Staff role required", http.StatusForbidden, nil)
		return
	}

	var req RestockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if strings.TrimSpace(req.IngredientCode) == "" {
		respondError(w, "ingredient_code is required", http.StatusBadRequest, nil)
		return
	}
	if req.Delta == 0 {
		respondError(w, "delta must not be zero", http.StatusBadRequest, nil)
		return
	}

	if err := h.inventory.Restock(r.Context(), h.storeID, strings.TrimSpace(req.IngredientCode), req.Delta); err != nil {
		h.logger.Error("restock_failed", "Failed to adjust stock", "", nil, err)
		respondError(w, "Internal server error", http.StatusInternalServerError, nil)
		return
	}

	h.logger.Info("stock_adjusted", "Stock adjusted", "", map[string]interface{}{
		"ingredient_code": req.IngredientCode,
		"delta":           req.Delta,
		"actor":           actorName(r),
	})
	w.WriteHeader(http.StatusNoContent)
}
