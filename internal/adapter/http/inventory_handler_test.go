package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/UOS2025SWE/MrDaebak-sub000/internal/adapter/logger"
)

type fakeInventory struct {
	levels   map[string]int
	restocks []string
}

func (f *fakeInventory) StockLevels(ctx context.Context, storeID string, codes []string) (map[string]int, error) {
	out := make(map[string]int, len(codes))
	for _, code := range codes {
		out[code] = f.levels[code]
	}
	return out, nil
}

func (f *fakeInventory) Restock(ctx context.Context, storeID, ingredientCode string, delta int) error {
	f.restocks = append(f.restocks, ingredientCode)
	return nil
}

func newInventoryHandler(inv *fakeInventory) *InventoryHandler {
	return NewInventoryHandler(inv, "gangnam-01", logger.New("http-test", false))
}

func TestStockLevelsRequiresStaffRole(t *testing.T) {
	h := newInventoryHandler(&fakeInventory{})

	req := httptest.NewRequest(http.MethodGet, "/inventory?codes=steak", nil)
	rec := httptest.NewRecorder()
	h.StockLevels(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestStockLevels(t *testing.T) {
	h := newInventoryHandler(&fakeInventory{levels: map[string]int{"steak": 5}})

	req := httptest.NewRequest(http.MethodGet, "/inventory?codes=steak,wine", nil)
	req.Header.Set("X-Actor-Role", "staff")
	rec := httptest.NewRecorder()
	h.StockLevels(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var levels map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&levels); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if levels["steak"] != 5 {
		t.Errorf("steak = %d, want 5", levels["steak"])
	}
	if got, ok := levels["wine"]; !ok || got != 0 {
		t.Errorf("wine = %d (present %v), want 0", got, ok)
	}
}

func TestRestockValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"ingredient_code":"steak","delta":10}`, http.StatusNoContent},
		{"negative adjustment", `{"ingredient_code":"steak","delta":-3}`, http.StatusNoContent},
		{"missing code", `{"delta":10}`, http.StatusBadRequest},
		{"zero delta", `{"ingredient_code":"steak"}`, http.StatusBadRequest},
		{"malformed body", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newInventoryHandler(&fakeInventory{})
			req := httptest.NewRequest(http.MethodPost, "/inventory/restock", strings.NewReader(tt.body))
			req.Header.Set("X-Actor-Role", "manager")
			rec := httptest.NewRecorder()
			h.Restock(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestValidateCreateOrderRequest(t *testing.T) {
	valid := CreateOrderRequest{
		MenuCode:        "valentine",
		StyleCode:       "simple",
		Quantity:        1,
		DeliveryAddress: "12 Teheran-ro, Gangnam-gu",
	}

	if errs := validateCreateOrderRequest(valid); len(errs) != 0 {
		t.Errorf("valid request produced errors: %+v", errs)
	}

	missing := CreateOrderRequest{Quantity: 0, DeliveryAddress: "short"}
	errs := validateCreateOrderRequest(missing)
	fields := make(map[string]bool)
	for _, fe := range errs {
		fields[fe.Field] = true
	}
	for _, want := range []string{"menu_code", "style_code", "quantity", "delivery_address"} {
		if !fields[want] {
			t.Errorf("missing field error for %s", want)
		}
	}
}
