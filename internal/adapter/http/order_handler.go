package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/UOS2025SWE/MrDaebak-sub000/internal/adapter/logger"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/domain"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/interfaces"
)

type OrderHandler struct {
	service interfaces.OrderService
	storeID string
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, storeID string, lgr logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		storeID: storeID,
		logger:  lgr,
	}
}

type CreateOrderRequest struct {
	MenuCode        string                 `json:"menu_code"`
	StyleCode       string                 `json:"style_code"`
	Quantity        int                    `json:"quantity"`
	Customizations  []CustomizationEntry   `json:"customizations,omitempty"`
	SideDishes      []SideDishEntry        `json:"side_dishes,omitempty"`
	DeliveryAddress string                 `json:"delivery_address"`
	ScheduledFor    *time.Time             `json:"scheduled_for,omitempty"`
}

type CustomizationEntry struct {
	IngredientCode string `json:"ingredient_code"`
	Quantity       int    `json:"quantity"`
}

type SideDishEntry struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
}

type TransitionRequest struct {
	NewStatus string `json:"new_status"`
}

type OrderResponse struct {
	ID                uuid.UUID `json:"id"`
	Number            string    `json:"number"`
	Status            string    `json:"status"`
	PaymentStatus     string    `json:"payment_status"`
	TotalPrice        string    `json:"total_price"`
	EstimatedDelivery time.Time `json:"estimated_delivery"`
}

type StatusLogResponse struct {
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error  string       `json:"error"`
	Errors []FieldError `json:"errors,omitempty"`
}

// CreateOrder handles POST /orders.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if fieldErrors := validateCreateOrderRequest(req); len(fieldErrors) > 0 {
		h.respondError(w, "Validation failed", http.StatusBadRequest, fieldErrors)
		return
	}

	cmd := interfaces.CreateOrderCommand{
		StoreID:         h.storeID,
		MenuCode:        strings.TrimSpace(req.MenuCode),
		StyleCode:       strings.TrimSpace(req.StyleCode),
		Quantity:        req.Quantity,
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		ScheduledFor:    req.ScheduledFor,
		CustomerID:      customerID(r),
	}
	for _, c := range req.Customizations {
		cmd.Customizations = append(cmd.Customizations, interfaces.CustomizationRequest{
			IngredientCode: c.IngredientCode,
			Quantity:       c.Quantity,
		})
	}
	for _, sd := range req.SideDishes {
		cmd.SideDishes = append(cmd.SideDishes, interfaces.SideDishRequest{
			Code:     sd.Code,
			Quantity: sd.Quantity,
		})
	}

	result, err := h.service.CreateOrder(r.Context(), cmd)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, toResponse(result))
}

// HandleOrderPath routes /orders/{id}[/status|/cancel|/pricing|/history].
func (h *OrderHandler) HandleOrderPath(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "orders" {
		h.respondError(w, "Not found", http.StatusNotFound, nil)
		return
	}

	orderID, err := h.resolveOrderID(r, parts[1])
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		h.getOrder(w, r, orderID)
	case len(parts) == 3 && parts[2] == "status" && r.Method == http.MethodPost:
		h.transition(w, r, orderID)
	case len(parts) == 3 && parts[2] == "cancel" && r.Method == http.MethodPost:
		h.cancel(w, r, orderID)
	case len(parts) == 3 && parts[2] == "pricing" && r.Method == http.MethodGet:
		h.pricing(w, r, orderID)
	case len(parts) == 3 && parts[2] == "history" && r.Method == http.MethodGet:
		h.history(w, r, orderID)
	default:
		h.respondError(w, "Not found", http.StatusNotFound, nil)
	}
}

// resolveOrderID accepts either the order's uuid or its human-facing number
// ("ORD-2026-000001") as the path segment.
func (h *OrderHandler) resolveOrderID(r *http.Request, raw string) (uuid.UUID, error) {
	if id, err := uuid.Parse(raw); err == nil {
		return id, nil
	}
	result, err := h.service.GetOrderByNumber(r.Context(), raw)
	if err != nil {
		return uuid.Nil, err
	}
	return result.ID, nil
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	result, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toResponse(result))
}

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	result, err := h.service.TransitionStatus(r.Context(), interfaces.TransitionCommand{
		OrderID:   orderID,
		NewStatus: domain.Status(req.NewStatus),
		Role:      actorRole(r),
		Actor:     actorName(r),
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toResponse(result))
}

func (h *OrderHandler) cancel(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	customer := customerID(r)
	if customer == nil {
		h.respondError(w, "Customer identity required", http.StatusForbidden, nil)
		return
	}

	result, err := h.service.CancelOrder(r.Context(), orderID, *customer)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toResponse(result))
}

func (h *OrderHandler) pricing(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	breakdown, err := h.service.GetPricingBreakdown(r.Context(), orderID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, breakdown)
}

func (h *OrderHandler) history(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	logs, err := h.service.GetStatusHistory(r.Context(), orderID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	resp := make([]StatusLogResponse, 0, len(logs))
	for _, log := range logs {
		resp = append(resp, StatusLogResponse{
			Status:    string(log.Status),
			ChangedBy: log.ChangedBy,
			ChangedAt: log.ChangedAt,
		})
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func validateCreateOrderRequest(req CreateOrderRequest) []FieldError {
	var fieldErrors []FieldError

	if strings.TrimSpace(req.MenuCode) == "" {
		fieldErrors = append(fieldErrors, FieldError{Field: "menu_code", Message: "menu code is required"})
	}
	if strings.TrimSpace(req.StyleCode) == "" {
		fieldErrors = append(fieldErrors, FieldError{Field: "style_code", Message: "style code is required"})
	}
	if req.Quantity < 1 {
		fieldErrors = append(fieldErrors, FieldError{Field: "quantity", Message: "quantity must be at least 1"})
	}
	if len(strings.TrimSpace(req.DeliveryAddress)) < 10 {
		fieldErrors = append(fieldErrors, FieldError{Field: "delivery_address", Message: "delivery address must be at least 10 characters"})
	}
	for _, c := range req.Customizations {
		if c.Quantity < 0 {
			fieldErrors = append(fieldErrors, FieldError{Field: "customizations", Message: "quantity must not be negative"})
		}
		if strings.TrimSpace(c.IngredientCode) == "" {
			fieldErrors = append(fieldErrors, FieldError{Field: "customizations", Message: "ingredient code is required"})
		}
	}
	for _, sd := range req.SideDishes {
		if sd.Quantity < 1 {
			fieldErrors = append(fieldErrors, FieldError{Field: "side_dishes", Message: "quantity must be at least 1"})
		}
	}

	return fieldErrors
}

// Authentication is external; the gateway forwards the caller identity and
// role as headers.
func customerID(r *http.Request) *uuid.UUID {
	raw := r.Header.Get("X-Customer-Id")
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func actorRole(r *http.Request) domain.ActorRole {
	role := domain.ActorRole(r.Header.Get("X-Actor-Role"))
	switch role {
	case domain.RoleStaff, domain.RoleManager:
		return role
	default:
		return domain.RoleCustomer
	}
}

func actorName(r *http.Request) string {
	if name := r.Header.Get("X-Actor-Name"); name != "" {
		return name
	}
	return "unknown"
}

func toResponse(result *interfaces.OrderResult) OrderResponse {
	return OrderResponse{
		ID:                result.ID,
		Number:            result.Number,
		Status:            string(result.Status),
		PaymentStatus:     string(result.PaymentStatus),
		TotalPrice:        result.TotalPrice.String(),
		EstimatedDelivery: result.EstimatedDelivery,
	}
}

func (h *OrderHandler) respondDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		catalogErr    *domain.CatalogError
		stockErr      *domain.InsufficientStockError
		stateErr      *domain.StateTransitionError
		conflictErr   *domain.ConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		h.respondError(w, err.Error(), http.StatusBadRequest, nil)
	case errors.As(err, &catalogErr):
		h.respondError(w, err.Error(), http.StatusUnprocessableEntity, nil)
	case errors.As(err, &stockErr):
		fieldErrors := make([]FieldError, 0, len(stockErr.Shortfalls))
		for _, s := range stockErr.Shortfalls {
			fieldErrors = append(fieldErrors, FieldError{Field: s.IngredientCode, Message: err.Error()})
		}
		h.respondError(w, "Insufficient stock", http.StatusConflict, fieldErrors)
	case errors.As(err, &stateErr):
		h.respondError(w, err.Error(), http.StatusConflict, nil)
	case errors.As(err, &conflictErr):
		h.respondError(w, err.Error(), http.StatusConflict, nil)
	case errors.Is(err, domain.ErrOrderNotFound):
		h.respondError(w, "Order not found", http.StatusNotFound, nil)
	case errors.Is(err, domain.ErrNotOrderOwner):
		h.respondError(w, "Order belongs to another customer", http.StatusForbidden, nil)
	default:
		h.logger.Error("request_failed", "Unhandled service error", "", nil, err)
		h.respondError(w, "Internal server error", http.StatusInternalServerError, nil)
	}
}

func (h *OrderHandler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *OrderHandler) respondError(w http.ResponseWriter, message string, statusCode int, fieldErrors []FieldError) {
	respondError(w, message, statusCode, fieldErrors)
}

func respondError(w http.ResponseWriter, message string, statusCode int, fieldErrors []FieldError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Errors: fieldErrors})
}
