package handler

import (
	"log/slog"
	"net/http"

	"ledger/internal/httputil"
	"ledger/internal/service"
)

// OrderHandler handles order HTTP requests
type OrderHandler struct {
	ledger *service.LedgerService
	logger *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(ledger *service.LedgerService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		ledger: ledger,
		logger: logger,
	}
}

// PlaceOrder records an order for an existing user
// POST /api/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req service.PlaceOrderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.ledger.PlaceOrder(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, order)
}

// PlaceOrderForNewUser creates a user and their first order atomically
// POST /api/orders/with-user
func (h *OrderHandler) PlaceOrderForNewUser(w http.ResponseWriter, r *http.Request) {
	var req service.PlaceOrderForNewUserRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, order, err := h.ledger.PlaceOrderForNewUser(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"user":  user,
		"order": order,
	})
}

// GetOrder retrieves an order by ID
// GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		handleError(w, err)
		return
	}

	order, err := h.ledger.GetOrder(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, order)
}

// HealthCheck reports liveness
// GET /health
func (h *OrderHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
