package handler

import (
	"log/slog"
	"net/http"

	"ledger/internal/httputil"
	"ledger/internal/service"
)

// UserHandler handles user HTTP requests
type UserHandler struct {
	ledger *service.LedgerService
	logger *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(ledger *service.LedgerService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		ledger: ledger,
		logger: logger,
	}
}

// CreateUser creates a new user
// POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.ledger.CreateUser(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, user)
}

// GetUser retrieves a user by ID
// GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		handleError(w, err)
		return
	}

	user, err := h.ledger.GetUser(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}

// ListUserOrders retrieves all orders for a user
// GET /api/users/{id}/orders
func (h *UserHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		handleError(w, err)
		return
	}

	orders, err := h.ledger.ListUserOrders(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, orders)
}
