package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/storefront/order-service/internal/order"
)

// OrderService is the slice of the order service the handlers use.
type OrderService interface {
	CreateOrder(ctx context.Context, customerID string, items []order.LineRequest) (*order.Order, error)
	GetOrder(ctx context.Context, orderID string) (*order.Order, error)
	ListOrders(ctx context.Context, customerID string) ([]order.Order, error)
}

type Handler struct {
	svc    OrderService
	logger zerolog.Logger
}

func NewHandler(svc OrderService, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "order-service",
	})
}

type createOrderRequest struct {
	CustomerID string              `json:"customerId"`
	Items      []order.LineRequest `json:"items"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "missing customerId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.svc.CreateOrder(ctx, req.CustomerID, req.Items)
	if err != nil {
		h.writeCreateError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) writeCreateError(w http.ResponseWriter, err error) {
	var notFound *order.ProductNotFoundError
	var shortfall *order.InsufficientStockError
	var persistence *order.PersistenceError

	switch {
	case errors.Is(err, order.ErrEmptyOrder), errors.Is(err, order.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &shortfall):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &persistence):
		h.logger.Error().Err(err).Msg("order persistence failed")
		writeError(w, http.StatusInternalServerError, "failed to persist order")
	default:
		h.logger.Error().Err(err).Msg("create order failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing orderId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.svc.GetOrder(ctx, orderID)
	if err != nil {
		h.logger.Error().Err(err).Str("orderId", orderID).Msg("load order failed")
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) ListOrdersByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")
	if customerID == "" {
		writeError(w, http.StatusBadRequest, "missing customerId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.svc.ListOrders(ctx, customerID)
	if err != nil {
		h.logger.Error().Err(err).Str("customerId", customerID).Msg("load orders failed")
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
