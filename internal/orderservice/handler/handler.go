package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"wheres-my-food/pkg/logger"
	"wheres-my-food/pkg/models"
)

const (
	idempotencyHeader = "X-Idempotency-Key"
	maxBodyBytes      = 1 << 20
)

// OrderService is the set of order operations exposed over HTTP.
type OrderService interface {
	CreateOrder(ctx context.Context, p models.Principal, req models.CreateOrderRequest) (models.Order, error)
	GetOrder(ctx context.Context, p models.Principal, orderID string) (models.Order, error)
	ListOrders(ctx context.Context, p models.Principal, filter models.OrderFilter) (models.OrderList, error)
	UpdateOrderStatus(ctx context.Context, p models.Principal, orderID, status, notes string) (models.Order, error)
	GetOrderTracking(ctx context.Context, p models.Principal, orderID string) ([]models.TrackingEntry, error)
}

type OrderHandler struct {
	service OrderService
	mylog   *logger.Logger
}

func NewOrderHandler(service OrderService, mylog *logger.Logger) *OrderHandler {
	return &OrderHandler{service: service, mylog: mylog}
}

// Register mounts the order routes on mux behind auth.
func (h *OrderHandler) Register(mux *http.ServeMux, auth func(http.Handler) http.Handler) {
	mux.Handle("POST /orders", auth(http.HandlerFunc(h.CreateOrder)))
	mux.Handle("GET /orders", auth(http.HandlerFunc(h.ListOrders)))
	mux.Handle("GET /orders/{id}", auth(http.HandlerFunc(h.GetOrder)))
	mux.Handle("PUT /orders/{id}/status", auth(http.HandlerFunc(h.UpdateOrderStatus)))
	mux.Handle("GET /orders/{id}/tracking", auth(http.HandlerFunc(h.GetOrderTracking)))
}

func (h *OrderHandler) log(r *http.Request) *logger.Logger {
	return logger.FromCtx(r.Context(), h.mylog)
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.log(r).Action("validation_failed").Warn("Invalid JSON payload", "reason", err.Error())
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	req.IdempotencyKey = r.Header.Get(idempotencyHeader)

	h.log(r).Action("order_received").Debug("New order received", "items", len(req.Items))

	order, err := h.service.CreateOrder(r.Context(), PrincipalFrom(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.OrderFilter{
		CustomerID: q.Get("customer_id"),
		VendorID:   q.Get("vendor_id"),
		Status:     models.Status(q.Get("status")),
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "limit must be an integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "offset must be an integer")
		return
	}

	list, err := h.service.ListOrders(r.Context(), PrincipalFrom(r.Context()), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), PrincipalFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateStatusRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, codeInvalidStatus, "status is required")
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), PrincipalFrom(r.Context()), r.PathValue("id"), req.Status, req.Notes)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type trackingResponse struct {
	OrderID string                 `json:"order_id"`
	History []models.TrackingEntry `json:"history"`
}

func (h *OrderHandler) GetOrderTracking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entries, err := h.service.GetOrderTracking(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trackingResponse{OrderID: id, History: entries})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
