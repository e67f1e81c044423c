package api

import (
	"net/http"

	"storefront/internal/models"

	"github.com/gorilla/mux"
)

// CreateOrder handles POST /api/orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderCreate
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	order, err := h.orders.Create(r.Context(), currentUser(r), &req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// MyOrders handles GET /api/orders/myorders
func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListMine(r.Context(), currentUser(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// AllOrders handles GET /api/orders/all?page=&limit=
func (h *Handler) AllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context(), queryInt(r, "page", 1), queryInt(r, "limit", 0))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetOrder handles GET /api/orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(r.Context(), currentUser(r), mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdateOrderStatus handles PUT /api/orders/{id}/status
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req models.OrderStatusUpdate
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), currentUser(r), mux.Vars(r)["id"], req.Status)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Dashboard handles GET /api/admin/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.dashboard.Metrics(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}
