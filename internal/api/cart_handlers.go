package api

import (
	"net/http"

	"storefront/internal/models"

	"github.com/gorilla/mux"
)

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.Get(r.Context(), currentUser(r).ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req models.CartAdd
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	cart, err := h.cart.Add(r.Context(), currentUser(r).ID, &req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req models.CartQuantity
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	cart, err := h.cart.SetQuantity(r.Context(), currentUser(r).ID, mux.Vars(r)["itemId"], req.Quantity)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.Remove(r.Context(), currentUser(r).ID, mux.Vars(r)["itemId"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}
