package api

import (
	"net/http"

	"storefront/internal/models"
)

// Register handles POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	resp, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	resp, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}
