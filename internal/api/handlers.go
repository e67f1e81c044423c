package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"storefront/internal/apperr"
	"storefront/internal/middleware"
	"storefront/internal/models"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Handler handles HTTP requests
// Learning: Uses INTERFACES defined in this package (consumer-driven)
type Handler struct {
	auth      AuthService
	catalog   CatalogService
	cart      CartService
	orders    OrderService
	dashboard DashboardService
	ws        http.Handler
	baseURL   string
	validate  *requestValidator
	log       *zap.Logger
}

// Deps groups the services the handlers call.
type Deps struct {
	Auth      AuthService
	Catalog   CatalogService
	Cart      CartService
	Orders    OrderService
	Dashboard DashboardService
	WebSocket http.Handler
	// APIBaseURL is the public address clients reach the API at.
	APIBaseURL string
}

func NewHandler(d Deps, log *zap.Logger) *Handler {
	return &Handler{
		auth:      d.Auth,
		catalog:   d.Catalog,
		cart:      d.Cart,
		orders:    d.Orders,
		dashboard: d.Dashboard,
		ws:        d.WebSocket,
		baseURL:   d.APIBaseURL,
		validate:  newRequestValidator(),
		log:       log.Named("api"),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "GENWEAR API is running",
		"api":     h.baseURL,
	})
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Message: "Route not found"})
}

// decode reads a JSON body into dst and runs its validate tags.
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required", nil)
		}
		return apperr.Validation("Invalid JSON body", map[string]string{"body": err.Error()})
	}
	return h.validate.Struct(dst)
}

type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// respondError maps the error kind to a status. Internal errors are logged
// and hidden from the client.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		middleware.AddSpanError(r.Context(), err)
		writeJSON(w, status, errorBody{Message: "Server error"})
		return
	}
	writeJSON(w, status, errorBody{Message: apperr.Message(err), Errors: apperr.FieldErrors(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// currentUser is only called behind RequireAuth.
func currentUser(r *http.Request) *models.User {
	user, _ := middleware.UserFrom(r.Context())
	return user
}

func queryInt(r *http.Request, key string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil {
		return v
	}
	return def
}
