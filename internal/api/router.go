package api

import (
	"net/http"

	"storefront/internal/middleware"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RouterOptions carries the settings the global middleware needs.
type RouterOptions struct {
	AllowedOrigin string
}

func SetupRoutes(h *Handler, opts RouterOptions, log *zap.Logger) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	// Learning: Middleware runs in order - tracing first, then recovery, then CORS
	r.Use(middleware.Tracing(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORS(opts.AllowedOrigin))

	// Preflight requests need a matching route for the middleware to run
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	authed := middleware.RequireAuth(h.auth)
	admin := func(f http.HandlerFunc) http.Handler {
		return authed(middleware.RequireAdmin(f))
	}

	api := r.PathPrefix("/api").Subrouter()

	// Auth endpoints
	api.HandleFunc("/auth/register", h.Register).Methods("POST")
	api.HandleFunc("/auth/login", h.Login).Methods("POST")
	api.Handle("/auth/me", authed(http.HandlerFunc(h.Me))).Methods("GET")

	// Catalog endpoints
	api.HandleFunc("/products", h.ListProducts).Methods("GET")
	api.HandleFunc("/products/{id}", h.GetProduct).Methods("GET")
	api.Handle("/products", admin(h.CreateProduct)).Methods("POST")
	api.Handle("/products/{id}", admin(h.UpdateProduct)).Methods("PUT")
	api.Handle("/products/{id}", admin(h.DeleteProduct)).Methods("DELETE")

	// Cart endpoints
	cart := api.PathPrefix("/cart").Subrouter()
	cart.Use(authed)
	cart.HandleFunc("", h.GetCart).Methods("GET")
	cart.HandleFunc("", h.AddToCart).Methods("POST")
	cart.HandleFunc("/{itemId}", h.UpdateCartItem).Methods("PUT")
	cart.HandleFunc("/{itemId}", h.RemoveCartItem).Methods("DELETE")

	// Order endpoints
	// Learning: fixed paths go before {id} so "myorders" is never read as an id
	orders := api.PathPrefix("/orders").Subrouter()
	orders.Use(authed)
	orders.HandleFunc("", h.CreateOrder).Methods("POST")
	orders.HandleFunc("/myorders", h.MyOrders).Methods("GET")
	orders.Handle("/all", middleware.RequireAdmin(http.HandlerFunc(h.AllOrders))).Methods("GET")
	orders.HandleFunc("/{id}", h.GetOrder).Methods("GET")
	orders.Handle("/{id}/status", middleware.RequireAdmin(http.HandlerFunc(h.UpdateOrderStatus))).Methods("PUT")

	// Admin endpoints
	api.Handle("/admin/dashboard", admin(h.Dashboard)).Methods("GET")

	// Health check endpoint
	api.HandleFunc("/health", h.Health).Methods("GET")

	// WebSocket route
	r.HandleFunc("/ws", h.HandleWebSocket)

	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	return r
}
