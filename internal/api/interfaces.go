package api

import (
	"context"

	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/services"
)

/*
LEARNING: CONSUMER-DRIVEN INTERFACES (Go Idiom)

This package (api/handlers) is the CONSUMER of services, so service interfaces live HERE.

The handler doesn't care about service implementation details - it only cares about
the methods it needs to call. Tests swap in sqlite-backed services or small fakes.
*/

// AuthService defines what handlers need for accounts and tokens
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// CatalogService defines what handlers need for products
type CatalogService interface {
	List(ctx context.Context, d catalog.Descriptor, page, limit int) (*services.CatalogResult, error)
	Get(ctx context.Context, id, viewerID string) (*models.Product, error)
	Create(ctx context.Context, in *models.ProductCreate) (*models.Product, error)
	Update(ctx context.Context, id string, in *models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}

// CartService defines what handlers need for carts
type CartService interface {
	Get(ctx context.Context, userID string) (*models.Cart, error)
	Add(ctx context.Context, userID string, in *models.CartAdd) (*models.Cart, error)
	SetQuantity(ctx context.Context, userID, itemID string, quantity int) (*models.Cart, error)
	Remove(ctx context.Context, userID, itemID string) (*models.Cart, error)
}

// OrderService defines what handlers need for orders
type OrderService interface {
	Create(ctx context.Context, user *models.User, in *models.OrderCreate) (*models.Order, error)
	Get(ctx context.Context, user *models.User, id string) (*models.Order, error)
	ListMine(ctx context.Context, user *models.User) ([]models.Order, error)
	ListAll(ctx context.Context, page, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, actor *models.User, id string, next models.OrderStatus) (*models.Order, error)
}

// DashboardService defines what handlers need for admin metrics
type DashboardService interface {
	Metrics(ctx context.Context) (*models.DashboardMetrics, error)
}
