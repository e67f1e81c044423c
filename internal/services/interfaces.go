package services

import (
	"context"
	"time"

	"storefront/internal/models"
	"storefront/internal/realtime"
)

/*
LEARNING: GO INTERFACE BEST PRACTICE

"Accept interfaces, return structs" - Rob Pike

Interfaces are defined where they are USED, not where implemented. This
package is the consumer of the repositories and of the hub, so the narrow
interfaces below live here and the repository package returns concrete
*XxxRepositoryImpl types.
*/

// UserRepository defines what the services need from user storage
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	CountByRole(ctx context.Context, role models.Role) (int64, error)
}

// ProductRepository defines what the services need from product storage
type ProductRepository interface {
	Create(ctx context.Context, in *models.ProductCreate) (*models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	ListActive(ctx context.Context) ([]models.Product, error)
	Update(ctx context.Context, id string, update *models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// CartRepository defines what the services need from cart storage
type CartRepository interface {
	List(ctx context.Context, userID string) ([]models.CartItem, error)
	Add(ctx context.Context, item *models.CartItem) error
	SetQuantity(ctx context.Context, userID, itemID string, quantity int) error
	Remove(ctx context.Context, userID, itemID string) error
}

// OrderRepository defines what the services need from order storage
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, from models.OrderStatus, change models.StatusChange) (*models.Order, error)
	CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error)
	Revenue(ctx context.Context) (float64, error)
}

// AnalyticsRepository defines what the analytics pool needs from storage
type AnalyticsRepository interface {
	Store(ctx context.Context, event *models.AnalyticsEvent) error
}

// SessionCounter reports how many real-time connections are live.
type SessionCounter interface {
	ActiveCount() int
}

// Publisher pushes envelopes to connected sessions. Publishing is
// best-effort and never fails the caller.
type Publisher = realtime.Publisher

// Clock lets tests pin time.
type Clock func() time.Time
