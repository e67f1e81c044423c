package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"gorm.io/gorm"
)

// OrderRepositoryImpl handles order storage
type OrderRepositoryImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepositoryImpl {
	return &OrderRepositoryImpl{db: db}
}

// Create stores the order and its items, decrements stock for every item
// and clears the owner's cart, all in one transaction. Insufficient stock
// aborts the whole order with a conflict.
func (r *OrderRepositoryImpl) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			result := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
				Update("stock", gorm.Expr("stock - ?", item.Quantity))
			if result.Error != nil {
				return fmt.Errorf("failed to reserve stock: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return apperr.E(apperr.ErrConflict, "insufficient stock for %s", item.Name)
			}
		}

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		return NewCartRepository(tx).Clear(ctx, order.UserID)
	})
}

func (r *OrderRepositoryImpl) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order

	err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("order", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order

	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListAll returns every order, newest first, with pagination.
func (r *OrderRepositoryImpl) ListAll(ctx context.Context, limit, offset int) ([]models.Order, error) {
	var orders []models.Order

	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves the order from one status to another. The write is
// conditional on the stored status still being from, so two concurrent
// admins cannot both succeed.
func (r *OrderRepositoryImpl) UpdateStatus(ctx context.Context, id string, from models.OrderStatus, change models.StatusChange) (*models.Order, error) {
	order, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != from {
		return nil, apperr.E(apperr.ErrConflict, "order %s is %s, not %s", id, order.Status, from)
	}

	order.Status = change.Status
	order.StatusHistory = append(order.StatusHistory, change)

	result := r.db.WithContext(ctx).
		Model(order).
		Where("status = ?", from).
		Select("status", "status_history").
		Updates(order)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperr.E(apperr.ErrConflict, "order %s was modified concurrently", id)
	}
	return order, nil
}

type statusCount struct {
	Status models.OrderStatus
	Count  int64
}

// CountByStatus returns the number of orders per status. Statuses with no
// orders are present with 0.
func (r *OrderRepositoryImpl) CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error) {
	var rows []statusCount

	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	counts := make(map[models.OrderStatus]int64)
	for _, s := range models.AllStatuses() {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Revenue sums the totals of every order that was not cancelled.
func (r *OrderRepositoryImpl) Revenue(ctx context.Context) (float64, error) {
	var total float64

	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status <> ?", models.StatusCancelled).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return total, nil
}
