package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"gorm.io/gorm"
)

// CartRepositoryImpl stores cart lines per user
type CartRepositoryImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepositoryImpl {
	return &CartRepositoryImpl{db: db}
}

// List returns the user's cart lines in insertion order.
func (r *CartRepositoryImpl) List(ctx context.Context, userID string) ([]models.CartItem, error) {
	var items []models.CartItem

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	return items, nil
}

// Add merges item into an existing line with the same product, size and
// color, or inserts a new line. The existing line keeps its price snapshot.
func (r *CartRepositoryImpl) Add(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.CartItem
		err := tx.Where("user_id = ? AND product_id = ? AND size = ? AND color = ?",
			item.UserID, item.ProductID, item.Size, item.Color).
			First(&existing).Error

		switch {
		case err == nil:
			existing.Quantity += item.Quantity
			if err := tx.Model(&existing).Update("quantity", existing.Quantity).Error; err != nil {
				return fmt.Errorf("failed to update cart line: %w", err)
			}
			*item = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("failed to add cart line: %w", err)
			}
			return nil
		default:
			return fmt.Errorf("failed to look up cart line: %w", err)
		}
	})
}

// SetQuantity replaces the quantity of one of the user's lines.
func (r *CartRepositoryImpl) SetQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", itemID, userID).
		Update("quantity", quantity)
	if result.Error != nil {
		return fmt.Errorf("failed to update cart line: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("cart item", itemID)
	}
	return nil
}

// Remove deletes one of the user's lines.
func (r *CartRepositoryImpl) Remove(ctx context.Context, userID, itemID string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.CartItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove cart line: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("cart item", itemID)
	}
	return nil
}

// Clear empties the user's cart.
func (r *CartRepositoryImpl) Clear(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
