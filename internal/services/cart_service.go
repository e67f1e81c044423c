package services

import (
	"context"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/realtime"

	"go.uber.org/zap"
)

// CartServiceImpl manages carts and keeps every open tab of the owner in
// sync through cart-sync events
type CartServiceImpl struct {
	carts    CartRepository
	products ProductRepository
	hub      Publisher
	log      *zap.Logger
}

func NewCartService(carts CartRepository, products ProductRepository, hub Publisher, log *zap.Logger) *CartServiceImpl {
	return &CartServiceImpl{carts: carts, products: products, hub: hub, log: log.Named("cart")}
}

func (s *CartServiceImpl) Get(ctx context.Context, userID string) (*models.Cart, error) {
	items, err := s.carts.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.NewCart(userID, items), nil
}

// Add puts a product variant in the cart, merging with an existing line for
// the same variant. The unit price is captured now.
func (s *CartServiceImpl) Add(ctx context.Context, userID string, in *models.CartAdd) (*models.Cart, error) {
	product, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Purchasable(in.Size, in.Color) {
		return nil, apperr.Validation("product is not available in that size and color", map[string]string{
			"size":  in.Size,
			"color": in.Color,
		})
	}

	// Stock is per product, so every line of it already in the cart counts.
	items, err := s.carts.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	wanted := in.Quantity
	for _, item := range items {
		if item.ProductID == product.ID {
			wanted += item.Quantity
		}
	}
	if wanted > product.Stock {
		return nil, apperr.E(apperr.ErrConflict, "only %d of %s left in stock", product.Stock, product.Name)
	}

	line := &models.CartItem{
		UserID:    userID,
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  in.Quantity,
		Size:      in.Size,
		Color:     in.Color,
	}
	if err := s.carts.Add(ctx, line); err != nil {
		return nil, err
	}
	return s.sync(ctx, userID)
}

// SetQuantity replaces the quantity of one line.
func (s *CartServiceImpl) SetQuantity(ctx context.Context, userID, itemID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1", map[string]string{"quantity": "gte"})
	}
	if err := s.carts.SetQuantity(ctx, userID, itemID, quantity); err != nil {
		return nil, err
	}
	return s.sync(ctx, userID)
}

// Remove deletes one line.
func (s *CartServiceImpl) Remove(ctx context.Context, userID, itemID string) (*models.Cart, error) {
	if err := s.carts.Remove(ctx, userID, itemID); err != nil {
		return nil, err
	}
	return s.sync(ctx, userID)
}

// sync reloads the cart and pushes it to the owner's connections.
func (s *CartServiceImpl) sync(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	n := s.hub.Publish(realtime.Envelope{Kind: realtime.KindCartSync, Target: realtime.ToUser(userID), Payload: cart})
	s.log.Debug("cart synced", zap.String("user_id", userID), zap.Int("connections", n))
	return cart, nil
}
