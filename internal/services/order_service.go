package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/realtime"

	"github.com/segmentio/ksuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// taxRate is the GST applied to the items subtotal, rounded down to a whole
// rupee.
const taxRate = 0.18

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// OrderServiceImpl places orders and drives the status lifecycle
type OrderServiceImpl struct {
	orders   OrderRepository
	products ProductRepository
	hub      Publisher
	log      *zap.Logger
	now      Clock

	numMu      sync.Mutex
	lastNumber int64
}

func NewOrderService(orders OrderRepository, products ProductRepository, hub Publisher, log *zap.Logger) *OrderServiceImpl {
	return &OrderServiceImpl{
		orders:   orders,
		products: products,
		hub:      hub,
		log:      log.Named("orders"),
		now:      time.Now,
	}
}

// Create places an order for user. Prices and names are copied from the
// current catalog, stock is reserved and the cart emptied in the same
// transaction.
func (s *OrderServiceImpl) Create(ctx context.Context, user *models.User, in *models.OrderCreate) (*models.Order, error) {
	ctx, span := middleware.StartSpan(ctx, "OrderService.Create",
		attribute.String("user.id", user.ID),
		attribute.Int("order.items", len(in.Items)),
	)
	defer span.End()

	items := make([]models.OrderItem, 0, len(in.Items))
	var subtotal float64
	for _, req := range in.Items {
		product, err := s.products.GetByID(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.Purchasable(req.Size, req.Color) {
			return nil, apperr.Validation(
				fmt.Sprintf("%s is not available in size %s and color %s", product.Name, req.Size, req.Color),
				map[string]string{"items": req.ProductID},
			)
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  req.Quantity,
			Size:      req.Size,
			Color:     req.Color,
		})
		subtotal += product.Price * float64(req.Quantity)
	}

	now := s.now()
	tax := math.Floor(subtotal * taxRate)
	order := &models.Order{
		OrderNumber:     s.nextOrderNumber(now),
		UserID:          user.ID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		ItemsPrice:      subtotal,
		TaxPrice:        tax,
		ShippingPrice:   0,
		TotalPrice:      subtotal + tax,
		Status:          models.StatusPending,
		StatusHistory:   []models.StatusChange{{Status: models.StatusPending, ChangedAt: now, ChangedBy: user.ID}},
	}

	if err := s.orders.Create(ctx, order); err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("order.number", order.OrderNumber))

	s.log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", user.ID),
		zap.Float64("total", order.TotalPrice))

	s.hub.Publish(realtime.Envelope{Kind: realtime.KindNewOrder, Target: realtime.ToAdmins(), Payload: order})
	s.hub.Publish(realtime.Envelope{
		Kind:   realtime.KindNotification,
		Target: realtime.ToUser(user.ID),
		Payload: models.Notification{
			ID:        ksuid.New().String(),
			Type:      models.NotificationOrderPlaced,
			Title:     "Order Placed",
			Message:   fmt.Sprintf("Your order %s has been placed", order.OrderNumber),
			Data:      map[string]string{"orderId": order.ID, "orderNumber": order.OrderNumber},
			Timestamp: now,
		},
	})
	s.publishUpdate(order, "")
	return order, nil
}

// UpdateStatus moves the order to next. Setting the current status again is
// a no-op; moving backwards or out of a terminal status is a conflict.
func (s *OrderServiceImpl) UpdateStatus(ctx context.Context, actor *models.User, id string, next models.OrderStatus) (*models.Order, error) {
	ctx, span := middleware.StartSpan(ctx, "OrderService.UpdateStatus",
		attribute.String("order.id", id),
		attribute.String("order.next_status", string(next)),
	)
	defer span.End()

	if !next.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown order status %q", next), map[string]string{"status": "oneof"})
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == next {
		return order, nil
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, apperr.E(apperr.ErrConflict, "cannot change order status from %s to %s", order.Status, next)
	}

	previous := order.Status
	updated, err := s.orders.UpdateStatus(ctx, id, previous, models.StatusChange{
		Status:    next,
		ChangedAt: s.now(),
		ChangedBy: actor.ID,
	})
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	s.log.Info("order status changed",
		zap.String("order_id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
		zap.String("by", actor.ID))

	s.publishUpdate(updated, previous)
	return updated, nil
}

// publishUpdate sends the update under the owner's name for the order list
// and under the order's name for a page tracking that one order.
func (s *OrderServiceImpl) publishUpdate(order *models.Order, previous models.OrderStatus) {
	payload := models.OrderUpdateEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Previous:    previous,
		Tracking:    order.StatusHistory,
	}
	for _, target := range []realtime.Target{
		realtime.ToUser(order.UserID),
		realtime.ToUserTopic(order.UserID, order.ID),
	} {
		s.hub.Publish(realtime.Envelope{Kind: realtime.KindOrderUpdate, Target: target, Payload: payload})
	}
}

// Get returns the order if user owns it or is an admin.
func (s *OrderServiceImpl) Get(ctx context.Context, user *models.User, id string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.ID && !user.IsAdmin() {
		return nil, apperr.E(apperr.ErrForbidden, "Access denied.")
	}
	return order, nil
}

func (s *OrderServiceImpl) ListMine(ctx context.Context, user *models.User) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, user.ID)
}

// ListAll returns one page of every order, newest first. A page past any
// reachable offset is empty.
func (s *OrderServiceImpl) ListAll(ctx context.Context, page, limit int) ([]models.Order, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	if page-1 > math.MaxInt32/limit {
		return []models.Order{}, nil
	}
	return s.orders.ListAll(ctx, limit, (page-1)*limit)
}

// nextOrderNumber returns "GW" and eight digits taken from the clock,
// bumped when two orders land in the same millisecond.
func (s *OrderServiceImpl) nextOrderNumber(now time.Time) string {
	s.numMu.Lock()
	defer s.numMu.Unlock()

	n := now.UnixMilli() % 100_000_000
	if n <= s.lastNumber && s.lastNumber-n < 1_000_000 {
		n = s.lastNumber + 1
	}
	s.lastNumber = n
	return fmt.Sprintf("GW%08d", n%100_000_000)
}
