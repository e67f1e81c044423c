package services

import (
	"context"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/models"
)

// DashboardServiceImpl computes the admin dashboard aggregate. It serves both
// GET /api/admin/dashboard and the periodic dashboard-metrics broadcast.
type DashboardServiceImpl struct {
	products ProductRepository
	users    UserRepository
	orders   OrderRepository
	sessions SessionCounter
	now      Clock
}

func NewDashboardService(products ProductRepository, users UserRepository, orders OrderRepository, sessions SessionCounter) *DashboardServiceImpl {
	return &DashboardServiceImpl{
		products: products,
		users:    users,
		orders:   orders,
		sessions: sessions,
		now:      time.Now,
	}
}

func (s *DashboardServiceImpl) Metrics(ctx context.Context) (*models.DashboardMetrics, error) {
	ctx, span := middleware.StartSpan(ctx, "DashboardService.Metrics")
	defer span.End()

	products, err := s.products.Count(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.users.CountByRole(ctx, models.RoleCustomer)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.orders.Revenue(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range byStatus {
		total += n
	}

	return &models.DashboardMetrics{
		TotalProducts:  products,
		TotalCustomers: customers,
		TotalOrders:    total,
		OrdersByStatus: byStatus,
		Revenue:        revenue,
		ActiveSessions: s.sessions.ActiveCount(),
		GeneratedAt:    s.now(),
	}, nil
}
