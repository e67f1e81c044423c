package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

type AnalyticsKind string

const (
	AnalyticsPageView    AnalyticsKind = "page-view"
	AnalyticsProductView AnalyticsKind = "product-view"
	AnalyticsCartAction  AnalyticsKind = "cart-action"
)

// AnalyticsEvent records one client tracking message.
type AnalyticsEvent struct {
	ID         string        `json:"id" gorm:"type:varchar(27);primaryKey"`
	Kind       AnalyticsKind `json:"kind" gorm:"type:varchar(32);not null;index"`
	UserID     string        `json:"userId,omitempty" gorm:"type:varchar(27);index"`
	Page       string        `json:"page,omitempty" gorm:"type:text"`
	Referrer   string        `json:"referrer,omitempty" gorm:"type:text"`
	UserAgent  string        `json:"userAgent,omitempty" gorm:"type:text"`
	ProductID  string        `json:"productId,omitempty" gorm:"type:varchar(27);index"`
	Category   string        `json:"category,omitempty" gorm:"type:varchar(64)"`
	Price      float64       `json:"price,omitempty"`
	Action     string        `json:"action,omitempty" gorm:"type:varchar(16)"`
	Quantity   int           `json:"quantity,omitempty"`
	OccurredAt time.Time     `json:"timestamp"`
	CreatedAt  time.Time     `json:"-" gorm:"autoCreateTime"`
}

// BeforeCreate hook generates KSUID before inserting
func (a *AnalyticsEvent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = ksuid.New().String()
	}
	return nil
}

// DashboardMetrics is the aggregate pushed to admins and served by
// GET /api/admin/dashboard.
type DashboardMetrics struct {
	TotalProducts  int64                 `json:"totalProducts"`
	TotalCustomers int64                 `json:"totalCustomers"`
	TotalOrders    int64                 `json:"totalOrders"`
	OrdersByStatus map[OrderStatus]int64 `json:"ordersByStatus"`
	Revenue        float64               `json:"revenue"`
	ActiveSessions int                   `json:"activeSessions"`
	GeneratedAt    time.Time             `json:"generatedAt"`
}

// LowStockAlert is pushed to admins for each product at or below threshold.
type LowStockAlert struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	Threshold int    `json:"threshold"`
}
