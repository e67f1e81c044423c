package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

type OrderStatus string

// Forward chain order matters: rank() relies on it.
const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

var forwardChain = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
}

// AllStatuses lists every status, forward chain first.
func AllStatuses() []OrderStatus {
	return append(append([]OrderStatus{}, forwardChain...), StatusCancelled)
}

func (s OrderStatus) rank() int {
	for i, st := range forwardChain {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) Valid() bool {
	return s == StatusCancelled || s.rank() >= 0
}

// IsTerminal reports whether no transition may leave s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether next is reachable from s: strictly forward
// along the chain, or to cancelled from any non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() || s.IsTerminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return next.rank() > s.rank()
}

type ShippingAddress struct {
	FullName    string `json:"fullName" validate:"required"`
	AddressLine string `json:"addressLine" validate:"required"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state" validate:"required"`
	Pincode     string `json:"pincode" validate:"required"`
	Phone       string `json:"phone"`
}

// StatusChange is one entry of an order's tracking timeline.
type StatusChange struct {
	Status    OrderStatus `json:"status"`
	ChangedAt time.Time   `json:"changedAt"`
	ChangedBy string      `json:"changedBy,omitempty"`
}

type Order struct {
	ID              string          `json:"_id" gorm:"type:varchar(27);primaryKey"`
	OrderNumber     string          `json:"orderNumber" gorm:"type:varchar(16);uniqueIndex"`
	UserID          string          `json:"user" gorm:"type:varchar(27);not null;index"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingAddress ShippingAddress `json:"shippingAddress" gorm:"embedded;embeddedPrefix:ship_"`
	PaymentMethod   string          `json:"paymentMethod" gorm:"type:varchar(32)"`
	ItemsPrice      float64         `json:"itemsPrice"`
	TaxPrice        float64         `json:"taxPrice"`
	ShippingPrice   float64         `json:"shippingPrice"`
	TotalPrice      float64         `json:"totalPrice"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(16);not null;index"`
	StatusHistory   []StatusChange  `json:"statusHistory" gorm:"type:text;serializer:json"`
	CreatedAt       time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

// BeforeCreate hook generates KSUID before inserting
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = ksuid.New().String()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	return nil
}

type OrderItem struct {
	ID        string  `json:"_id" gorm:"type:varchar(27);primaryKey"`
	OrderID   string  `json:"-" gorm:"type:varchar(27);not null;index"`
	ProductID string  `json:"product" gorm:"type:varchar(27);not null"`
	Name      string  `json:"name" gorm:"type:text"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size" gorm:"type:varchar(32)"`
	Color     string  `json:"color" gorm:"type:varchar(64)"`
}

// BeforeCreate hook generates KSUID before inserting
func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = ksuid.New().String()
	}
	return nil
}

type OrderItemRequest struct {
	ProductID string `json:"product" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=100"`
	Size      string `json:"size" validate:"required"`
	Color     string `json:"color" validate:"required"`
}

type OrderCreate struct {
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddress    `json:"shippingAddress" validate:"required"`
	PaymentMethod   string             `json:"paymentMethod" validate:"required,oneof=cod card upi"`
}

type OrderStatusUpdate struct {
	Status OrderStatus `json:"status" validate:"required"`
}

// OrderUpdateEvent is the payload pushed to the owner on every transition.
type OrderUpdateEvent struct {
	OrderID     string         `json:"orderId"`
	OrderNumber string         `json:"orderNumber"`
	Status      OrderStatus    `json:"status"`
	Previous    OrderStatus    `json:"previousStatus"`
	Tracking    []StatusChange `json:"tracking"`
}
