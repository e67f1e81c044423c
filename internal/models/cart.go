package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// CartItem is one line of a user's cart. Price is the unit price at the
// moment the line was added.
type CartItem struct {
	ID        string    `json:"_id" gorm:"type:varchar(27);primaryKey"`
	UserID    string    `json:"-" gorm:"type:varchar(27);not null;index"`
	ProductID string    `json:"product" gorm:"type:varchar(27);not null"`
	Name      string    `json:"name" gorm:"type:text"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size" gorm:"type:varchar(32)"`
	Color     string    `json:"color" gorm:"type:varchar(64)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// BeforeCreate hook generates KSUID before inserting
func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = ksuid.New().String()
	}
	return nil
}

type Cart struct {
	UserID string     `json:"user"`
	Items  []CartItem `json:"items"`
	Total  float64    `json:"total"`
}

// NewCart computes the total of items.
func NewCart(userID string, items []CartItem) *Cart {
	cart := &Cart{UserID: userID, Items: items}
	if cart.Items == nil {
		cart.Items = []CartItem{}
	}
	for _, it := range cart.Items {
		cart.Total += it.Price * float64(it.Quantity)
	}
	return cart
}

type CartAdd struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=100"`
	Size      string `json:"size" validate:"required"`
	Color     string `json:"color" validate:"required"`
}

type CartQuantity struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=100"`
}
