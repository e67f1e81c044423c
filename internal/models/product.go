package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// Product is a catalog entry. Slice fields are stored as JSON text so the
// same schema works on Postgres and SQLite.
type Product struct {
	ID            string         `json:"_id" gorm:"type:varchar(27);primaryKey"`
	Name          string         `json:"name" gorm:"type:text;not null"`
	Slug          string         `json:"slug" gorm:"type:varchar(255);index"`
	Description   string         `json:"description" gorm:"type:text"`
	Category      string         `json:"category" gorm:"type:varchar(64);index"`
	Subcategory   string         `json:"subcategory,omitempty" gorm:"type:varchar(64)"`
	Gender        string         `json:"gender,omitempty" gorm:"type:varchar(16)"`
	Brand         string         `json:"brand,omitempty" gorm:"type:varchar(128)"`
	Price         float64        `json:"price" gorm:"not null"`
	OriginalPrice float64        `json:"originalPrice,omitempty"`
	Colors        []string       `json:"colors" gorm:"type:text;serializer:json"`
	Sizes         []string       `json:"sizes" gorm:"type:text;serializer:json"`
	Tags          []string       `json:"tags" gorm:"type:text;serializer:json"`
	Images        []string       `json:"images" gorm:"type:text;serializer:json"`
	Stock         int            `json:"stock" gorm:"not null;default:0"`
	Rating        float64        `json:"rating"`
	Reviews       int            `json:"reviews"`
	IsNew         bool           `json:"isNew"`
	IsFeatured    bool           `json:"isFeatured"`
	IsActive      bool           `json:"isActive" gorm:"not null;default:true"`
	CreatedAt     time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate hook generates KSUID before inserting
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = ksuid.New().String()
	}
	return nil
}

// Purchasable reports whether the product can be added to a cart in the
// given size and color.
func (p *Product) Purchasable(size, color string) bool {
	if !p.IsActive || p.Stock <= 0 {
		return false
	}
	return contains(p.Sizes, size) && contains(p.Colors, color)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

type ProductCreate struct {
	Name          string   `json:"name" validate:"required,max=200"`
	Description   string   `json:"description" validate:"max=5000"`
	Category      string   `json:"category" validate:"required"`
	Subcategory   string   `json:"subcategory"`
	Gender        string   `json:"gender" validate:"omitempty,oneof=men women kids unisex"`
	Brand         string   `json:"brand"`
	Price         float64  `json:"price" validate:"gte=0"`
	OriginalPrice float64  `json:"originalPrice" validate:"gte=0"`
	Colors        []string `json:"colors" validate:"required,min=1,dive,required"`
	Sizes         []string `json:"sizes" validate:"required,min=1,dive,required"`
	Tags          []string `json:"tags"`
	Images        []string `json:"images" validate:"dive,url"`
	Stock         int      `json:"stock" validate:"gte=0"`
	IsNew         bool     `json:"isNew"`
	IsFeatured    bool     `json:"isFeatured"`
}

type ProductUpdate struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Subcategory *string  `json:"subcategory,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Colors      []string `json:"colors,omitempty" validate:"omitempty,min=1,dive,required"`
	Sizes       []string `json:"sizes,omitempty" validate:"omitempty,min=1,dive,required"`
	Tags        []string `json:"tags,omitempty"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
	IsFeatured  *bool    `json:"isFeatured,omitempty"`
	IsActive    *bool    `json:"isActive,omitempty"`
}
