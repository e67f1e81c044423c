package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

type User struct {
	ID           string         `json:"_id" gorm:"type:varchar(27);primaryKey"`
	FirstName    string         `json:"firstName" gorm:"type:varchar(100);not null"`
	LastName     string         `json:"lastName" gorm:"type:varchar(100);not null"`
	Email        string         `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string         `json:"-" gorm:"type:varchar(255);not null"`
	Phone        string         `json:"phone,omitempty" gorm:"type:varchar(32)"`
	Role         Role           `json:"role" gorm:"type:varchar(16);not null;default:'customer'"`
	IsVerified   bool           `json:"isVerified"`
	IsBlocked    bool           `json:"isBlocked"`
	CreatedAt    time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate hook generates KSUID before inserting
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = ksuid.New().String()
	}
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Token     string `json:"token"`
}
