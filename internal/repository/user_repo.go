package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"gorm.io/gorm"
)

// UserRepositoryImpl handles user storage
type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db}
}

// Create inserts the user. Emails are stored lowercased; a duplicate email
// is a conflict.
func (r *UserRepositoryImpl) Create(ctx context.Context, user *models.User) error {
	user.Email = normalizeEmail(user.Email)

	if _, err := r.GetByEmail(ctx, user.Email); err == nil {
		return apperr.E(apperr.ErrConflict, "User already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User

	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	err := r.db.WithContext(ctx).First(&user, "email = ?", normalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// SetBlocked toggles the blocked flag.
func (r *UserRepositoryImpl) SetBlocked(ctx context.Context, id string, blocked bool) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_blocked", blocked)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("user", id)
	}
	return nil
}

// CountByRole returns the number of users with the given role.
func (r *UserRepositoryImpl) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
