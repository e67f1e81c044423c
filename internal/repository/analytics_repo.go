package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// AnalyticsRepositoryImpl persists client tracking events
type AnalyticsRepositoryImpl struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepositoryImpl {
	return &AnalyticsRepositoryImpl{db: db}
}

func (r *AnalyticsRepositoryImpl) Store(ctx context.Context, event *models.AnalyticsEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to store analytics event: %w", err)
	}
	return nil
}

// CountSince returns the number of events of kind recorded after since.
func (r *AnalyticsRepositoryImpl) CountSince(ctx context.Context, kind models.AnalyticsKind, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AnalyticsEvent{}).
		Where("kind = ? AND occurred_at >= ?", kind, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count analytics events: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes events recorded before cutoff and returns how many
// rows went away. Run periodically to keep the table bounded.
func (r *AnalyticsRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("occurred_at < ?", cutoff).Delete(&models.AnalyticsEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old analytics events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
