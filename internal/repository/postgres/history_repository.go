package postgres

import (
	"context"
	"fmt"
	"time"

	"opportunityHub/domain"

	"gorm.io/gorm"
)

type HistoryRepository struct {
	DB *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{DB: db}
}

func (r *HistoryRepository) CreateBatch(ctx context.Context, rows []domain.RecommendationHistory) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if len(rows) == 0 {
		return nil
	}

	if err := r.DB.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to save recommendation history: %w", err)
	}

	return nil
}

// RecentByUser returns a user's served recommendations newest-first,
// row IDs included so reactions can reference them.
func (r *HistoryRepository) RecentByUser(ctx context.Context, userID uint, limit int) ([]domain.RecommendationHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if limit <= 0 {
		limit = 20
	}

	var rows []domain.RecommendationHistory
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_active = true", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendation history: %w", err)
	}

	return rows, nil
}

// Lifecycle transitions set their timestamp once. The WHERE guard makes
// repeated calls no-ops instead of resetting timestamps.

func (r *HistoryRepository) MarkViewed(ctx context.Context, id uint, timeSpentSeconds int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	updates := map[string]any{
		"was_viewed": true,
		"viewed_at":  time.Now(),
	}
	if timeSpentSeconds > 0 {
		updates["time_spent_seconds"] = timeSpentSeconds
	}

	err := r.DB.WithContext(ctx).
		Model(&domain.RecommendationHistory{}).
		Where("id = ? AND viewed_at IS NULL", id).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to mark recommendation viewed: %w", err)
	}

	return nil
}

func (r *HistoryRepository) MarkClicked(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).
		Model(&domain.RecommendationHistory{}).
		Where("id = ? AND clicked_at IS NULL", id).
		Updates(map[string]any{
			"was_clicked": true,
			"clicked_at":  time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark recommendation clicked: %w", err)
	}

	return nil
}

func (r *HistoryRepository) MarkApplied(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).
		Model(&domain.RecommendationHistory{}).
		Where("id = ? AND applied_at IS NULL", id).
		Updates(map[string]any{
			"was_applied": true,
			"applied_at":  time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark recommendation applied: %w", err)
	}

	return nil
}

// RecordFeedback sets the feedback fields once; later calls are no-ops.
func (r *HistoryRepository) RecordFeedback(ctx context.Context, id uint, rating int, comment string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).
		Model(&domain.RecommendationHistory{}).
		Where("id = ? AND feedback_rating IS NULL", id).
		Updates(map[string]any{
			"feedback_rating":  rating,
			"feedback_comment": comment,
			"feedback_at":      time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record recommendation feedback: %w", err)
	}

	return nil
}

// ConversionStats counts distinct viewed and applied items in the
// window. Callers must treat viewed == 0 as an undefined rate, not 0%.
func (r *HistoryRepository) ConversionStats(ctx context.Context, userID uint, since time.Time) (viewed int64, applied int64, err error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, fmt.Errorf("context error: %w", err)
	}

	base := func() *gorm.DB {
		q := r.DB.WithContext(ctx).
			Model(&domain.RecommendationHistory{}).
			Distinct("recommended_item_id").
			Where("user_id = ? AND is_active = true", userID)
		if !since.IsZero() {
			q = q.Where("created_at >= ?", since)
		}
		return q
	}

	if err := base().Where("was_viewed = true").Count(&viewed).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count viewed recommendations: %w", err)
	}

	if err := base().Where("was_applied = true").Count(&applied).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count applied recommendations: %w", err)
	}

	return viewed, applied, nil
}

func (r *HistoryRepository) Deactivate(ctx context.Context, userID uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).
		Model(&domain.RecommendationHistory{}).
		Where("user_id = ? AND is_active = true", userID).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate recommendation history: %w", err)
	}

	return nil
}
