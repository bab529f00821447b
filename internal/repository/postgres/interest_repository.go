package postgres

import (
	"context"
	"fmt"
	"time"

	"opportunityHub/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InterestRepository struct {
	DB *gorm.DB
}

func NewInterestRepository(db *gorm.DB) *InterestRepository {
	return &InterestRepository{DB: db}
}

// Upsert inserts or updates entries keyed by (user_id, tag). The unique
// index makes concurrent upserts for the same key collapse instead of
// duplicating.
func (r *InterestRepository) Upsert(ctx context.Context, entries []domain.InterestProfile) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if len(entries) == 0 {
		return nil
	}

	err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "tag"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"level", "level_rank", "source", "confidence_score", "is_active", "updated_at",
			}),
		},
	).Create(&entries).Error
	if err != nil {
		return fmt.Errorf("failed to upsert interest_profiles: %w", err)
	}

	return nil
}

// TopInterests orders by primary flag, level, interaction count, then
// confidence. The exact tie-break order keeps recommendation ranking
// deterministic.
func (r *InterestRepository) TopInterests(ctx context.Context, userID uint, limit, offset int) ([]domain.InterestProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if limit <= 0 {
		limit = 10
	}

	var entries []domain.InterestProfile
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_active = true", userID).
		Order("is_primary DESC, level_rank DESC, interaction_count DESC, confidence_score DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query interest_profiles: %w", err)
	}

	return entries, nil
}

func (r *InterestRepository) ActiveByUserAndTags(ctx context.Context, userID uint, tags []string) ([]domain.InterestProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if len(tags) == 0 {
		return []domain.InterestProfile{}, nil
	}

	var entries []domain.InterestProfile
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND tag IN ? AND is_active = true", userID, tags).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query interest_profiles by tags: %w", err)
	}

	return entries, nil
}

// IncrementInteraction applies one activity event to one interest entry
// exactly once. The (event_uid, tag) dedupe row and the counter bump
// commit in the same transaction, so a redelivered event is a no-op.
// Returns the new count and whether this call applied the increment.
func (r *InterestRepository) IncrementInteraction(
	ctx context.Context,
	userID uint,
	tag string,
	eventUID string,
	at time.Time,
) (int64, bool, error) {

	if err := ctx.Err(); err != nil {
		return 0, false, fmt.Errorf("context error: %w", err)
	}

	var newCount int64
	applied := false

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dedupe := domain.ProcessedInterestEvent{EventUID: eventUID, Tag: tag}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&dedupe)
		if res.Error != nil {
			return fmt.Errorf("failed to record processed event: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Already applied by an earlier delivery.
			return nil
		}

		upd := tx.Model(&domain.InterestProfile{}).
			Where("user_id = ? AND tag = ? AND is_active = true", userID, tag).
			Updates(map[string]any{
				"interaction_count": gorm.Expr("interaction_count + 1"),
				"last_interaction":  at,
			})
		if upd.Error != nil {
			return fmt.Errorf("failed to increment interaction count: %w", upd.Error)
		}
		if upd.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var entry domain.InterestProfile
		if err := tx.Where("user_id = ? AND tag = ?", userID, tag).First(&entry).Error; err != nil {
			return fmt.Errorf("failed to reload interest entry: %w", err)
		}

		newCount = entry.InteractionCount
		applied = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}

	return newCount, applied, nil
}

// UpdateLevel re-levels an entry. Guarded by source so explicit
// USER_SELECTED interests are never relabeled, even under races.
func (r *InterestRepository) UpdateLevel(ctx context.Context, userID uint, tag string, level domain.InterestLevel) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).
		Model(&domain.InterestProfile{}).
		Where("user_id = ? AND tag = ? AND source IN ?", userID, tag,
			[]domain.InterestSource{domain.SourceActivityBased, domain.SourceAIInferred}).
		Updates(map[string]any{
			"level":      level,
			"level_rank": domain.LevelRank(level),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update interest level: %w", err)
	}

	return nil
}

func (r *InterestRepository) Deactivate(ctx context.Context, userID uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).
		Model(&domain.InterestProfile{}).
		Where("user_id = ? AND is_active = true", userID).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate interest_profiles: %w", err)
	}

	return nil
}
