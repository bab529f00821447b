package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"opportunityHub/domain"

	"gorm.io/gorm"
)

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) Create(ctx context.Context, event *domain.ActivityEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to save activity event: %w", err)
	}

	return nil
}

// FindByUser returns a user's events newest-first. activityType and
// since are optional filters (zero values skip them).
func (r *ActivityRepository) FindByUser(
	ctx context.Context,
	userID uint,
	activityType domain.ActivityType,
	since time.Time,
	limit, offset int,
) ([]domain.ActivityEvent, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}

	q := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_active = true", userID)

	if activityType != "" {
		q = q.Where("activity_type = ?", activityType)
	}
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}

	var events []domain.ActivityEvent
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to query activity_events: %w", err)
	}

	return events, nil
}

// SeenTargets returns the subset of candidateIDs the user already
// interacted with. Membership test over the (user_id, target_id) index,
// never a full scan of the candidate catalog.
func (r *ActivityRepository) SeenTargets(
	ctx context.Context,
	userID uint,
	targetType domain.TargetType,
	candidateIDs []uint64,
) ([]uint64, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if len(candidateIDs) == 0 {
		return []uint64{}, nil
	}

	var seen []uint64
	err := r.DB.WithContext(ctx).
		Model(&domain.ActivityEvent{}).
		Distinct("target_id").
		Where("user_id = ? AND target_type = ? AND is_active = true", userID, targetType).
		Where("target_id IN ?", candidateIDs).
		Pluck("target_id", &seen).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query seen targets: %w", err)
	}

	return seen, nil
}

// SharedTargetUsers finds users sharing at least one target with userID
// for the given activity type, ranked by shared distinct targets.
// Ties break on the lower user ID so rankings are reproducible.
func (r *ActivityRepository) SharedTargetUsers(
	ctx context.Context,
	userID uint,
	activityType domain.ActivityType,
	limit int,
) ([]domain.SharedUser, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if limit <= 0 {
		limit = 20
	}

	var rows []domain.SharedUser
	err := r.DB.WithContext(ctx).Raw(`
		SELECT e.user_id AS user_id, COUNT(DISTINCT e.target_id) AS shared_count
		FROM activity_events e
		WHERE e.activity_type = ?
		  AND e.is_active = true
		  AND e.user_id <> ?
		  AND e.target_id IN (
			SELECT target_id FROM activity_events
			WHERE user_id = ? AND activity_type = ? AND is_active = true AND target_id IS NOT NULL
		  )
		GROUP BY e.user_id
		ORDER BY shared_count DESC, user_id ASC
		LIMIT ?`,
		activityType, userID, userID, activityType, limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query shared target users: %w", err)
	}

	return rows, nil
}

// TrendingTargets counts interactions per target of a type within the
// lookback window, most interacted first.
func (r *ActivityRepository) TrendingTargets(
	ctx context.Context,
	targetType domain.TargetType,
	since time.Time,
	limit int,
) ([]domain.TargetCount, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}

	var rows []domain.TargetCount
	err := r.DB.WithContext(ctx).
		Model(&domain.ActivityEvent{}).
		Select("target_id, COUNT(*) AS count").
		Where("target_type = ? AND created_at >= ? AND is_active = true AND target_id IS NOT NULL", targetType, since).
		Group("target_id").
		Order("count DESC, target_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query trending targets: %w", err)
	}

	return rows, nil
}

// TargetsOfUsers returns the targets a set of users interacted with in
// the window, with how many of those users touched each one.
func (r *ActivityRepository) TargetsOfUsers(
	ctx context.Context,
	userIDs []uint,
	targetType domain.TargetType,
	since time.Time,
	limit int,
) ([]domain.TargetCount, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if len(userIDs) == 0 {
		return []domain.TargetCount{}, nil
	}
	if limit <= 0 {
		limit = 100
	}

	var rows []domain.TargetCount
	err := r.DB.WithContext(ctx).
		Model(&domain.ActivityEvent{}).
		Select("target_id, COUNT(DISTINCT user_id) AS count").
		Where("user_id IN ? AND target_type = ? AND created_at >= ? AND is_active = true AND target_id IS NOT NULL", userIDs, targetType, since).
		Group("target_id").
		Order("count DESC, target_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query targets of users: %w", err)
	}

	return rows, nil
}

func (r *ActivityRepository) CountByType(ctx context.Context, userID uint, since time.Time) ([]domain.TypeCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	q := r.DB.WithContext(ctx).
		Model(&domain.ActivityEvent{}).
		Select("activity_type, COUNT(*) AS count").
		Where("user_id = ? AND is_active = true", userID)

	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}

	var rows []domain.TypeCount
	if err := q.Group("activity_type").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count activity by type: %w", err)
	}

	return rows, nil
}

func (r *ActivityRepository) LastActivityAt(ctx context.Context, userID uint) (*time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var last sql.NullTime
	err := r.DB.WithContext(ctx).
		Model(&domain.ActivityEvent{}).
		Select("MAX(created_at)").
		Where("user_id = ? AND is_active = true", userID).
		Scan(&last).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query last activity: %w", err)
	}

	if !last.Valid {
		return nil, nil
	}

	return &last.Time, nil
}

// PurgeOlderThan removes events past the retention window. Run by the
// maintenance sweep, not request handling.
func (r *ActivityRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	res := r.DB.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.ActivityEvent{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge activity events: %w", res.Error)
	}

	return res.RowsAffected, nil
}

// Deactivate marks a user's events inactive so aggregations skip them.
// Rows stay in place until the retention sweep ages them out.
func (r *ActivityRepository) Deactivate(ctx context.Context, userID uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).
		Model(&domain.ActivityEvent{}).
		Where("user_id = ? AND is_active = true", userID).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate activity events: %w", err)
	}

	return nil
}
