package activity

import (
	"context"
	"fmt"
	"time"

	"opportunityHub/domain"
	"opportunityHub/pkg/logger"
	"opportunityHub/pkg/metrics"

	"github.com/google/uuid"
)

// ActivityRepository contract interface
type ActivityRepository interface {
	Create(ctx context.Context, event *domain.ActivityEvent) error
	FindByUser(ctx context.Context, userID uint, activityType domain.ActivityType, since time.Time, limit, offset int) ([]domain.ActivityEvent, error)
	SeenTargets(ctx context.Context, userID uint, targetType domain.TargetType, candidateIDs []uint64) ([]uint64, error)
	CountByType(ctx context.Context, userID uint, since time.Time) ([]domain.TypeCount, error)
	LastActivityAt(ctx context.Context, userID uint) (*time.Time, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Deactivate(ctx context.Context, userID uint) error
}

// Deactivator is one dependent aggregate in the soft-delete fan-out.
type Deactivator interface {
	Deactivate(ctx context.Context, userID uint) error
}

// EventConsumer receives successfully appended events.
type EventConsumer interface {
	Dispatch(event domain.ActivityEvent)
}

// Dispatcher hands the append to the best-effort write pool.
type Dispatcher interface {
	Submit(task func()) error
}

// Engagement weights per activity type for the behavior summary.
var engagementWeights = map[domain.ActivityType]float64{
	domain.ActivityApply:    5,
	domain.ActivityComplete: 4,
	domain.ActivityContact:  3,
	domain.ActivitySearch:   2,
	domain.ActivityView:     1,
	domain.ActivityLogin:    0.5,
}

type Service struct {
	activityRepo ActivityRepository
	writerPool   Dispatcher
	consumer     EventConsumer
	dependents   []Deactivator

	retention    time.Duration
	writeTimeout time.Duration
}

func NewService(
	activityRepo ActivityRepository,
	writerPool Dispatcher,
	consumer EventConsumer,
	dependents []Deactivator,
	retention time.Duration,
) *Service {
	return &Service{
		activityRepo: activityRepo,
		writerPool:   writerPool,
		consumer:     consumer,
		dependents:   dependents,
		retention:    retention,
		writeTimeout: 5 * time.Second,
	}
}

// Record validates and appends one event. The append itself is
// best-effort off the caller's path: a failing event log costs one
// event, never a user-facing request. Only input errors reach the
// caller.
func (s *Service) Record(ctx context.Context, event domain.ActivityEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if event.UserID == 0 {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if !domain.ValidActivityType(event.ActivityType) {
		return fmt.Errorf("%w: unknown activity type %q", ErrInvalidInput, event.ActivityType)
	}
	if event.TargetType != nil && !domain.ValidTargetType(*event.TargetType) {
		return fmt.Errorf("%w: unknown target type %q", ErrInvalidInput, *event.TargetType)
	}
	if (event.TargetID == nil) != (event.TargetType == nil) {
		return fmt.Errorf("%w: target id and target type must be set together", ErrInvalidInput)
	}
	if err := domain.ValidateMetadata(event.ActivityType, event.Metadata); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	event.EventUID = uuid.NewString()
	event.IsActive = true
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	s.append(event)

	return nil
}

func (s *Service) append(event domain.ActivityEvent) {
	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		defer cancel()

		if err := s.activityRepo.Create(ctx, &event); err != nil {
			logger.Error("failed to append activity event",
				"event_uid", event.EventUID,
				"user_id", event.UserID,
				"activity_type", event.ActivityType,
				"error", err,
			)
			metrics.ActivityEventsDropped.Inc()
			return
		}

		metrics.ActivityEventsRecorded.WithLabelValues(string(event.ActivityType)).Inc()

		if s.consumer != nil {
			s.consumer.Dispatch(event)
		}
	}

	if s.writerPool == nil {
		task()
		return
	}

	// Caller-runs overflow: a saturated pool slows this goroutine down
	// instead of losing the event.
	_ = s.writerPool.Submit(task)
}

func (s *Service) Query(
	ctx context.Context,
	userID uint,
	activityType domain.ActivityType,
	since time.Time,
	limit, offset int,
) ([]domain.ActivityEvent, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if userID == 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if activityType != "" && !domain.ValidActivityType(activityType) {
		return nil, fmt.Errorf("%w: unknown activity type %q", ErrInvalidInput, activityType)
	}

	events, err := s.activityRepo.FindByUser(ctx, userID, activityType, since, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: query events: %v", ErrStoreUnavailable, err)
	}

	return events, nil
}

// BehaviorSummary aggregates a user's recent behavior: counts per
// activity type and an engagement score in [0,100].
func (s *Service) BehaviorSummary(ctx context.Context, userID uint, since time.Time) (domain.BehaviorSummary, error) {
	if err := ctx.Err(); err != nil {
		return domain.BehaviorSummary{}, fmt.Errorf("context error: %w", err)
	}
	if userID == 0 {
		return domain.BehaviorSummary{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	counts, err := s.activityRepo.CountByType(ctx, userID, since)
	if err != nil {
		return domain.BehaviorSummary{}, fmt.Errorf("%w: count by type: %v", ErrStoreUnavailable, err)
	}

	lastAt, err := s.activityRepo.LastActivityAt(ctx, userID)
	if err != nil {
		return domain.BehaviorSummary{}, fmt.Errorf("%w: last activity: %v", ErrStoreUnavailable, err)
	}

	byType := make(map[domain.ActivityType]int64, len(counts))
	weighted := 0.0
	for _, tc := range counts {
		byType[tc.ActivityType] = tc.Count
		weighted += engagementWeights[tc.ActivityType] * float64(tc.Count)
	}

	return domain.BehaviorSummary{
		UserID:          userID,
		CountsByType:    byType,
		EngagementScore: engagementScore(weighted),
		LastActivityAt:  lastAt,
	}, nil
}

// engagementScore squashes the weighted activity sum into [0,100];
// 50 marks the halfway point.
func engagementScore(weighted float64) float64 {
	if weighted <= 0 {
		return 0
	}
	return 100 * weighted / (weighted + 50)
}

// DeactivateUser soft-deletes the user's behavioral footprint: events,
// then every dependent aggregate, as explicit compensating actions
// rather than database cascades.
func (s *Service) DeactivateUser(ctx context.Context, userID uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if userID == 0 {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	if err := s.activityRepo.Deactivate(ctx, userID); err != nil {
		return fmt.Errorf("%w: deactivate events: %v", ErrStoreUnavailable, err)
	}

	for _, dep := range s.dependents {
		if err := dep.Deactivate(ctx, userID); err != nil {
			return fmt.Errorf("%w: deactivate dependent: %v", ErrStoreUnavailable, err)
		}
	}

	return nil
}

// StartRetentionSweep purges events past the retention window once a
// day until ctx is cancelled.
func (s *Service) StartRetentionSweep(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *Service) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.retention)
	purged, err := s.activityRepo.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		logger.Error("activity retention sweep failed", "error", err)
		return
	}

	logger.Info("activity retention sweep complete", "purged", purged, "cutoff", cutoff)
}
