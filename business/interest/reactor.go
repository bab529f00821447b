package interest

import (
	"context"
	"fmt"
	"time"

	"opportunityHub/domain"
	"opportunityHub/pkg/logger"
	"opportunityHub/pkg/metrics"
)

// Interest level thresholds on interaction count.
const (
	highLevelThreshold   = 50
	mediumLevelThreshold = 20
)

// LevelForCount maps an interaction count to an interest level.
func LevelForCount(count int64) domain.InterestLevel {
	switch {
	case count >= highLevelThreshold:
		return domain.InterestHigh
	case count >= mediumLevelThreshold:
		return domain.InterestMedium
	default:
		return domain.InterestLow
	}
}

// NotificationRepository contract interface
type NotificationRepository interface {
	Notify(ctx context.Context, userID uint, message string) error
}

// Dispatcher hands reactor work to a background pool.
type Dispatcher interface {
	Submit(task func()) error
}

// Reactor consumes new activity events and re-levels the matching
// interest entries. Runs fully decoupled from the activity write path;
// a lost or duplicated delivery leaves interest levels stale, never
// wrong.
type Reactor struct {
	interestRepo InterestRepository
	notifRepo    NotificationRepository
	reactorPool  Dispatcher
	notifyPool   Dispatcher

	processTimeout time.Duration
}

func NewReactor(
	interestRepo InterestRepository,
	notifRepo NotificationRepository,
	reactorPool Dispatcher,
	notifyPool Dispatcher,
) *Reactor {
	return &Reactor{
		interestRepo:   interestRepo,
		notifRepo:      notifRepo,
		reactorPool:    reactorPool,
		notifyPool:     notifyPool,
		processTimeout: 10 * time.Second,
	}
}

// Dispatch queues an event for processing. Never blocks; a saturated
// pool drops the event and the levels catch up on the next one.
func (r *Reactor) Dispatch(event domain.ActivityEvent) {
	if len(event.Tags) == 0 {
		return
	}

	err := r.reactorPool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.processTimeout)
		defer cancel()

		if err := r.Process(ctx, event); err != nil {
			logger.Error("interest reactor failed",
				"event_uid", event.EventUID,
				"user_id", event.UserID,
				"error", err,
			)
			metrics.ReactorEventsSkipped.Inc()
		}
	})
	if err != nil {
		metrics.ReactorEventsSkipped.Inc()
	}
}

// Process applies one event to the user's matching interest entries:
// bump the interaction counter exactly once per (event, tag), then
// recompute the level for auto-tunable sources. USER_SELECTED entries
// keep their explicit level.
func (r *Reactor) Process(ctx context.Context, event domain.ActivityEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if event.EventUID == "" {
		return fmt.Errorf("event uid is required for dedupe")
	}
	if len(event.Tags) == 0 {
		return nil
	}

	entries, err := r.interestRepo.ActiveByUserAndTags(ctx, event.UserID, event.Tags)
	if err != nil {
		return fmt.Errorf("failed to load interest entries: %w", err)
	}

	at := event.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}

	for _, entry := range entries {
		newCount, applied, err := r.interestRepo.IncrementInteraction(ctx, event.UserID, entry.Tag, event.EventUID, at)
		if err != nil {
			return fmt.Errorf("failed to apply event to tag %q: %w", entry.Tag, err)
		}
		if !applied {
			// Duplicate delivery, already counted.
			metrics.ReactorEventsSkipped.Inc()
			continue
		}

		metrics.ReactorEventsProcessed.Inc()

		if !domain.AutoTunable(entry.Source) {
			continue
		}

		newLevel := LevelForCount(newCount)
		if newLevel == entry.Level {
			continue
		}

		if err := r.interestRepo.UpdateLevel(ctx, event.UserID, entry.Tag, newLevel); err != nil {
			return fmt.Errorf("failed to re-level tag %q: %w", entry.Tag, err)
		}

		logger.Debug("interest_relevel",
			"user_id", event.UserID,
			"tag", entry.Tag,
			"count", newCount,
			"level", newLevel,
		)

		if newLevel == domain.InterestHigh {
			r.notifyHighInterest(event.UserID, entry.Tag)
		}
	}

	return nil
}

// notifyHighInterest fires a one-way notification when a tag crosses
// into HIGH. Rate-sensitive: an overloaded pool rejects instead of
// queueing up sends.
func (r *Reactor) notifyHighInterest(userID uint, tag string) {
	if r.notifRepo == nil || r.notifyPool == nil {
		return
	}

	message := fmt.Sprintf("You have shown strong interest in %s - new matching opportunities are waiting for you.", tag)

	err := r.notifyPool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := r.notifRepo.Notify(ctx, userID, message); err != nil {
			logger.Error("failed to send interest notification", "user_id", userID, "tag", tag, "error", err)
		}
	})
	if err != nil {
		logger.Warn("interest notification rejected", "user_id", userID, "tag", tag, "error", err)
	}
}
