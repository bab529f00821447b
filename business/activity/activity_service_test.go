//go:build !integration

package activity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"opportunityHub/domain"

	"gorm.io/datatypes"
)

type fakeActivityRepo struct {
	mu        sync.Mutex
	created   []domain.ActivityEvent
	createErr error

	counts       []domain.TypeCount
	lastActivity *time.Time

	deactivated []uint
	purged      int64
}

func (f *fakeActivityRepo) Create(_ context.Context, event *domain.ActivityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *event)
	return nil
}

func (f *fakeActivityRepo) FindByUser(_ context.Context, _ uint, _ domain.ActivityType, _ time.Time, _, _ int) ([]domain.ActivityEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created, nil
}

func (f *fakeActivityRepo) SeenTargets(_ context.Context, _ uint, _ domain.TargetType, _ []uint64) ([]uint64, error) {
	return nil, nil
}

func (f *fakeActivityRepo) CountByType(_ context.Context, _ uint, _ time.Time) ([]domain.TypeCount, error) {
	return f.counts, nil
}

func (f *fakeActivityRepo) LastActivityAt(_ context.Context, _ uint) (*time.Time, error) {
	return f.lastActivity, nil
}

func (f *fakeActivityRepo) PurgeOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return f.purged, nil
}

func (f *fakeActivityRepo) Deactivate(_ context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivated = append(f.deactivated, userID)
	return nil
}

func (f *fakeActivityRepo) createdEvents() []domain.ActivityEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ActivityEvent, len(f.created))
	copy(out, f.created)
	return out
}

type fakeConsumer struct {
	mu     sync.Mutex
	events []domain.ActivityEvent
}

func (f *fakeConsumer) Dispatch(event domain.ActivityEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeConsumer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeDeactivator struct {
	mu    sync.Mutex
	users []uint
	err   error
}

func (f *fakeDeactivator) Deactivate(_ context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.users = append(f.users, userID)
	return nil
}

func viewEvent() domain.ActivityEvent {
	targetID := uint64(7)
	targetType := domain.TargetOpportunity
	return domain.ActivityEvent{
		UserID:       42,
		ActivityType: domain.ActivityView,
		TargetID:     &targetID,
		TargetType:   &targetType,
		Metadata:     datatypes.JSONMap{"source": "feed"},
	}
}

func TestRecord_AppendsWithGeneratedUID(t *testing.T) {
	repo := &fakeActivityRepo{}
	consumer := &fakeConsumer{}
	// nil pool runs the append inline
	svc := NewService(repo, nil, consumer, nil, 120*24*time.Hour)

	if err := svc.Record(context.Background(), viewEvent()); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	created := repo.createdEvents()
	if len(created) != 1 {
		t.Fatalf("created %d events, want 1", len(created))
	}
	if created[0].EventUID == "" {
		t.Error("event uid must be assigned")
	}
	if !created[0].IsActive {
		t.Error("new events must be active")
	}
	if consumer.count() != 1 {
		t.Errorf("consumer received %d events, want 1", consumer.count())
	}
}

func TestRecord_ValidatesInput(t *testing.T) {
	svc := NewService(&fakeActivityRepo{}, nil, nil, nil, 120*24*time.Hour)

	cases := []struct {
		name  string
		event domain.ActivityEvent
	}{
		{"missing user", domain.ActivityEvent{ActivityType: domain.ActivityView}},
		{"unknown type", domain.ActivityEvent{UserID: 1, ActivityType: "DANCE"}},
		{"target id without type", func() domain.ActivityEvent {
			id := uint64(3)
			return domain.ActivityEvent{UserID: 1, ActivityType: domain.ActivityView, TargetID: &id}
		}()},
		{"unknown metadata key", domain.ActivityEvent{
			UserID:       1,
			ActivityType: domain.ActivityView,
			Metadata:     datatypes.JSONMap{"favorite_color": "green"},
		}},
	}

	for _, c := range cases {
		if err := svc.Record(context.Background(), c.event); err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}
}

func TestRecord_StoreFailureIsInvisibleToCaller(t *testing.T) {
	repo := &fakeActivityRepo{createErr: errors.New("disk full")}
	consumer := &fakeConsumer{}
	svc := NewService(repo, nil, consumer, nil, 120*24*time.Hour)

	if err := svc.Record(context.Background(), viewEvent()); err != nil {
		t.Fatalf("store failure must not surface: %v", err)
	}
	if consumer.count() != 0 {
		t.Error("failed appends must not reach the consumer")
	}
}

func TestBehaviorSummary_Score(t *testing.T) {
	lastAt := time.Now().Add(-time.Hour)
	repo := &fakeActivityRepo{
		counts: []domain.TypeCount{
			{ActivityType: domain.ActivityView, Count: 10},
			{ActivityType: domain.ActivityApply, Count: 2},
		},
		lastActivity: &lastAt,
	}
	svc := NewService(repo, nil, nil, nil, 120*24*time.Hour)

	summary, err := svc.BehaviorSummary(context.Background(), 42, time.Now().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("BehaviorSummary returned error: %v", err)
	}

	if summary.CountsByType[domain.ActivityView] != 10 {
		t.Errorf("view count = %d, want 10", summary.CountsByType[domain.ActivityView])
	}
	if summary.EngagementScore <= 0 || summary.EngagementScore > 100 {
		t.Errorf("engagement score = %v, want (0,100]", summary.EngagementScore)
	}
	if summary.LastActivityAt == nil {
		t.Error("last activity timestamp missing")
	}
}

func TestBehaviorSummary_NoActivityScoresZero(t *testing.T) {
	svc := NewService(&fakeActivityRepo{}, nil, nil, nil, 120*24*time.Hour)

	summary, err := svc.BehaviorSummary(context.Background(), 42, time.Now().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("BehaviorSummary returned error: %v", err)
	}
	if summary.EngagementScore != 0 {
		t.Errorf("engagement score = %v, want 0 without activity", summary.EngagementScore)
	}
}

func TestDeactivateUser_FansOut(t *testing.T) {
	repo := &fakeActivityRepo{}
	dep1 := &fakeDeactivator{}
	dep2 := &fakeDeactivator{}
	svc := NewService(repo, nil, nil, []Deactivator{dep1, dep2}, 120*24*time.Hour)

	if err := svc.DeactivateUser(context.Background(), 42); err != nil {
		t.Fatalf("DeactivateUser returned error: %v", err)
	}

	if len(repo.deactivated) != 1 || repo.deactivated[0] != 42 {
		t.Errorf("activity deactivations = %v, want [42]", repo.deactivated)
	}
	if len(dep1.users) != 1 || len(dep2.users) != 1 {
		t.Error("every dependent aggregate must be deactivated")
	}
}

func TestDeactivateUser_StopsOnDependentFailure(t *testing.T) {
	repo := &fakeActivityRepo{}
	dep := &fakeDeactivator{err: errors.New("store down")}
	svc := NewService(repo, nil, nil, []Deactivator{dep}, 120*24*time.Hour)

	if err := svc.DeactivateUser(context.Background(), 42); err == nil {
		t.Error("dependent failure must surface so the caller can retry")
	}
}
