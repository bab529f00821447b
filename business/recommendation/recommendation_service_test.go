//go:build !integration

package recommendation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"opportunityHub/domain"
)

type fakeActivityReader struct {
	trending    []domain.TargetCount
	sharedUsers []domain.SharedUser
	coVisited   []domain.TargetCount
	seen        []uint64
	err         error
}

func (f *fakeActivityReader) SharedTargetUsers(_ context.Context, _ uint, _ domain.ActivityType, _ int) ([]domain.SharedUser, error) {
	return f.sharedUsers, f.err
}

func (f *fakeActivityReader) TrendingTargets(_ context.Context, _ domain.TargetType, _ time.Time, _ int) ([]domain.TargetCount, error) {
	return f.trending, f.err
}

func (f *fakeActivityReader) TargetsOfUsers(_ context.Context, _ []uint, _ domain.TargetType, _ time.Time, _ int) ([]domain.TargetCount, error) {
	return f.coVisited, f.err
}

func (f *fakeActivityReader) SeenTargets(_ context.Context, _ uint, _ domain.TargetType, _ []uint64) ([]uint64, error) {
	return f.seen, f.err
}

type fakeInterestReader struct {
	interests []domain.InterestProfile
}

func (f *fakeInterestReader) TopInterests(_ context.Context, _ uint, _, _ int) ([]domain.InterestProfile, error) {
	return f.interests, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	batches [][]domain.RecommendationHistory
	recent  []domain.RecommendationHistory
	viewed  int64
	applied int64
	err     error
}

func (f *fakeHistoryRepo) CreateBatch(_ context.Context, rows []domain.RecommendationHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, rows)
	return nil
}

func (f *fakeHistoryRepo) RecentByUser(_ context.Context, _ uint, _ int) ([]domain.RecommendationHistory, error) {
	return f.recent, f.err
}

func (f *fakeHistoryRepo) MarkViewed(_ context.Context, _ uint, _ int) error  { return nil }
func (f *fakeHistoryRepo) MarkClicked(_ context.Context, _ uint) error        { return nil }
func (f *fakeHistoryRepo) MarkApplied(_ context.Context, _ uint) error        { return nil }
func (f *fakeHistoryRepo) RecordFeedback(_ context.Context, _ uint, _ int, _ string) error {
	return nil
}

func (f *fakeHistoryRepo) ConversionStats(_ context.Context, _ uint, _ time.Time) (int64, int64, error) {
	return f.viewed, f.applied, nil
}

func (f *fakeHistoryRepo) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

type fakePlatformRepo struct {
	completeness float64
	activeIDs    []uint64
	tags         []string
	err          error
}

func (f *fakePlatformRepo) ProfileCompleteness(_ context.Context, _ uint) (float64, error) {
	return f.completeness, f.err
}

func (f *fakePlatformRepo) ActiveTargetIDs(_ context.Context, _ domain.TargetType) ([]uint64, error) {
	return f.activeIDs, f.err
}

func (f *fakePlatformRepo) TargetTags(_ context.Context, _ domain.TargetType, _ uint64) ([]string, error) {
	return f.tags, f.err
}

// passthroughCache skips the tiers and runs compute directly.
type passthroughCache struct{}

func (passthroughCache) GetOrCompute(ctx context.Context, _ uint, _ domain.RecommendationKind, _ string, compute func(context.Context) ([]domain.ScoredItem, error)) ([]domain.ScoredItem, error) {
	return compute(ctx)
}

// inlineDispatcher runs submitted tasks synchronously.
type inlineDispatcher struct{}

func (inlineDispatcher) Submit(task func()) error {
	task()
	return nil
}

func newTestService(activityRepo *fakeActivityReader, historyRepo *fakeHistoryRepo, platformRepo *fakePlatformRepo) *Service {
	return NewService(
		activityRepo,
		&fakeInterestReader{},
		historyRepo,
		platformRepo,
		passthroughCache{},
		inlineDispatcher{},
		30*24*time.Hour,
		90*24*time.Hour,
	)
}

func TestRecommend_RanksAndFiltersSeen(t *testing.T) {
	activityRepo := &fakeActivityReader{
		trending: []domain.TargetCount{
			{TargetID: 1, Count: 100},
			{TargetID: 2, Count: 50},
			{TargetID: 3, Count: 10},
		},
		sharedUsers: []domain.SharedUser{{UserID: 7, SharedCount: 4}},
		coVisited:   []domain.TargetCount{{TargetID: 2, Count: 20}},
		seen:        []uint64{1},
	}
	historyRepo := &fakeHistoryRepo{}
	platformRepo := &fakePlatformRepo{activeIDs: []uint64{1, 2, 3}}

	svc := newTestService(activityRepo, historyRepo, platformRepo)

	items, err := svc.Recommend(context.Background(), 42, domain.KindOpportunity, 10)
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}

	// Target 1 is seen; target 2 carries both signals and outranks 3.
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %v", len(items), items)
	}
	if items[0].TargetID != 2 || items[1].TargetID != 3 {
		t.Errorf("order = [%d %d], want [2 3]", items[0].TargetID, items[1].TargetID)
	}

	if historyRepo.batchCount() != 1 {
		t.Errorf("served items should be recorded once, got %d batches", historyRepo.batchCount())
	}
}

func TestRecommend_ExcludesInactiveTargets(t *testing.T) {
	activityRepo := &fakeActivityReader{
		trending: []domain.TargetCount{
			{TargetID: 1, Count: 100},
			{TargetID: 2, Count: 90},
		},
	}
	platformRepo := &fakePlatformRepo{activeIDs: []uint64{2}}

	svc := newTestService(activityRepo, &fakeHistoryRepo{}, platformRepo)

	items, err := svc.Recommend(context.Background(), 42, domain.KindOpportunity, 10)
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	if len(items) != 1 || items[0].TargetID != 2 {
		t.Errorf("items = %v, want only active target 2", items)
	}
}

func TestRecommend_StoreFailureDegradesToEmptyList(t *testing.T) {
	activityRepo := &fakeActivityReader{err: errors.New("connection refused")}
	platformRepo := &fakePlatformRepo{activeIDs: []uint64{1}}

	svc := newTestService(activityRepo, &fakeHistoryRepo{}, platformRepo)

	items, err := svc.Recommend(context.Background(), 42, domain.KindOpportunity, 10)
	if err != nil {
		t.Fatalf("store failure must not surface to the caller, got %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %v, want empty list", items)
	}
}

func TestRecommend_ValidatesInput(t *testing.T) {
	svc := newTestService(&fakeActivityReader{}, &fakeHistoryRepo{}, &fakePlatformRepo{})

	if _, err := svc.Recommend(context.Background(), 0, domain.KindOpportunity, 10); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero user id: got %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Recommend(context.Background(), 1, "weather", 10); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown kind: got %v, want ErrInvalidInput", err)
	}
}

func TestRecommend_CapsLimit(t *testing.T) {
	trending := make([]domain.TargetCount, 80)
	activeIDs := make([]uint64, 80)
	for i := range trending {
		trending[i] = domain.TargetCount{TargetID: uint64(i + 1), Count: int64(100 - i)}
		activeIDs[i] = uint64(i + 1)
	}

	activityRepo := &fakeActivityReader{trending: trending}
	platformRepo := &fakePlatformRepo{activeIDs: activeIDs}

	svc := newTestService(activityRepo, &fakeHistoryRepo{}, platformRepo)

	items, err := svc.Recommend(context.Background(), 42, domain.KindOpportunity, 500)
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	if len(items) != 50 {
		t.Errorf("got %d items, want hard cap of 50", len(items))
	}
}

func TestPredictSuccess_UndefinedConversionStillPredicts(t *testing.T) {
	platformRepo := &fakePlatformRepo{completeness: 1, tags: []string{"go"}}
	historyRepo := &fakeHistoryRepo{viewed: 0, applied: 0}

	svc := NewService(
		&fakeActivityReader{},
		&fakeInterestReader{interests: []domain.InterestProfile{{Tag: "go"}}},
		historyRepo,
		platformRepo,
		passthroughCache{},
		inlineDispatcher{},
		30*24*time.Hour,
		90*24*time.Hour,
	)

	prediction, err := svc.PredictSuccess(context.Background(), 42, 7)
	if err != nil {
		t.Fatalf("PredictSuccess returned error: %v", err)
	}
	if prediction.SuccessProbability != 1 {
		t.Errorf("probability = %v, want 1 with maxed defined terms", prediction.SuccessProbability)
	}
	if prediction.ConfidenceLevel != ConfidenceHigh {
		t.Errorf("confidence = %s, want HIGH", prediction.ConfidenceLevel)
	}
	if prediction.Recommendation == "" {
		t.Error("prediction must carry advice text")
	}
}

func TestRecentHistory_ReturnsServedRowsWithIDs(t *testing.T) {
	historyRepo := &fakeHistoryRepo{
		recent: []domain.RecommendationHistory{
			{ID: 11, UserID: 42, RecommendedItemID: 7, RecommendationType: domain.KindOpportunity},
			{ID: 10, UserID: 42, RecommendedItemID: 3, RecommendationType: domain.KindOpportunity},
		},
	}
	svc := newTestService(&fakeActivityReader{}, historyRepo, &fakePlatformRepo{})

	rows, err := svc.RecentHistory(context.Background(), 42, 20)
	if err != nil {
		t.Fatalf("RecentHistory returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	// Row IDs are the reaction keys; they must survive the read.
	if rows[0].ID != 11 || rows[1].ID != 10 {
		t.Errorf("row ids = [%d %d], want [11 10]", rows[0].ID, rows[1].ID)
	}
}

func TestRecentHistory_WrapsStoreFailure(t *testing.T) {
	historyRepo := &fakeHistoryRepo{err: errors.New("connection refused")}
	svc := newTestService(&fakeActivityReader{}, historyRepo, &fakePlatformRepo{})

	if _, err := svc.RecentHistory(context.Background(), 42, 20); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
	if _, err := svc.RecentHistory(context.Background(), 0, 20); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero user id: got %v, want ErrInvalidInput", err)
	}
}

func TestRecordReaction_ValidatesAction(t *testing.T) {
	svc := newTestService(&fakeActivityReader{}, &fakeHistoryRepo{}, &fakePlatformRepo{})

	if err := svc.RecordReaction(context.Background(), 1, "shrug", 0, "", 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown action: got %v, want ErrInvalidInput", err)
	}
	if err := svc.RecordReaction(context.Background(), 1, ReactionFeedback, 9, "", 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("rating out of range: got %v, want ErrInvalidInput", err)
	}
	if err := svc.RecordReaction(context.Background(), 1, ReactionView, 0, "", 30); err != nil {
		t.Errorf("valid view reaction failed: %v", err)
	}
}
