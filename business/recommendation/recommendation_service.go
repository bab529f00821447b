package recommendation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"opportunityHub/domain"
	"opportunityHub/pkg/logger"
)

const (
	maxCandidateScores = 100
	similarUserLimit   = 20
	signalQueryLimit   = 200

	weightTrending = 0.6
	weightCoVisit  = 0.4
)

// ---- Repository interfaces ----

type ActivityReader interface {
	SharedTargetUsers(ctx context.Context, userID uint, activityType domain.ActivityType, limit int) ([]domain.SharedUser, error)
	TrendingTargets(ctx context.Context, targetType domain.TargetType, since time.Time, limit int) ([]domain.TargetCount, error)
	TargetsOfUsers(ctx context.Context, userIDs []uint, targetType domain.TargetType, since time.Time, limit int) ([]domain.TargetCount, error)
	SeenTargets(ctx context.Context, userID uint, targetType domain.TargetType, candidateIDs []uint64) ([]uint64, error)
}

type InterestReader interface {
	TopInterests(ctx context.Context, userID uint, limit, offset int) ([]domain.InterestProfile, error)
}

type HistoryRepository interface {
	CreateBatch(ctx context.Context, rows []domain.RecommendationHistory) error
	RecentByUser(ctx context.Context, userID uint, limit int) ([]domain.RecommendationHistory, error)
	MarkViewed(ctx context.Context, id uint, timeSpentSeconds int) error
	MarkClicked(ctx context.Context, id uint) error
	MarkApplied(ctx context.Context, id uint) error
	RecordFeedback(ctx context.Context, id uint, rating int, comment string) error
	ConversionStats(ctx context.Context, userID uint, since time.Time) (int64, int64, error)
}

type PlatformRepository interface {
	ProfileCompleteness(ctx context.Context, userID uint) (float64, error)
	ActiveTargetIDs(ctx context.Context, targetType domain.TargetType) ([]uint64, error)
	TargetTags(ctx context.Context, targetType domain.TargetType, id uint64) ([]string, error)
}

// RecommendationCache fronts compute with the tiered TTL cache.
type RecommendationCache interface {
	GetOrCompute(ctx context.Context, userID uint, kind domain.RecommendationKind, algorithmVersion string, compute func(context.Context) ([]domain.ScoredItem, error)) ([]domain.ScoredItem, error)
}

// Dispatcher hands audit-style work to a background pool.
type Dispatcher interface {
	Submit(task func()) error
}

// ---- Usecase / Service ----

type Service struct {
	activityRepo ActivityReader
	interestRepo InterestReader
	historyRepo  HistoryRepository
	platformRepo PlatformRepository
	cache        RecommendationCache
	historyPool  Dispatcher

	trendingWindow   time.Duration
	conversionWindow time.Duration
}

func NewService(
	activityRepo ActivityReader,
	interestRepo InterestReader,
	historyRepo HistoryRepository,
	platformRepo PlatformRepository,
	cache RecommendationCache,
	historyPool Dispatcher,
	trendingWindow time.Duration,
	conversionWindow time.Duration,
) *Service {
	return &Service{
		activityRepo:     activityRepo,
		interestRepo:     interestRepo,
		historyRepo:      historyRepo,
		platformRepo:     platformRepo,
		cache:            cache,
		historyPool:      historyPool,
		trendingWindow:   trendingWindow,
		conversionWindow: conversionWindow,
	}
}

// Recommend serves the top-limit items of a kind for a user. Store and
// cache failures degrade to an empty list; they never fail the caller.
func (s *Service) Recommend(
	ctx context.Context,
	userID uint,
	kind domain.RecommendationKind,
	limit int,
) ([]domain.ScoredItem, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if userID == 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if !domain.ValidRecommendationKind(kind) {
		return nil, fmt.Errorf("%w: unknown recommendation kind %q", ErrInvalidInput, kind)
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	items, err := s.cache.GetOrCompute(ctx, userID, kind, AlgorithmVersion, func(cctx context.Context) ([]domain.ScoredItem, error) {
		return s.compute(cctx, userID, kind)
	})
	if err != nil {
		logger.Error("recommendation computation failed",
			"trace_id", TraceIDFromContext(ctx),
			"user_id", userID,
			"kind", kind,
			"error", err,
		)
		return []domain.ScoredItem{}, nil
	}

	if len(items) > limit {
		items = items[:limit]
	}

	s.recordServed(userID, kind, items)

	return items, nil
}

// compute builds the full ranked list for one (user, kind): trending
// and co-visitation signals over active catalog entries, minus targets
// the user has already seen.
func (s *Service) compute(ctx context.Context, userID uint, kind domain.RecommendationKind) ([]domain.ScoredItem, error) {
	targetType := domain.TargetTypeFor(kind)
	since := time.Now().Add(-s.trendingWindow)

	activeIDs, err := s.platformRepo.ActiveTargetIDs(ctx, targetType)
	if err != nil {
		return nil, fmt.Errorf("%w: active ids for %s: %v", ErrStoreUnavailable, targetType, err)
	}
	if len(activeIDs) == 0 {
		return []domain.ScoredItem{}, nil
	}

	trending, err := s.activityRepo.TrendingTargets(ctx, targetType, since, signalQueryLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: trending targets: %v", ErrStoreUnavailable, err)
	}

	similar, err := s.activityRepo.SharedTargetUsers(ctx, userID, domain.ActivityView, similarUserLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: shared target users: %v", ErrStoreUnavailable, err)
	}

	var coVisited []domain.TargetCount
	if len(similar) > 0 {
		ranked := RankBySharedTargets(similar)
		ids := make([]uint, 0, len(ranked))
		for _, su := range ranked {
			ids = append(ids, su.UserID)
		}

		coVisited, err = s.activityRepo.TargetsOfUsers(ctx, ids, targetType, since, signalQueryLimit)
		if err != nil {
			return nil, fmt.Errorf("%w: co-visited targets: %v", ErrStoreUnavailable, err)
		}
	}

	candidates := scoreCandidates(activeIDs, trending, coVisited)
	if len(candidates) == 0 {
		return []domain.ScoredItem{}, nil
	}

	candidateIDs := make([]uint64, 0, len(candidates))
	for _, c := range candidates {
		candidateIDs = append(candidateIDs, c.TargetID)
	}

	seen, err := s.activityRepo.SeenTargets(ctx, userID, targetType, candidateIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: seen targets: %v", ErrStoreUnavailable, err)
	}

	return FilterSeen(candidates, seen), nil
}

// scoreCandidates blends normalized trending and co-visitation counts
// for targets still active in the catalog. Sorted by score descending,
// lower target ID on ties.
func scoreCandidates(activeIDs []uint64, trending, coVisited []domain.TargetCount) []domain.ScoredItem {
	active := make(map[uint64]struct{}, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = struct{}{}
	}

	var maxTrend, maxCo int64
	trendCounts := make(map[uint64]int64, len(trending))
	for _, tc := range trending {
		if _, ok := active[tc.TargetID]; !ok {
			continue
		}
		trendCounts[tc.TargetID] = tc.Count
		if tc.Count > maxTrend {
			maxTrend = tc.Count
		}
	}

	coCounts := make(map[uint64]int64, len(coVisited))
	for _, tc := range coVisited {
		if _, ok := active[tc.TargetID]; !ok {
			continue
		}
		coCounts[tc.TargetID] = tc.Count
		if tc.Count > maxCo {
			maxCo = tc.Count
		}
	}

	scored := make([]domain.ScoredItem, 0, len(trendCounts)+len(coCounts))
	added := make(map[uint64]struct{}, len(trendCounts)+len(coCounts))

	addScore := func(id uint64) {
		if _, ok := added[id]; ok {
			return
		}
		added[id] = struct{}{}

		var score float64
		if maxTrend > 0 {
			score += weightTrending * float64(trendCounts[id]) / float64(maxTrend)
		}
		if maxCo > 0 {
			score += weightCoVisit * float64(coCounts[id]) / float64(maxCo)
		}
		if score > 0 {
			scored = append(scored, domain.ScoredItem{TargetID: id, Score: score})
		}
	}

	for id := range trendCounts {
		addScore(id)
	}
	for id := range coCounts {
		addScore(id)
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score == scored[j].Score {
			return scored[i].TargetID < scored[j].TargetID
		}
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > maxCandidateScores {
		scored = scored[:maxCandidateScores]
	}

	return scored
}

// recordServed appends one history row per served item off the request
// path. Dropped silently when the pool is saturated.
func (s *Service) recordServed(userID uint, kind domain.RecommendationKind, items []domain.ScoredItem) {
	if s.historyPool == nil || len(items) == 0 {
		return
	}

	rows := make([]domain.RecommendationHistory, 0, len(items))
	for _, item := range items {
		rows = append(rows, domain.RecommendationHistory{
			UserID:             userID,
			RecommendationType: kind,
			RecommendedItemID:  item.TargetID,
			Score:              item.Score,
			AlgorithmName:      AlgorithmName,
			AlgorithmVersion:   AlgorithmVersion,
			IsActive:           true,
		})
	}

	_ = s.historyPool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.historyRepo.CreateBatch(ctx, rows); err != nil {
			logger.Error("failed to record served recommendations", "user_id", userID, "kind", kind, "error", err)
		}
	})
}

// PredictSuccess estimates how likely the user is to convert on one
// opportunity.
func (s *Service) PredictSuccess(ctx context.Context, userID uint, opportunityID uint64) (domain.SuccessPrediction, error) {
	if err := ctx.Err(); err != nil {
		return domain.SuccessPrediction{}, fmt.Errorf("context error: %w", err)
	}
	if userID == 0 || opportunityID == 0 {
		return domain.SuccessPrediction{}, fmt.Errorf("%w: user id and opportunity id are required", ErrInvalidInput)
	}

	completeness, err := s.platformRepo.ProfileCompleteness(ctx, userID)
	if err != nil {
		return domain.SuccessPrediction{}, fmt.Errorf("%w: profile completeness: %v", ErrStoreUnavailable, err)
	}

	targetTags, err := s.platformRepo.TargetTags(ctx, domain.TargetOpportunity, opportunityID)
	if err != nil {
		return domain.SuccessPrediction{}, fmt.Errorf("%w: opportunity tags: %v", ErrStoreUnavailable, err)
	}

	interests, err := s.interestRepo.TopInterests(ctx, userID, 20, 0)
	if err != nil {
		return domain.SuccessPrediction{}, fmt.Errorf("%w: top interests: %v", ErrStoreUnavailable, err)
	}

	userTags := make([]string, 0, len(interests))
	for _, entry := range interests {
		userTags = append(userTags, entry.Tag)
	}

	viewed, applied, err := s.historyRepo.ConversionStats(ctx, userID, time.Now().Add(-s.conversionWindow))
	if err != nil {
		return domain.SuccessPrediction{}, fmt.Errorf("%w: conversion stats: %v", ErrStoreUnavailable, err)
	}

	rate, defined := ConversionRate(viewed, applied)
	probability := SuccessProbability(completeness, TagOverlap(userTags, targetTags), rate, defined)
	bucket := ConfidenceBucket(probability)

	logger.Debug("success_prediction",
		"trace_id", TraceIDFromContext(ctx),
		"user_id", userID,
		"opportunity_id", opportunityID,
		"probability", probability,
		"bucket", bucket,
	)

	return domain.SuccessPrediction{
		SuccessProbability: probability,
		ConfidenceLevel:    bucket,
		Recommendation:     AdviceFor(bucket),
	}, nil
}

// RecentHistory returns a user's served recommendations with their row
// IDs, the keys RecordReaction transitions on. History rows are written
// off the serve path, so this read is how clients learn them.
func (s *Service) RecentHistory(ctx context.Context, userID uint, limit int) ([]domain.RecommendationHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if userID == 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := s.historyRepo.RecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: recent history: %v", ErrStoreUnavailable, err)
	}

	return rows, nil
}

// Feedback actions accepted by RecordReaction.
const (
	ReactionView     = "view"
	ReactionClick    = "click"
	ReactionApply    = "apply"
	ReactionFeedback = "feedback"
)

// RecordReaction applies one lifecycle transition to a served
// recommendation. Transitions are idempotent at the store.
func (s *Service) RecordReaction(ctx context.Context, historyID uint, action string, rating int, comment string, timeSpentSeconds int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if historyID == 0 {
		return fmt.Errorf("%w: history id is required", ErrInvalidInput)
	}

	switch action {
	case ReactionView:
		return s.historyRepo.MarkViewed(ctx, historyID, timeSpentSeconds)
	case ReactionClick:
		return s.historyRepo.MarkClicked(ctx, historyID)
	case ReactionApply:
		return s.historyRepo.MarkApplied(ctx, historyID)
	case ReactionFeedback:
		if rating < 1 || rating > 5 {
			return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
		}
		return s.historyRepo.RecordFeedback(ctx, historyID, rating, comment)
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}
}
