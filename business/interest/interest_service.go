package interest

import (
	"context"
	"fmt"
	"time"

	"opportunityHub/domain"
)

// InterestRepository contract interface
type InterestRepository interface {
	Upsert(ctx context.Context, entries []domain.InterestProfile) error
	TopInterests(ctx context.Context, userID uint, limit, offset int) ([]domain.InterestProfile, error)
	ActiveByUserAndTags(ctx context.Context, userID uint, tags []string) ([]domain.InterestProfile, error)
	IncrementInteraction(ctx context.Context, userID uint, tag, eventUID string, at time.Time) (int64, bool, error)
	UpdateLevel(ctx context.Context, userID uint, tag string, level domain.InterestLevel) error
	Deactivate(ctx context.Context, userID uint) error
}

type Service struct {
	interestRepo InterestRepository
}

func NewService(interestRepo InterestRepository) *Service {
	return &Service{interestRepo: interestRepo}
}

// UpsertInterests creates or refreshes (user, tag) entries. Idempotent:
// re-upserting the same tags updates level and source in place.
func (s *Service) UpsertInterests(
	ctx context.Context,
	userID uint,
	tags []string,
	level domain.InterestLevel,
	source domain.InterestSource,
) error {

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if userID == 0 {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if len(tags) == 0 {
		return fmt.Errorf("%w: at least one tag is required", ErrInvalidInput)
	}
	if !domain.ValidInterestSource(source) {
		return fmt.Errorf("%w: unknown interest source %q", ErrInvalidInput, source)
	}

	entries := make([]domain.InterestProfile, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			return fmt.Errorf("%w: empty interest tag", ErrInvalidInput)
		}
		entries = append(entries, domain.InterestProfile{
			UserID:    userID,
			Tag:       tag,
			Level:     level,
			LevelRank: domain.LevelRank(level),
			Source:    source,
			IsActive:  true,
		})
	}

	if err := s.interestRepo.Upsert(ctx, entries); err != nil {
		return fmt.Errorf("%w: upsert interests: %v", ErrStoreUnavailable, err)
	}

	return nil
}

func (s *Service) TopInterests(ctx context.Context, userID uint, limit, offset int) ([]domain.InterestProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	entries, err := s.interestRepo.TopInterests(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: top interests: %v", ErrStoreUnavailable, err)
	}

	return entries, nil
}

func (s *Service) Deactivate(ctx context.Context, userID uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	return s.interestRepo.Deactivate(ctx, userID)
}
