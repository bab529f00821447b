package collaborator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"opportunityHub/domain"
)

// PlatformConfig points at the internal platform API that owns
// profiles and the opportunity/content/mentor catalogs.
type PlatformConfig struct {
	BaseURL string
	APIKey  string
}

// PlatformRepository is the engine's client for the collaborator
// services kept outside this codebase: profile completeness and
// catalog lookups, all simple synchronous request/response.
type PlatformRepository struct {
	platformConfig PlatformConfig
	client         *http.Client
}

func NewPlatformRepository(cfg PlatformConfig) *PlatformRepository {
	return &PlatformRepository{
		platformConfig: cfg,
		client:         &http.Client{Timeout: 5 * time.Second},
	}
}

type completenessResponse struct {
	Completeness float64 `json:"completeness"`
}

type activeIDsResponse struct {
	IDs []uint64 `json:"ids"`
}

type tagsResponse struct {
	Tags []string `json:"tags"`
}

func (r *PlatformRepository) ProfileCompleteness(ctx context.Context, userID uint) (float64, error) {
	url := fmt.Sprintf("%s/internal/profiles/%d/completeness", r.platformConfig.BaseURL, userID)

	var body completenessResponse
	if err := r.getJSON(ctx, url, &body); err != nil {
		return 0, err
	}

	return body.Completeness, nil
}

func (r *PlatformRepository) ActiveTargetIDs(ctx context.Context, targetType domain.TargetType) ([]uint64, error) {
	url := fmt.Sprintf("%s/internal/catalog/%s/active-ids", r.platformConfig.BaseURL, targetType)

	var body activeIDsResponse
	if err := r.getJSON(ctx, url, &body); err != nil {
		return nil, err
	}

	return body.IDs, nil
}

func (r *PlatformRepository) TargetTags(ctx context.Context, targetType domain.TargetType, id uint64) ([]string, error) {
	url := fmt.Sprintf("%s/internal/catalog/%s/%d/tags", r.platformConfig.BaseURL, targetType, id)

	var body tagsResponse
	if err := r.getJSON(ctx, url, &body); err != nil {
		return nil, err
	}

	return body.Tags, nil
}

func (r *PlatformRepository) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Add("Accept", "application/json")
	if r.platformConfig.APIKey != "" {
		req.Header.Add("Authorization", "Bearer "+r.platformConfig.APIKey)
	}

	res, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("platform service unreachable: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("platform service returned negative response %v", res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode platform response: %w", err)
	}

	return nil
}
