package rest

import (
	"context"
	"errors"
	"net/http"
	"opportunityHub/business/recommendation"
	"opportunityHub/domain"
	"opportunityHub/pkg/logger"
	"strconv"
	"time"

	servingmetrics "opportunityHub/app/echo-server/metrics"
	jsonres "opportunityHub/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type RecommendationService interface {
	Recommend(ctx context.Context, userID uint, kind domain.RecommendationKind, limit int) ([]domain.ScoredItem, error)
	PredictSuccess(ctx context.Context, userID uint, opportunityID uint64) (domain.SuccessPrediction, error)
	RecentHistory(ctx context.Context, userID uint, limit int) ([]domain.RecommendationHistory, error)
	RecordReaction(ctx context.Context, historyID uint, action string, rating int, comment string, timeSpentSeconds int) error
}

type RecommendationHandler struct {
	recoService RecommendationService
	validator   *validator.Validate
	timeout     time.Duration
}

func NewRecommendationHandler(recoService RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		recoService: recoService,
		validator:   validator.New(),
		timeout:     10 * time.Second,
	}
}

type FeedbackRequest struct {
	HistoryID        uint   `json:"history_id" validate:"required"`
	Action           string `json:"action" validate:"required,oneof=view click apply feedback"`
	Rating           int    `json:"rating" validate:"gte=0,lte=5"`
	Comment          string `json:"comment"`
	TimeSpentSeconds int    `json:"time_spent_seconds" validate:"gte=0"`
}

func (h *RecommendationHandler) GetOpportunityRecommendations(c echo.Context) error {
	return h.serve(c, domain.KindOpportunity)
}

func (h *RecommendationHandler) GetContentRecommendations(c echo.Context) error {
	return h.serve(c, domain.KindContent)
}

func (h *RecommendationHandler) GetMentorRecommendations(c echo.Context) error {
	return h.serve(c, domain.KindMentor)
}

func (h *RecommendationHandler) serve(c echo.Context, kind domain.RecommendationKind) error {
	start := time.Now()
	defer func() {
		servingmetrics.RecommendDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}()

	userID, err := parseUserID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", "limit must be a non-negative integer", nil))
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	items, err := h.recoService.Recommend(ctx, userID, kind, limit)
	if err != nil {
		if errors.Is(err, recommendation.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
		}
		logger.Error("Failed to serve recommendations", "kind", kind, "error", err)
		return c.JSON(http.StatusInternalServerError, jsonres.Error("INTERNAL", "failed to serve recommendations", nil))
	}

	if items == nil {
		items = []domain.ScoredItem{}
	}

	servingmetrics.RecommendTotal.WithLabelValues(string(kind)).Inc()

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":         true,
		"user_id":         userID,
		"recommendations": items,
		"count":           len(items),
	})
}

func (h *RecommendationHandler) PredictSuccess(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	opportunityID, err := strconv.ParseUint(c.Param("opportunityId"), 10, 64)
	if err != nil || opportunityID == 0 {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", "invalid opportunity id", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	prediction, err := h.recoService.PredictSuccess(ctx, userID, opportunityID)
	if err != nil {
		if errors.Is(err, recommendation.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
		}
		if errors.Is(err, recommendation.ErrStoreUnavailable) {
			// Store trouble degrades to an empty prediction, never a
			// caller-visible failure.
			logger.Error("Failed to predict success", "user_id", userID, "opportunity_id", opportunityID, "error", err)
			return c.JSON(http.StatusOK, map[string]interface{}{
				"success":    true,
				"user_id":    userID,
				"prediction": nil,
			})
		}
		logger.Error("Failed to predict success", "user_id", userID, "opportunity_id", opportunityID, "error", err)
		return c.JSON(http.StatusInternalServerError, jsonres.Error("INTERNAL", "failed to predict success", nil))
	}

	servingmetrics.PredictTotal.Inc()

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":    true,
		"user_id":    userID,
		"prediction": prediction,
	})
}

// GetHistory lists a user's served recommendations with their history
// IDs, the keys the feedback endpoint accepts.
func (h *RecommendationHandler) GetHistory(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if limit, err = strconv.Atoi(limitStr); err != nil || limit <= 0 {
			return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", "limit must be a positive integer", nil))
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	rows, err := h.recoService.RecentHistory(ctx, userID, limit)
	if err != nil {
		if errors.Is(err, recommendation.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
		}
		logger.Error("Failed to fetch recommendation history", "user_id", userID, "error", err)
		rows = nil
	}

	if rows == nil {
		rows = []domain.RecommendationHistory{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"user_id": userID,
		"history": rows,
		"count":   len(rows),
	})
}

func (h *RecommendationHandler) Feedback(c echo.Context) error {
	var req FeedbackRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate feedback request", "error", err)
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	err := h.recoService.RecordReaction(ctx, req.HistoryID, req.Action, req.Rating, req.Comment, req.TimeSpentSeconds)
	if err != nil {
		if errors.Is(err, recommendation.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
		}
		logger.Error("Failed to record feedback", "history_id", req.HistoryID, "error", err)
		return c.JSON(http.StatusInternalServerError, jsonres.Error("INTERNAL", "failed to record feedback", nil))
	}

	servingmetrics.FeedbackTotal.Inc()

	return c.JSON(http.StatusOK, jsonres.OK("feedback recorded", nil))
}

func parseUserID(c echo.Context) (uint, error) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || userID == 0 {
		return 0, errors.New("invalid user id")
	}
	return uint(userID), nil
}
