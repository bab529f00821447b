package rest

import (
	"context"
	"errors"
	"net/http"
	"opportunityHub/business/activity"
	"opportunityHub/domain"
	"opportunityHub/pkg/logger"
	"strconv"
	"time"

	jsonres "opportunityHub/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
)

type ActivityService interface {
	Record(ctx context.Context, event domain.ActivityEvent) error
	Query(ctx context.Context, userID uint, activityType domain.ActivityType, since time.Time, limit, offset int) ([]domain.ActivityEvent, error)
	BehaviorSummary(ctx context.Context, userID uint, since time.Time) (domain.BehaviorSummary, error)
	DeactivateUser(ctx context.Context, userID uint) error
}

type ActivityHandler struct {
	activityService ActivityService
	validator       *validator.Validate
	timeout         time.Duration
}

func NewActivityHandler(activityService ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		validator:       validator.New(),
		timeout:         10 * time.Second,
	}
}

type RecordActivityRequest struct {
	UserID       uint              `json:"user_id" validate:"required"`
	ActivityType string            `json:"activity_type" validate:"required"`
	TargetID     *uint64           `json:"target_id"`
	TargetType   *string           `json:"target_type"`
	SessionID    string            `json:"session_id"`
	Tags         []string          `json:"tags"`
	Metadata     datatypes.JSONMap `json:"metadata"`
}

// RecordActivity accepts one event for background append. Only input
// errors fail the request; store trouble is invisible to the caller.
func (h *ActivityHandler) RecordActivity(c echo.Context) error {
	var req RecordActivityRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate activity request", "error", err)
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	event := domain.ActivityEvent{
		UserID:       req.UserID,
		ActivityType: domain.ActivityType(req.ActivityType),
		TargetID:     req.TargetID,
		SessionID:    req.SessionID,
		Tags:         req.Tags,
		Metadata:     req.Metadata,
	}
	if req.TargetType != nil {
		targetType := domain.TargetType(*req.TargetType)
		event.TargetType = &targetType
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.activityService.Record(ctx, event); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	return c.JSON(http.StatusAccepted, jsonres.OK("activity recorded", nil))
}

func (h *ActivityHandler) GetActivities(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	activityType := domain.ActivityType(c.QueryParam("type"))
	since := sinceParam(c, 30)

	limit := 50
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if limit, err = strconv.Atoi(limitStr); err != nil || limit <= 0 {
			return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", "limit must be a positive integer", nil))
		}
	}

	offset := 0
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		if offset, err = strconv.Atoi(offsetStr); err != nil || offset < 0 {
			return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", "offset must be a non-negative integer", nil))
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	events, err := h.activityService.Query(ctx, userID, activityType, since, limit, offset)
	if err != nil {
		if errors.Is(err, activity.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
		}
		// Store trouble degrades to an empty list, never a failure.
		logger.Error("Failed to query activities", "user_id", userID, "error", err)
		events = nil
	}

	if events == nil {
		events = []domain.ActivityEvent{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":    true,
		"user_id":    userID,
		"activities": events,
		"count":      len(events),
	})
}

func (h *ActivityHandler) GetBehaviorInsights(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	summary, err := h.activityService.BehaviorSummary(ctx, userID, sinceParam(c, 30))
	if err != nil {
		if errors.Is(err, activity.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
		}
		// Store trouble degrades to an empty payload, never a failure.
		logger.Error("Failed to build behavior summary", "user_id", userID, "error", err)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success":  true,
			"insights": nil,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"insights": summary,
	})
}

// DeactivateUserData soft-deletes all personalization data for a user.
func (h *ActivityHandler) DeactivateUserData(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	// Deactivation is the one write the caller must retry on store
	// trouble, so it keeps an explicit failure status.
	if err := h.activityService.DeactivateUser(ctx, userID); err != nil {
		if errors.Is(err, activity.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
		}
		logger.Error("Failed to deactivate user data", "user_id", userID, "error", err)
		return c.JSON(http.StatusServiceUnavailable, jsonres.Error("STORE_UNAVAILABLE", "deactivation failed, retry later", nil))
	}

	return c.JSON(http.StatusOK, jsonres.OK("user data deactivated", nil))
}

// sinceParam reads the ?days= window, falling back to defaultDays.
func sinceParam(c echo.Context, defaultDays int) time.Time {
	days := defaultDays
	if daysStr := c.QueryParam("days"); daysStr != "" {
		if parsed, err := strconv.Atoi(daysStr); err == nil && parsed > 0 {
			days = parsed
		}
	}
	return time.Now().AddDate(0, 0, -days)
}
