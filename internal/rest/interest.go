package rest

import (
	"context"
	"errors"
	"net/http"
	"opportunityHub/business/interest"
	"opportunityHub/domain"
	"opportunityHub/pkg/logger"
	"strconv"
	"time"

	jsonres "opportunityHub/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type InterestService interface {
	UpsertInterests(ctx context.Context, userID uint, tags []string, level domain.InterestLevel, source domain.InterestSource) error
	TopInterests(ctx context.Context, userID uint, limit, offset int) ([]domain.InterestProfile, error)
}

type InterestHandler struct {
	interestService InterestService
	validator       *validator.Validate
	timeout         time.Duration
}

func NewInterestHandler(interestService InterestService) *InterestHandler {
	return &InterestHandler{
		interestService: interestService,
		validator:       validator.New(),
		timeout:         10 * time.Second,
	}
}

type UpsertInterestsRequest struct {
	UserID uint     `json:"user_id" validate:"required"`
	Tags   []string `json:"tags" validate:"required,min=1,dive,required"`
	Level  string   `json:"level" validate:"required,oneof=HIGH MEDIUM LOW"`
	Source string   `json:"source" validate:"required,oneof=USER_SELECTED ACTIVITY_BASED AI_INFERRED SURVEY IMPORTED"`
}

func (h *InterestHandler) UpsertInterests(c echo.Context) error {
	var req UpsertInterestsRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate interest request", "error", err)
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	err := h.interestService.UpsertInterests(
		ctx,
		req.UserID,
		req.Tags,
		domain.InterestLevel(req.Level),
		domain.InterestSource(req.Source),
	)
	if err != nil {
		if errors.Is(err, interest.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
		}
		// Store trouble is absorbed like the activity write path: log it,
		// accept the request.
		logger.Error("Failed to upsert interests", "user_id", req.UserID, "error", err)
		return c.JSON(http.StatusAccepted, jsonres.OK("interests accepted", nil))
	}

	return c.JSON(http.StatusOK, jsonres.OK("interests updated", nil))
}

func (h *InterestHandler) GetTopInterests(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	limit := 20
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

	interests, err := h.interestService.TopInterests(ctx, userID, limit, offset)
	if err != nil {
		if errors.Is(err, interest.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
		}
		// Store trouble degrades to an empty list, never a failure.
		logger.Error("Failed to fetch top interests", "user_id", userID, "error", err)
		interests = nil
	}

	if interests == nil {
		interests = []domain.InterestProfile{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"user_id":   userID,
		"interests": interests,
		"count":     len(interests),
	})
}
