package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	rdb     *redis.Client
	timeout time.Duration
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{
		db:      db,
		rdb:     rdb,
		timeout: 2 * time.Second,
	}
}

// Health reports per-dependency status. Degraded dependencies return
// 503 so load balancers can rotate the instance out.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	checks := map[string]string{
		"dataStore": "ok",
		"cache":     "ok",
	}
	healthy := true

	if sqlDB, err := h.db.DB(); err != nil {
		checks["dataStore"] = err.Error()
		healthy = false
	} else if err := sqlDB.PingContext(ctx); err != nil {
		checks["dataStore"] = err.Error()
		healthy = false
	}

	if err := h.rdb.Ping(ctx).Err(); err != nil {
		checks["cache"] = err.Error()
		healthy = false
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	return c.JSON(code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
