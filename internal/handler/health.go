package handler

import (
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
)

var startedAt = time.Now()

// Health reports service liveness for load balancers and monitoring.
func Health(c echo.Context) error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":         "ok",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"environment":    env,
		"uptime_seconds": int(time.Since(startedAt).Seconds()),
	})
}
