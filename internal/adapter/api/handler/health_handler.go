package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type HealthHandler struct {
	storeDriver string
	started     time.Time
}

func NewHealthHandler(storeDriver string) *HealthHandler {
	return &HealthHandler{
		storeDriver: storeDriver,
		started:     time.Now(),
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"store":  h.storeDriver,
		"uptime": time.Since(h.started).Round(time.Second).String(),
		"time":   time.Now().Format(time.RFC3339),
	})
}
