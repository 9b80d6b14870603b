package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// HealthHandler reports liveness and relational store reachability
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) RegisterHealthRoutes(e *echo.Echo) {
	e.GET("/", h.Welcome)
	e.GET("/health", h.HealthCheck)
}

func (h *HealthHandler) Welcome(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Welcome to the Socialnet API"})
}

func (h *HealthHandler) HealthCheck(c echo.Context) error {
	status, database := http.StatusOK, "up"

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request().Context())
	}
	if err != nil {
		status, database = http.StatusServiceUnavailable, "down"
	}

	return c.JSON(status, map[string]string{
		"status":   http.StatusText(status),
		"service":  "echo-api",
		"database": database,
	})
}
