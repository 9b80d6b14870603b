package handlers

import (
	"net/http"

	"github.com/anonto42/socialnet/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// ActivityHandler exposes the caller's activity trail
type ActivityHandler struct {
	activityRepository repositories.ActivityRepository
}

func NewActivityHandler(activityRepo repositories.ActivityRepository) *ActivityHandler {
	return &ActivityHandler{activityRepository: activityRepo}
}

func (h *ActivityHandler) RegisterActivityRoutes(g *echo.Group) {
	g.GET("/activity", h.GetActivity)
}

func (h *ActivityHandler) GetActivity(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	page, limit, offset := pagination(c)

	activities, err := h.activityRepository.GetByActorID(c.Request().Context(), userID, int64(offset), int64(limit))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"activities": activities, "page": page, "limit": limit})
}
