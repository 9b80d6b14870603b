package handlers

import (
	"net/http"

	"github.com/anonto42/socialnet/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow and unfollow requests
type FollowHandler struct {
	engagement *services.EngagementService
}

func NewFollowHandler(engagement *services.EngagementService) *FollowHandler {
	return &FollowHandler{engagement: engagement}
}

func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
}

func (h *FollowHandler) FollowUser(c echo.Context) error {
	followerID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	followedID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	follow, err := h.engagement.FollowUser(c.Request().Context(), followerID, followedID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"follow": follow})
}

func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	followerID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	followedID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.engagement.UnfollowUser(c.Request().Context(), followerID, followedID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
