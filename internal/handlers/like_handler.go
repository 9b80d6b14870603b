package handlers

import (
	"net/http"

	"github.com/anonto42/socialnet/backend/internal/models"
	"github.com/anonto42/socialnet/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	engagement *services.EngagementService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(engagement *services.EngagementService) *LikeHandler {
	return &LikeHandler{engagement: engagement}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/like", h.LikePost)
	g.DELETE("/posts/:id/like", h.UnlikePost)
	g.GET("/posts/:id/likes", h.GetLikeStatus)
}

type likeResponse struct {
	Like      *models.Like `json:"like"`
	LikeCount int64        `json:"like_count"`
}

// LikePost handles liking a post
func (h *LikeHandler) LikePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	like, count, err := h.engagement.LikePost(c.Request().Context(), userID, postID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, likeResponse{Like: like, LikeCount: count})
}

// UnlikePost handles unliking a post
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	count, err := h.engagement.UnlikePost(c.Request().Context(), userID, postID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"like_count": count})
}

// GetLikeStatus reports the like count of a post and whether the caller likes it
func (h *LikeHandler) GetLikeStatus(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	count, liked, err := h.engagement.LikeStatus(c.Request().Context(), userID, postID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"post_id":    postID,
		"like_count": count,
		"is_liked":   liked,
	})
}
