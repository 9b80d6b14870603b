package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/socialnet/backend/internal/models"
	"github.com/anonto42/socialnet/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler handles profile and user lookup requests
type UserHandler struct {
	accountService *services.AccountService
	authService    *services.AuthService
	postService    *services.PostService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(accountService *services.AccountService, authService *services.AuthService, postService *services.PostService) *UserHandler {
	return &UserHandler{
		accountService: accountService,
		authService:    authService,
		postService:    postService,
	}
}

// RegisterProfileRoutes registers profile and user routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.DELETE("/profile", h.DeleteProfile)
	g.POST("/profile/password", h.ChangePassword)

	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetUser)
	g.GET("/users/:id/posts", h.GetUserPosts)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// GetProfile returns the authenticated user, email included
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	user, err := h.accountService.GetUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	var req models.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.accountService.UpdateProfile(c.Request().Context(), userID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteProfile deletes the account and everything it owns
func (h *UserHandler) DeleteProfile(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	if err := h.accountService.DeleteAccount(c.Request().Context(), userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) ChangePassword(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	var req models.ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.ChangePassword(c.Request().Context(), userID, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password changed successfully."})
}

// GetUser returns the public profile of a user
func (h *UserHandler) GetUser(c echo.Context) error {
	viewerID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	profile, err := h.accountService.GetPublicProfile(c.Request().Context(), viewerID, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// SearchUsers searches users by username or name
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter 'q' is required")
	}
	_, limit, _ := pagination(c)

	users, err := h.accountService.SearchUsers(c.Request().Context(), query, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

func (h *UserHandler) GetUserPosts(c echo.Context) error {
	viewerID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	page, limit, offset := pagination(c)

	posts, err := h.postService.ListUserPosts(c.Request().Context(), viewerID, userID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts, "page": page, "limit": limit})
}

func (h *UserHandler) GetFollowers(c echo.Context) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	page, limit, offset := pagination(c)

	users, err := h.accountService.Followers(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users, "page": page, "limit": limit})
}

func (h *UserHandler) GetFollowing(c echo.Context) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	page, limit, offset := pagination(c)

	users, err := h.accountService.Following(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users, "page": page, "limit": limit})
}
