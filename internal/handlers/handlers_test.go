package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/socialnet/backend/internal/handlers"
	"github.com/anonto42/socialnet/backend/internal/models"
	"github.com/anonto42/socialnet/backend/internal/router"
	"github.com/anonto42/socialnet/backend/internal/testutil"
	"github.com/anonto42/socialnet/backend/pkg/config"
	"github.com/anonto42/socialnet/backend/pkg/mailer"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testServer struct {
	e  *echo.Echo
	db *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.OpenTestDB(t)
	logger := zap.NewNop()
	cfg := &config.Config{
		JWTSecret:            "test-secret",
		JWTTTL:               time.Hour,
		PasswordResetTTL:     24 * time.Hour,
		FrontendURL:          "http://frontend.test",
		CounterRetryAttempts: 3,
		ReconcileBatchSize:   100,
	}

	e := router.NewEcho(logger)
	_, err := router.SetupRoutes(e, router.Dependencies{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Mailer: mailer.NewLogMailer(logger),
	})
	require.NoError(t, err)
	return &testServer{e: e, db: db}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload string
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = string(raw)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

type session struct {
	token string
	id    uint
}

func (s *testServer) signup(t *testing.T, username string) session {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", echo.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, rec, &out)
	return session{token: out.Token, id: out.User.ID}
}

func (s *testServer) createPost(t *testing.T, owner session, content string) models.PostResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/posts", owner.token, echo.Map{"content": content})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var post models.PostResponse
	decode(t, rec, &post)
	return post
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) handlers.ErrorBody {
	t.Helper()
	var out struct {
		Error handlers.ErrorBody `json:"error"`
	}
	decode(t, rec, &out)
	return out.Error
}

func TestLikeEndpoints(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")
	post := s.createPost(t, alice, "hello world")
	likePath := fmt.Sprintf("/api/v1/posts/%d/like", post.ID)

	rec := s.do(t, http.MethodPost, likePath, bob.token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var liked struct {
		Like      models.Like `json:"like"`
		LikeCount int64       `json:"like_count"`
	}
	decode(t, rec, &liked)
	assert.Equal(t, int64(1), liked.LikeCount)
	assert.Equal(t, bob.id, liked.Like.UserID)

	rec = s.do(t, http.MethodPost, likePath, bob.token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_relationship", errorOf(t, rec).Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d/likes", post.ID), bob.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		PostID    uint  `json:"post_id"`
		LikeCount int64 `json:"like_count"`
		IsLiked   bool  `json:"is_liked"`
	}
	decode(t, rec, &status)
	assert.Equal(t, post.ID, status.PostID)
	assert.Equal(t, int64(1), status.LikeCount)
	assert.True(t, status.IsLiked)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", post.ID), bob.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var seen models.PostResponse
	decode(t, rec, &seen)
	assert.True(t, seen.IsLiked)
	assert.Equal(t, int64(1), seen.LikeCount)

	rec = s.do(t, http.MethodDelete, likePath, alice.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorOf(t, rec).Code)

	rec = s.do(t, http.MethodDelete, likePath, bob.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var unliked struct {
		LikeCount int64 `json:"like_count"`
	}
	decode(t, rec, &unliked)
	assert.Zero(t, unliked.LikeCount)

	rec = s.do(t, http.MethodPost, "/api/v1/posts/9999/like", bob.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/posts/abc/like", bob.token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", errorOf(t, rec).Code)
}

func TestFollowEndpoints(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")

	rec := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", alice.id), alice.token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "self_reference", errorOf(t, rec).Code)

	followPath := fmt.Sprintf("/api/v1/users/%d/follow", bob.id)
	rec = s.do(t, http.MethodPost, followPath, alice.token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, followPath, alice.token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_relationship", errorOf(t, rec).Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", bob.id), alice.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile models.PublicProfile
	decode(t, rec, &profile)
	assert.True(t, profile.IsFollowing)
	assert.Equal(t, int64(1), profile.FollowersCount)

	rec = s.do(t, http.MethodDelete, followPath, alice.token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, followPath, alice.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/users/9999/follow", alice.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d/follow", alice.id), alice.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorOf(t, rec).Code)
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice")

	rec := s.do(t, http.MethodGet, "/api/v1/feed", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authentication_failed", errorOf(t, rec).Code)

	rec = s.do(t, http.MethodGet, "/api/v1/feed", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/signup", "", echo.Map{"username": "bob", "email": "nope", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := errorOf(t, rec)
	assert.Equal(t, "validation_error", body.Code)
	assert.Equal(t, "email", body.Details["email"])

	rec = s.do(t, http.MethodPost, "/api/v1/auth/signup", "", echo.Map{"username": "alice", "email": "other@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errorOf(t, rec).Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", echo.Map{"username": "alice@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", echo.Map{"username": "alice@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/password-reset", "", echo.Map{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/firebase-login", "", echo.Map{"idToken": "whatever"})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestPostOwnership(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")
	post := s.createPost(t, alice, "mine")
	path := fmt.Sprintf("/api/v1/posts/%d", post.ID)

	rec := s.do(t, http.MethodPut, path, bob.token, echo.Map{"content": "stolen"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "permission_denied", errorOf(t, rec).Code)

	rec = s.do(t, http.MethodPut, path, alice.token, echo.Map{"content": "edited"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, path+"/comments", bob.token, echo.Map{"content": "nice"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, path+"/comments", bob.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var comments struct {
		Comments []models.CommentResponse `json:"comments"`
	}
	decode(t, rec, &comments)
	require.Len(t, comments.Comments, 1)
	assert.Equal(t, "bob", comments.Comments[0].Author.Username)

	rec = s.do(t, http.MethodDelete, path, bob.token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, path, alice.token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDeleteProfileRecomputesCounters(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")
	post := s.createPost(t, alice, "hello")

	rec := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/like", post.ID), bob.token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/profile", bob.token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Zero(t, testutil.LikeCount(t, s.db, post.ID))

	rec = s.do(t, http.MethodGet, "/api/v1/feed", alice.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var feed struct {
		Posts []models.PostResponse `json:"posts"`
	}
	decode(t, rec, &feed)
	require.Len(t, feed.Posts, 1)
	assert.Zero(t, feed.Posts[0].LikeCount)

	rec = s.do(t, http.MethodGet, "/api/v1/activity", alice.token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
