package services

import (
	"context"

	"github.com/anonto42/socialnet/backend/internal/models"
	"github.com/anonto42/socialnet/backend/internal/repositories"
	"go.uber.org/zap"
)

// PostService handles post CRUD and builds post responses for a viewer.
type PostService struct {
	posts    repositories.PostRepository
	likes    repositories.LikeRepository
	comments repositories.CommentRepository
	follows  repositories.FollowRepository
	users    repositories.UserRepository
	activity repositories.ActivityRepository
	logger   *zap.Logger
}

func NewPostService(
	posts repositories.PostRepository,
	likes repositories.LikeRepository,
	comments repositories.CommentRepository,
	follows repositories.FollowRepository,
	users repositories.UserRepository,
	activity repositories.ActivityRepository,
	logger *zap.Logger,
) *PostService {
	return &PostService{
		posts:    posts,
		likes:    likes,
		comments: comments,
		follows:  follows,
		users:    users,
		activity: activity,
		logger:   logger,
	}
}

func (s *PostService) CreatePost(ctx context.Context, userID uint, req *models.CreatePostRequest) (*models.PostResponse, error) {
	post := &models.Post{
		UserID:   userID,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, s.logger, userID, models.ActivityPost, "post", post.ID)
	return s.GetPost(ctx, userID, post.ID)
}

// GetPost returns a post with is_liked computed for viewerID
func (s *PostService) GetPost(ctx context.Context, viewerID, postID uint) (*models.PostResponse, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	out, err := s.Present(ctx, viewerID, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *PostService) ListPosts(ctx context.Context, viewerID uint, limit, offset int) ([]models.PostResponse, error) {
	posts, err := s.posts.GetAllPosts(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.Present(ctx, viewerID, posts)
}

func (s *PostService) ListUserPosts(ctx context.Context, viewerID, authorID uint, limit, offset int) ([]models.PostResponse, error) {
	if _, err := s.users.GetUserByID(ctx, authorID); err != nil {
		return nil, err
	}
	posts, err := s.posts.GetPostsByUserID(ctx, authorID, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.Present(ctx, viewerID, posts)
}

// Feed returns posts of the users viewerID follows plus their own, newest first.
func (s *PostService) Feed(ctx context.Context, viewerID uint, limit, offset int) ([]models.PostResponse, error) {
	ids, err := s.follows.GetFollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	ids = append(ids, viewerID)

	posts, err := s.posts.GetPostsByUserIDs(ctx, ids, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.Present(ctx, viewerID, posts)
}

func (s *PostService) UpdatePost(ctx context.Context, userID, postID uint, req *models.UpdatePostRequest) (*models.PostResponse, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, ErrForbidden
	}

	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.ImageURL != nil {
		post.ImageURL = req.ImageURL
	}
	if err := s.posts.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, userID, postID)
}

func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return ErrForbidden
	}
	return s.posts.DeletePost(ctx, postID)
}

// Present converts posts to responses, batching the is_liked and comment count lookups.
func (s *PostService) Present(ctx context.Context, viewerID uint, posts []models.Post) ([]models.PostResponse, error) {
	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	liked, err := s.likes.GetLikedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.CountByPostIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.PostResponse, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		out = append(out, models.NewPostResponse(p, comments[p.ID], liked[p.ID]))
	}
	return out, nil
}
