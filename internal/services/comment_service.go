package services

import (
	"context"

	"github.com/anonto42/socialnet/backend/internal/models"
	"github.com/anonto42/socialnet/backend/internal/repositories"
	"go.uber.org/zap"
)

type CommentService struct {
	comments repositories.CommentRepository
	posts    repositories.PostRepository
	activity repositories.ActivityRepository
	logger   *zap.Logger
}

func NewCommentService(comments repositories.CommentRepository, posts repositories.PostRepository, activity repositories.ActivityRepository, logger *zap.Logger) *CommentService {
	return &CommentService{comments: comments, posts: posts, activity: activity, logger: logger}
}

func (s *CommentService) CreateComment(ctx context.Context, userID, postID uint, req *models.CreateCommentRequest) (*models.CommentResponse, error) {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}
	comment := &models.Comment{UserID: userID, PostID: postID, Content: req.Content}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, s.logger, userID, models.ActivityComment, "post", postID)
	return s.getComment(ctx, comment.ID)
}

func (s *CommentService) ListComments(ctx context.Context, postID uint, limit, offset int) ([]models.CommentResponse, error) {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.comments.GetCommentsByPostID(ctx, postID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]models.CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, models.NewCommentResponse(&comments[i]))
	}
	return out, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, userID, commentID uint, req *models.UpdateCommentRequest) (*models.CommentResponse, error) {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, ErrForbidden
	}
	comment.Content = req.Content
	if err := s.comments.UpdateComment(ctx, comment); err != nil {
		return nil, err
	}
	return s.getComment(ctx, commentID)
}

func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return ErrForbidden
	}
	return s.comments.DeleteComment(ctx, commentID)
}

func (s *CommentService) getComment(ctx context.Context, id uint) (*models.CommentResponse, error) {
	comment, err := s.comments.GetCommentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := models.NewCommentResponse(comment)
	return &resp, nil
}
