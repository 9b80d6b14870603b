package services

import (
	"context"

	"github.com/anonto42/socialnet/backend/internal/models"
	"github.com/anonto42/socialnet/backend/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EngagementService owns the like and follow writes. Each write is a single
// transaction: the relationship row and the post counter commit together.
type EngagementService struct {
	db       *gorm.DB
	likes    repositories.LikeRepository
	follows  repositories.FollowRepository
	posts    repositories.PostRepository
	users    repositories.UserRepository
	counter  *LikeCounter
	activity repositories.ActivityRepository
	logger   *zap.Logger
}

func NewEngagementService(
	db *gorm.DB,
	likes repositories.LikeRepository,
	follows repositories.FollowRepository,
	posts repositories.PostRepository,
	users repositories.UserRepository,
	counter *LikeCounter,
	activity repositories.ActivityRepository,
	logger *zap.Logger,
) *EngagementService {
	return &EngagementService{
		db:       db,
		likes:    likes,
		follows:  follows,
		posts:    posts,
		users:    users,
		counter:  counter,
		activity: activity,
		logger:   logger,
	}
}

// LikePost records a like of userID on postID and returns it with the new like count.
func (s *EngagementService) LikePost(ctx context.Context, userID, postID uint) (*models.Like, int64, error) {
	like := &models.Like{UserID: userID, PostID: postID}
	var count int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.posts.WithTx(tx).LockPostForUpdate(ctx, postID); err != nil {
			return err
		}
		if err := s.likes.WithTx(tx).CreateLike(ctx, like); err != nil {
			return err
		}
		n, err := s.counter.Recompute(ctx, tx, postID)
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	s.record(ctx, userID, models.ActivityLike, "post", postID)
	return like, count, nil
}

// UnlikePost removes the like of userID on postID and returns the new like count.
func (s *EngagementService) UnlikePost(ctx context.Context, userID, postID uint) (int64, error) {
	var count int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.posts.WithTx(tx).LockPostForUpdate(ctx, postID); err != nil {
			return err
		}
		if err := s.likes.WithTx(tx).DeleteLike(ctx, postID, userID); err != nil {
			return err
		}
		n, err := s.counter.Recompute(ctx, tx, postID)
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.record(ctx, userID, models.ActivityUnlike, "post", postID)
	return count, nil
}

// LikeStatus returns the like count of a post and whether userID likes it.
func (s *EngagementService) LikeStatus(ctx context.Context, userID, postID uint) (int64, bool, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return 0, false, err
	}
	liked, err := s.likes.HasUserLikedPost(ctx, postID, userID)
	if err != nil {
		return 0, false, err
	}
	return post.LikeCount, liked, nil
}

// FollowUser makes followerID follow followedID.
func (s *EngagementService) FollowUser(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
	if followerID == followedID {
		return nil, repositories.ErrSelfReference
	}
	follow := &models.Follow{FollowerID: followerID, FollowedID: followedID}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.users.WithTx(tx).GetUserByID(ctx, followedID); err != nil {
			return err
		}
		return s.follows.WithTx(tx).CreateFollow(ctx, follow)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, followerID, models.ActivityFollow, "user", followedID)
	return follow, nil
}

// UnfollowUser removes the follow of followerID on followedID. A self follow
// never exists, so unfollowing oneself is ErrNotFound like any absent follow.
func (s *EngagementService) UnfollowUser(ctx context.Context, followerID, followedID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.follows.WithTx(tx).DeleteFollow(ctx, followerID, followedID)
	})
	if err != nil {
		return err
	}

	s.record(ctx, followerID, models.ActivityUnfollow, "user", followedID)
	return nil
}

// record appends to the activity trail after commit. Failures are logged only.
func (s *EngagementService) record(ctx context.Context, actorID uint, verb, targetType string, targetID uint) {
	recordActivity(ctx, s.activity, s.logger, actorID, verb, targetType, targetID)
}

func recordActivity(ctx context.Context, repo repositories.ActivityRepository, logger *zap.Logger, actorID uint, verb, targetType string, targetID uint) {
	if repo == nil {
		return
	}
	activity := &models.Activity{
		ActorID:    actorID,
		Verb:       verb,
		TargetType: targetType,
		TargetID:   targetID,
	}
	if err := repo.Record(ctx, activity); err != nil {
		logger.Warn("failed to record activity",
			zap.Uint("actor_id", actorID),
			zap.String("verb", verb),
			zap.Error(err),
		)
	}
}
