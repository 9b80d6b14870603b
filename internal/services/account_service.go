package services

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/socialnet/backend/internal/models"
	"github.com/anonto42/socialnet/backend/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AccountService handles profiles, the social graph views and account removal.
type AccountService struct {
	db      *gorm.DB
	users   repositories.UserRepository
	follows repositories.FollowRepository
	likes   repositories.LikeRepository
	counter *LikeCounter
	logger  *zap.Logger
}

func NewAccountService(
	db *gorm.DB,
	users repositories.UserRepository,
	follows repositories.FollowRepository,
	likes repositories.LikeRepository,
	counter *LikeCounter,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		db:      db,
		users:   users,
		follows: follows,
		likes:   likes,
		counter: counter,
		logger:  logger,
	}
}

func (s *AccountService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// GetPublicProfile returns the profile of userID as seen by viewerID
func (s *AccountService) GetPublicProfile(ctx context.Context, viewerID, userID uint) (*models.PublicProfile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, err := s.follows.GetFollowersCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.GetFollowingCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	isFollowing := false
	if viewerID != userID {
		if isFollowing, err = s.follows.IsFollowing(ctx, viewerID, userID); err != nil {
			return nil, err
		}
	}

	return &models.PublicProfile{
		UserCompact:    user.ToCompact(),
		Bio:            user.Bio,
		Location:       user.Location,
		Website:        user.Website,
		BirthDate:      user.BirthDate,
		FollowersCount: followers,
		FollowingCount: following,
		IsFollowing:    isFollowing,
		CreatedAt:      user.CreatedAt,
	}, nil
}

// UpdateProfile applies the fields present in req
func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, req *models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Email != nil {
		user.Email = strings.ToLower(*req.Email)
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Location != nil {
		user.Location = *req.Location
	}
	if req.Website != nil {
		user.Website = *req.Website
	}
	if req.ProfilePictureURL != nil {
		user.ProfilePictureURL = *req.ProfilePictureURL
	}
	if req.BirthDate != nil {
		// format already checked by the validator
		birth, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			return nil, err
		}
		user.BirthDate = &birth
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) SearchUsers(ctx context.Context, query string, limit int) ([]models.UserCompact, error) {
	users, err := s.users.SearchUsers(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return compact(users), nil
}

func (s *AccountService) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.UserCompact, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.follows.GetFollowers(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return compact(users), nil
}

func (s *AccountService) Following(ctx context.Context, userID uint, limit, offset int) ([]models.UserCompact, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.follows.GetFollowing(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return compact(users), nil
}

// DeleteAccount removes a user and everything they own. Their likes on other
// users' posts disappear with them, so those counters are recomputed in the
// same transaction. Inside it every read before the recompute is a locking
// read: the liked posts are locked first, then the user, whose lock holds back
// new likes, and the liked set is read again under both.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uint) error {
	liked, err := s.likes.GetPostIDsLikedByUser(ctx, userID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.counter.LockPosts(ctx, tx, liked); err != nil {
			return err
		}
		if _, err := s.users.WithTx(tx).LockUserForUpdate(ctx, userID); err != nil {
			return err
		}
		current, err := s.likes.WithTx(tx).GetPostIDsLikedByUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.users.WithTx(tx).DeleteUser(ctx, userID); err != nil {
			return err
		}
		return s.counter.RecomputeMany(ctx, tx, current)
	})
	if err != nil {
		return err
	}

	s.logger.Info("account deleted", zap.Uint("user_id", userID))
	return nil
}

func compact(users []models.User) []models.UserCompact {
	out := make([]models.UserCompact, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToCompact())
	}
	return out
}
