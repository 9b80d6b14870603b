package services

import (
	"context"
	"testing"

	"github.com/anonto42/socialnet/backend/internal/models"
	"github.com/anonto42/socialnet/backend/internal/repositories"
	"github.com/anonto42/socialnet/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAccountService(f *engagementFixture) *AccountService {
	return NewAccountService(
		f.db,
		repositories.NewPostgresUserRepository(f.db),
		repositories.NewPostgresFollowRepository(f.db),
		f.likes,
		f.counter,
		zap.NewNop(),
	)
}

func TestDeleteAccountRecomputesLikedPosts(t *testing.T) {
	f := newEngagementFixture(t)
	accounts := newAccountService(f)
	ctx := context.Background()

	author := testutil.CreateUser(t, f.db, "author")
	alice := testutil.CreateUser(t, f.db, "alice")
	bob := testutil.CreateUser(t, f.db, "bob")
	post := testutil.CreatePost(t, f.db, author, "hello")
	own := testutil.CreatePost(t, f.db, alice, "mine")

	_, _, err := f.engagement.LikePost(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	_, _, err = f.engagement.LikePost(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	_, _, err = f.engagement.LikePost(ctx, alice.ID, own.ID)
	require.NoError(t, err)
	_, err = f.engagement.FollowUser(ctx, alice.ID, author.ID)
	require.NoError(t, err)
	_, err = f.engagement.FollowUser(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	require.NoError(t, accounts.DeleteAccount(ctx, alice.ID))

	assert.Equal(t, int64(1), testutil.LikeCount(t, f.db, post.ID))
	assert.Equal(t, int64(1), testutil.CountRows(t, f.db, &models.Like{}, "post_id = ?", post.ID))
	assert.Zero(t, testutil.CountRows(t, f.db, &models.Post{}, "id = ?", own.ID))
	assert.Zero(t, testutil.CountRows(t, f.db, &models.Follow{}, ""))
	assert.Zero(t, testutil.CountRows(t, f.db, &models.User{}, "id = ?", alice.ID))

	err = accounts.DeleteAccount(ctx, alice.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

type callLog struct {
	calls []string
}

func (l *callLog) add(name string) { l.calls = append(l.calls, name) }

func (l *callLog) index(name string) int {
	for i, c := range l.calls {
		if c == name {
			return i
		}
	}
	return -1
}

type loggedUsers struct {
	repositories.UserRepository
	log *callLog
}

func (r loggedUsers) WithTx(tx *gorm.DB) repositories.UserRepository {
	return loggedUsers{UserRepository: r.UserRepository.WithTx(tx), log: r.log}
}

func (r loggedUsers) LockUserForUpdate(ctx context.Context, id uint) (*models.User, error) {
	r.log.add("LockUserForUpdate")
	return r.UserRepository.LockUserForUpdate(ctx, id)
}

func (r loggedUsers) DeleteUser(ctx context.Context, id uint) error {
	r.log.add("DeleteUser")
	return r.UserRepository.DeleteUser(ctx, id)
}

type loggedLikes struct {
	repositories.LikeRepository
	log *callLog
}

func (r loggedLikes) WithTx(tx *gorm.DB) repositories.LikeRepository {
	return loggedLikes{LikeRepository: r.LikeRepository.WithTx(tx), log: r.log}
}

func (r loggedLikes) GetPostIDsLikedByUser(ctx context.Context, userID uint) ([]uint, error) {
	r.log.add("GetPostIDsLikedByUser")
	return r.LikeRepository.GetPostIDsLikedByUser(ctx, userID)
}

func (r loggedLikes) CountByPostID(ctx context.Context, postID uint) (int64, error) {
	r.log.add("CountByPostID")
	return r.LikeRepository.CountByPostID(ctx, postID)
}

type loggedPosts struct {
	repositories.PostRepository
	log *callLog
}

func (r loggedPosts) WithTx(tx *gorm.DB) repositories.PostRepository {
	return loggedPosts{PostRepository: r.PostRepository.WithTx(tx), log: r.log}
}

func (r loggedPosts) LockPostsForUpdate(ctx context.Context, ids []uint) ([]uint, error) {
	r.log.add("LockPostsForUpdate")
	return r.PostRepository.LockPostsForUpdate(ctx, ids)
}

// Counting in DeleteAccount must come after every lock it takes, with nothing
// but locking reads before it.
func TestDeleteAccountLocksBeforeCounting(t *testing.T) {
	f := newEngagementFixture(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, f.db, "author")
	alice := testutil.CreateUser(t, f.db, "alice")
	bob := testutil.CreateUser(t, f.db, "bob")
	post := testutil.CreatePost(t, f.db, author, "hello")
	_, _, err := f.engagement.LikePost(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	_, _, err = f.engagement.LikePost(ctx, bob.ID, post.ID)
	require.NoError(t, err)

	log := &callLog{}
	likes := loggedLikes{LikeRepository: repositories.NewPostgresLikeRepository(f.db), log: log}
	posts := loggedPosts{PostRepository: repositories.NewPostgresPostRepository(f.db), log: log}
	users := loggedUsers{UserRepository: repositories.NewPostgresUserRepository(f.db), log: log}
	counter := NewLikeCounter(f.db, likes, posts, 3, 10, zap.NewNop())
	accounts := NewAccountService(f.db, users, repositories.NewPostgresFollowRepository(f.db), likes, counter, zap.NewNop())

	require.NoError(t, accounts.DeleteAccount(ctx, alice.ID))

	assert.Equal(t, []string{
		"GetPostIDsLikedByUser",
		"LockPostsForUpdate",
		"LockUserForUpdate",
		"GetPostIDsLikedByUser",
		"DeleteUser",
	}, log.calls[:5])
	assert.Greater(t, log.index("CountByPostID"), log.index("DeleteUser"))
	assert.Equal(t, int64(1), testutil.LikeCount(t, f.db, post.ID))
}

func TestPublicProfile(t *testing.T) {
	f := newEngagementFixture(t)
	accounts := newAccountService(f)
	ctx := context.Background()

	alice := testutil.CreateUser(t, f.db, "alice")
	bob := testutil.CreateUser(t, f.db, "bob")
	carol := testutil.CreateUser(t, f.db, "carol")

	_, err := f.engagement.FollowUser(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = f.engagement.FollowUser(ctx, carol.ID, bob.ID)
	require.NoError(t, err)
	_, err = f.engagement.FollowUser(ctx, bob.ID, carol.ID)
	require.NoError(t, err)

	profile, err := accounts.GetPublicProfile(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", profile.Username)
	assert.Equal(t, int64(2), profile.FollowersCount)
	assert.Equal(t, int64(1), profile.FollowingCount)
	assert.True(t, profile.IsFollowing)

	followers, err := accounts.Followers(ctx, bob.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	assert.Equal(t, "alice", followers[0].Username)

	_, err = accounts.Following(ctx, 404, 10, 0)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	f := newEngagementFixture(t)
	accounts := newAccountService(f)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")
	testutil.CreateUser(t, f.db, "bob")

	bio := "hello there"
	birth := "1990-04-01"
	user, err := accounts.UpdateProfile(ctx, alice.ID, &models.UpdateProfileRequest{Bio: &bio, BirthDate: &birth})
	require.NoError(t, err)
	assert.Equal(t, bio, user.Bio)
	require.NotNil(t, user.BirthDate)
	assert.Equal(t, 1990, user.BirthDate.Year())

	taken := "BOB@example.com"
	_, err = accounts.UpdateProfile(ctx, alice.ID, &models.UpdateProfileRequest{Email: &taken})
	assert.ErrorIs(t, err, repositories.ErrAlreadyExists)

	found, err := accounts.SearchUsers(ctx, "ALI", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, alice.ID, found[0].ID)
}
