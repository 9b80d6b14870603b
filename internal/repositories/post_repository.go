package repositories

import (
	"context"

	"github.com/anonto42/socialnet/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	WithTx(tx *gorm.DB) PostRepository
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	GetPostsByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error)
	GetPostsByUserIDs(ctx context.Context, userIDs []uint, limit, offset int) ([]models.Post, error)
	GetAllPosts(ctx context.Context, limit, offset int) ([]models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id uint) error
	LockPostForUpdate(ctx context.Context, id uint) (*models.Post, error)
	LockPostsForUpdate(ctx context.Context, ids []uint) ([]uint, error)
	SetLikeCount(ctx context.Context, id uint, count int64) error
	GetPostIDsAfter(ctx context.Context, afterID uint, limit int) ([]uint, error)
}

// PostgresPostRepository implements PostRepository on any gorm dialect
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

func (r *PostgresPostRepository) WithTx(tx *gorm.DB) PostRepository {
	return &PostgresPostRepository{db: tx}
}

// CreatePost creates a new post. like_count always starts at zero.
func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.LikeCount = 0
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return translate(err, ErrAlreadyExists)
	}
	return nil
}

// GetPostByID retrieves a post and its author
func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		return nil, translate(err, ErrAlreadyExists)
	}
	return &post, nil
}

// GetPostsByUserID retrieves posts by a specific user, newest first
func (r *PostgresPostRepository) GetPostsByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error) {
	return r.GetPostsByUserIDs(ctx, []uint{userID}, limit, offset)
}

// GetPostsByUserIDs retrieves posts authored by any of userIDs, newest first
func (r *PostgresPostRepository) GetPostsByUserIDs(ctx context.Context, userIDs []uint, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	if len(userIDs) == 0 {
		return posts, nil
	}
	err := r.db.WithContext(ctx).Preload("User").
		Where("user_id IN ?", userIDs).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	return posts, err
}

// GetAllPosts retrieves all posts with pagination, newest first
func (r *PostgresPostRepository) GetAllPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).Preload("User").
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	return posts, err
}

// UpdatePost writes the editable columns only, leaving like_count to the counter.
func (r *PostgresPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(&models.Post{ID: post.ID}).
		Select("content", "image_url", "updated_at").
		Updates(post)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost deletes a post. Its likes and comments go with it.
func (r *PostgresPostRepository) DeletePost(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LockPostForUpdate loads a post holding its row lock until the transaction ends.
func (r *PostgresPostRepository) LockPostForUpdate(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&post, id).Error
	if err != nil {
		return nil, translate(err, ErrAlreadyExists)
	}
	return &post, nil
}

// LockPostsForUpdate locks every existing post of ids in ascending id order
// and returns the ids that still exist.
func (r *PostgresPostRepository) LockPostsForUpdate(ctx context.Context, ids []uint) ([]uint, error) {
	var locked []uint
	if len(ids) == 0 {
		return locked, nil
	}
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Pluck("id", &locked).Error
	return locked, err
}

// SetLikeCount overwrites the stored like_count of a post
func (r *PostgresPostRepository) SetLikeCount(ctx context.Context, id uint, count int64) error {
	return r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("like_count", count).Error
}

// GetPostIDsAfter pages through post ids in ascending order
func (r *PostgresPostRepository) GetPostIDsAfter(ctx context.Context, afterID uint, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
