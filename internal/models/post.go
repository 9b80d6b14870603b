package models

import "time"

// Post is owned by its author and removed with them.
// LikeCount is denormalized and always equals the number of Like rows for the post.
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	User      User      `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	ImageURL  *string   `json:"image_url"`
	LikeCount int64     `json:"like_count" gorm:"not null;default:0;check:chk_posts_like_count,like_count >= 0"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostResponse is the representation returned to clients. IsLiked is computed for the caller.
type PostResponse struct {
	ID           uint        `json:"id"`
	Author       UserCompact `json:"author"`
	Content      string      `json:"content"`
	ImageURL     *string     `json:"image_url"`
	LikeCount    int64       `json:"like_count"`
	CommentCount int64       `json:"comment_count"`
	IsLiked      bool        `json:"is_liked"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func NewPostResponse(p *Post, commentCount int64, isLiked bool) PostResponse {
	return PostResponse{
		ID:           p.ID,
		Author:       p.User.ToCompact(),
		Content:      p.Content,
		ImageURL:     p.ImageURL,
		LikeCount:    p.LikeCount,
		CommentCount: commentCount,
		IsLiked:      isLiked,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content  string  `json:"content" validate:"required,min=1,max=5000"`
	ImageURL *string `json:"image_url" validate:"omitempty,url"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Content  *string `json:"content" validate:"omitempty,min=1,max=5000"`
	ImageURL *string `json:"image_url" validate:"omitempty,url"`
}
