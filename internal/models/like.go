package models

import "time"

// Like represents a like on a post. At most one per (user, post).
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_likes_user_post"`
	PostID    uint      `json:"post_id" gorm:"not null;uniqueIndex:idx_likes_user_post;index"`
	CreatedAt time.Time `json:"created_at"`

	User User `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Post Post `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
