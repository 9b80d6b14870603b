package models

import "time"

// Follow is a directed follower -> followed relationship.
// The pair is unique and a user can never follow themselves.
type Follow struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	FollowerID uint      `json:"follower_id" gorm:"not null;uniqueIndex:idx_follower_followed;check:chk_follows_not_self,follower_id <> followed_id"`
	FollowedID uint      `json:"followed_id" gorm:"not null;uniqueIndex:idx_follower_followed;index"`
	CreatedAt  time.Time `json:"created_at"`

	Follower User `json:"-" gorm:"foreignKey:FollowerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Followed User `json:"-" gorm:"foreignKey:FollowedID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
