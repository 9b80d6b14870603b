package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is an account. Deleting a user cascades to their posts, likes, follows and comments.
type User struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	Username          string     `json:"username" gorm:"size:150;not null;uniqueIndex"`
	Email             string     `json:"email" gorm:"size:254;not null;uniqueIndex"`
	Password          string     `json:"-"` // bcrypt hash
	FirstName         string     `json:"first_name" gorm:"size:150"`
	LastName          string     `json:"last_name" gorm:"size:150"`
	Bio               string     `json:"bio" gorm:"size:500"`
	Location          string     `json:"location" gorm:"size:100"`
	Website           string     `json:"website"`
	BirthDate         *time.Time `json:"birth_date,omitempty" gorm:"type:date"`
	ProfilePictureURL string     `json:"profile_picture_url,omitempty"`
	FirebaseUID       *string    `json:"-" gorm:"size:128;uniqueIndex"` // nil for local accounts
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// UserCompact is the public, embeddable view of a user.
type UserCompact struct {
	ID                uint   `json:"id"`
	Username          string `json:"username"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:                u.ID,
		Username:          u.Username,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		ProfilePictureURL: u.ProfilePictureURL,
	}
}

// PublicProfile is what other users see.
type PublicProfile struct {
	UserCompact
	Bio            string     `json:"bio"`
	Location       string     `json:"location"`
	Website        string     `json:"website"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	FollowersCount int64      `json:"followers_count"`
	FollowingCount int64      `json:"following_count"`
	IsFollowing    bool       `json:"is_following"`
	CreatedAt      time.Time  `json:"created_at"`
}

type SignupRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

// LoginRequest accepts a username or an email in Username.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	FirstName         *string `json:"first_name" validate:"omitempty,max=150"`
	LastName          *string `json:"last_name" validate:"omitempty,max=150"`
	Email             *string `json:"email" validate:"omitempty,email"`
	Bio               *string `json:"bio" validate:"omitempty,max=500"`
	Location          *string `json:"location" validate:"omitempty,max=100"`
	Website           *string `json:"website" validate:"omitempty,url"`
	BirthDate         *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	ProfilePictureURL *string `json:"profile_picture_url" validate:"omitempty,url"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
