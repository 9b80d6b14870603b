package services

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("not allowed to modify this resource")
	ErrFirebaseDisabled   = errors.New("firebase authentication is not configured")
)
