package service

import "errors"

// Domain errors for auth flows.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidPassword    = errors.New("current password is incorrect")
	ErrPasswordMismatch   = errors.New("new password and confirmation do not match")
	ErrPasswordTooShort   = errors.New("new password is too short")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
)

// Session errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Catalog errors.
var (
	ErrInvalidProduct     = errors.New("invalid product: name and a non-negative price are required")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is already owned")
	ErrNotOwner           = errors.New("product is owned by another user")
)
