package domain

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEntryNotFound        = errors.New("directory entry not found")
	ErrAccountNotRequested  = errors.New("user not found and account creation was not requested")
	ErrMissingToken         = errors.New("authentication required")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrStaleSignIn          = errors.New("recent sign-in required")
	ErrAdminRequired        = errors.New("admin privileges required")
	ErrInvalidRole          = errors.New("role must be one of: admin, user")
	ErrSelfDeletion         = errors.New("you cannot delete your own account")
	ErrEmailAlreadyExists   = errors.New("email already exists")
	ErrDirectoryWriteFailed = errors.New("directory write failed")
)
