// api/errors/user_errors.go
package errors

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidUserData = errors.New("invalid user data")

	ErrUserCacheInvalidation = errors.New("user cache invalidation failed")
)
