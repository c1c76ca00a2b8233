package errors

import (
	"errors"
	"fmt"
)

// Common error values shared across the client packages
var (
	// Credential errors
	ErrIncompleteTokenPair = errors.New("access and refresh token must be stored together")
	ErrRefreshFailed       = errors.New("token refresh failed")
	ErrNotAuthenticated    = errors.New("not authenticated")

	// Identity errors
	ErrNoIdentity    = errors.New("no identity in token claims")
	ErrUserNotLoaded = errors.New("user not loaded")

	// Storage errors
	ErrUnknownStoreBackend = errors.New("unknown token store backend")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
