package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("internal server error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("your requested item is not found")
	// ErrConflict will throw if the current action already exists
	ErrConflict = errors.New("your item already exist")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("given param is not valid")

	// ErrAlreadyThumbed will throw if the user already thumbed the blog
	ErrAlreadyThumbed = errors.New("already thumbed")
	// ErrNotThumbed will throw if the user has not thumbed the blog yet
	ErrNotThumbed = errors.New("not thumbed yet")
	// ErrUnavailable will throw if the cache or the broker is transiently
	// unreachable; the caller may retry
	ErrUnavailable = errors.New("service temporarily unavailable")
	// ErrNoPermission will throw if the user operates a resource owned by others
	ErrNoPermission = errors.New("no permission")
	// ErrOffline will throw when pushing to a user without a live connection
	ErrOffline = errors.New("user is offline")
)
