package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrTransport marks network and HTTP failures talking to the platform.
	ErrTransport = errors.New("transport failure")
	// ErrMalformedData marks payloads that could not be decoded.
	ErrMalformedData = errors.New("malformed leaderboard data")
	ErrViewDestroyed = errors.New("leaderboard view destroyed")
)
