package domain

import "errors"

var (
	ErrNotAuthenticated  = errors.New("please authenticate first")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExpired    = errors.New("session expired")
	ErrProfileNotFound   = errors.New("configuration file not found")
	ErrInvalidProtocol   = errors.New("invalid protocol")
	ErrInvalidQuality    = errors.New("invalid quality")
	ErrInvalidStreamType = errors.New("invalid stream type")
)
