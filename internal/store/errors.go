package store

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrPcNotFound          = errors.New("pc not found")
	ErrPcBusy              = errors.New("pc already in session")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionCompleted    = errors.New("session already completed")
	ErrAuthSessionNotFound = errors.New("auth session not found")
)
