package sync

import "errors"

var (
	ErrNotAuthenticated = errors.New("sync requires an authenticated identity")
	ErrOffline          = errors.New("sync unavailable while offline")
	ErrInvalidPayload   = errors.New("local cart payload is invalid")
)
