package cart

import "errors"

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrItemNotFound     = errors.New("cart item not found")
	ErrCartConflict     = errors.New("active cart already exists")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrCacheMiss        = errors.New("cache miss")
)
