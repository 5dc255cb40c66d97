package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found on server")
	ErrUnauthorized = errors.New("not authorized")
	ErrUnavailable  = errors.New("server unavailable")
	ErrServer       = errors.New("server error")
)

// StatusError - неуспешный ответ сервера; сводится к одной из сигнальных ошибок
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded with %d", e.Code)
	}
	return fmt.Sprintf("server responded with %d: %s", e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return ErrServer
	}
}
