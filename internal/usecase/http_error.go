package usecase

import (
	"errors"
	"net/http"
)

// handlerでそのままステータスに変換するエラー
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func NewHTTPError(status int, msg string) *HTTPError {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &HTTPError{Status: status, Message: msg}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}
