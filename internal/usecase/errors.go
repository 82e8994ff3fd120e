package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	repo "storefront/internal/repository"
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeIntegrity  = "INTEGRITY_ERROR"
	CodeTimeout    = "TIMEOUT"
	CodeInternal   = "INTERNAL_ERROR"
)

// HTTPError はusecaseが返すエラー。handlerはこれをそのままJSONにする。
type HTTPError struct {
	Status  int
	Code    string
	Message string
	// ログ用の元エラー（レスポンスには出さない）
	Err error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %s: %v", e.Status, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    codeForStatus(status),
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeIntegrity
	case http.StatusServiceUnavailable:
		return CodeTimeout
	default:
		return CodeInternal
	}
}

func validationError(message string) error {
	return NewHTTPError(http.StatusBadRequest, message)
}

func notFoundError(message string) error {
	return NewHTTPError(http.StatusNotFound, message)
}

// 存在しない商品を参照している明細
func integrityError(message string) error {
	return &HTTPError{Status: http.StatusConflict, Code: CodeIntegrity, Message: message, Err: repo.ErrIntegrity}
}

// storeError はストア起因のエラーを変換する。タイムアウト/キャンセルは503。
func storeError(err error) error {
	if he, ok := AsHTTPError(err); ok {
		return he
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &HTTPError{Status: http.StatusServiceUnavailable, Code: CodeTimeout, Message: "request timed out", Err: err}
	}
	return &HTTPError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "db error", Err: err}
}
