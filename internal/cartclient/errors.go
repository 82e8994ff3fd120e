package cartclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrBusy は別の変更が実行中
	ErrBusy = errors.New("cartclient: another cart mutation is in flight")
	// ErrItemBusy はその明細を更新中
	ErrItemBusy        = errors.New("cartclient: cart item is already updating")
	ErrNotInitialized  = errors.New("cartclient: client is not initialized")
	ErrInvalidQuantity = errors.New("cartclient: quantity must be between 1 and 99")
	ErrEmptyCart       = errors.New("cartclient: cart is empty")
)

// APIError はサーバーが返したエラーボディ
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// TransientError は通信失敗やタイムアウト。再試行してよい。
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// 502/503/504 はサーバー側の一時的な失敗として扱う
func transientStatus(status int) bool {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
