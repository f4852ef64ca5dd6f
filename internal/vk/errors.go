package vk

import (
	"errors"
	"fmt"
)

// Platform error codes the bot reacts to.
const (
	CodeMethodUnavailable = 27
	CodeUserBlocked       = 901
	CodeChatBotDisabled   = 912
	CodeNoChatAccess      = 917
)

// ErrLongPollKeyExpired is returned by a long poll check that needs a new key.
var ErrLongPollKeyExpired = errors.New("long poll key expired")

// APIError is a failure reported by the platform.
type APIError struct {
	Method  string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vk %s: error %d: %s", e.Method, e.Code, e.Message)
}

// ErrorCode returns the platform error code.
func (e *APIError) ErrorCode() int {
	return e.Code
}
