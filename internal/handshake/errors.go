package handshake

import "errors"

var (
	// ErrAlreadyStarted is returned when Start is called on a used controller.
	ErrAlreadyStarted = errors.New("handshake already started")
	// ErrAbandoned is reported by Wait after the attempt was given up.
	ErrAbandoned = errors.New("handshake abandoned")
)

// ErrorCode is the reason reported by the secondary context on failure.
type ErrorCode string

const (
	CodeAuthDenied          ErrorCode = "access_denied"
	CodeNoAuthorizationCode ErrorCode = "no_code"
	CodeNoCredentials       ErrorCode = "no_credentials"
	CodeCallbackError       ErrorCode = "callback_error"
)

// Message returns the fixed user-facing text for the code.
func (c ErrorCode) Message() string {
	switch c {
	case CodeAuthDenied:
		return "Sign-in was cancelled or access was denied."
	case CodeNoAuthorizationCode:
		return "No authorization code was received from Google. Please try again."
	case CodeNoCredentials:
		return "Could not obtain credentials from Google. Please try again."
	case CodeCallbackError:
		return "Something went wrong while completing sign-in. Please try again."
	default:
		return "Sign-in failed. Please try again."
	}
}
