package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed     = fmt.Errorf("authentication failed")
	ErrRefreshFailed  = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken = fmt.Errorf("no refresh token available")

	// API errors
	ErrAPIRequest = fmt.Errorf("API request failed")

	// Tool argument errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ErrorKind tags an [Error] with one of the closed set of failure categories.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuthorization
	KindRemoteAPI
	KindConfiguration
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthorization:
		return "AuthorizationError"
	case KindRemoteAPI:
		return "RemoteApiError"
	case KindConfiguration:
		return "ConfigurationError"
	default:
		return "UnknownError"
	}
}

// sentinel maps a kind onto the package-level error it satisfies under [errors.Is].
func (k ErrorKind) sentinel() error {
	switch k {
	case KindAuthorization:
		return ErrAuthFailed
	case KindRemoteAPI:
		return ErrAPIRequest
	case KindConfiguration:
		return ErrMissingConfig
	default:
		return nil
	}
}

// Error is the domain error carried across component boundaries.
//
// StatusCode is the remote HTTP status when one was received, zero otherwise.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// AuthorizationError reports an OAuth flow failure. cause may be nil.
func AuthorizationError(message string, cause error) *Error {
	if cause != nil {
		message = fmt.Sprintf("%s: %v", message, cause)
	}
	return &Error{Kind: KindAuthorization, Message: message, Err: cause}
}

// RemoteAPIError reports a failed remote call, prefixed with the operation name.
func RemoteAPIError(op string, status int, cause error) *Error {
	message := op
	if cause != nil {
		message = fmt.Sprintf("%s: %v", op, cause)
	}
	return &Error{Kind: KindRemoteAPI, Message: message, StatusCode: status, Err: cause}
}

// ConfigurationError reports a missing or invalid configuration value.
func ConfigurationError(message string) *Error {
	return &Error{Kind: KindConfiguration, Message: message}
}

// KindOf returns the [ErrorKind] of the first [*Error] in err's chain, or [KindUnknown].
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusCode returns the remote status code carried by err, or zero.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
