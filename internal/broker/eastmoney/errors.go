// Package eastmoney provides a client for the Eastmoney web trading portal.
package eastmoney

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoggedIn indicates an operation that requires an authenticated
	// session was attempted without one.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrMissingCredentials indicates no username or password was available.
	ErrMissingCredentials = errors.New("username and password are required")

	// ErrMissingRecognizer indicates no captcha recognizer was configured.
	ErrMissingRecognizer = errors.New("captcha recognizer is required")
)

// LoginError indicates a failure during the authentication flow:
// captcha handling, transport faults, or a vendor credential rejection.
type LoginError struct {
	// Message describes the failure. For vendor rejections this is the
	// vendor's own message.
	Message string
	// Rejected is true when the vendor rejected the credentials
	// (Status != 0). Rejections are terminal and never retried.
	Rejected bool
	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoginError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("login failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("login failed: %s", e.Message)
}

func (e *LoginError) Unwrap() error { return e.Cause }

// CaptchaError indicates the captcha challenge could not be fetched or
// recognized. It is surfaced through LoginError during login.
type CaptchaError struct {
	Message string
	Cause   error
}

func (e *CaptchaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("captcha: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("captcha: %s", e.Message)
}

func (e *CaptchaError) Unwrap() error { return e.Cause }

// ValidateKeyError indicates the session validate key could not be
// acquired or is missing. Always terminal, distinct from a credential
// rejection: the vendor accepted the login but the follow-up token
// scrape failed.
type ValidateKeyError struct {
	Message string
	Cause   error
}

func (e *ValidateKeyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validate key: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("validate key: %s", e.Message)
}

func (e *ValidateKeyError) Unwrap() error { return e.Cause }

// TradingError indicates a non-200 or malformed response from an
// authenticated trading endpoint. Terminal per call, not retried.
type TradingError struct {
	// StatusCode is the HTTP status of the failed request, 0 for
	// transport-level failures.
	StatusCode int
	// Body is the raw response body, kept for diagnostics.
	Body    string
	Message string
	Cause   error
}

func (e *TradingError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("trading: %s: status %d, body: %s", e.Message, e.StatusCode, e.Body)
	}
	if e.Cause != nil {
		return fmt.Sprintf("trading: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("trading: %s", e.Message)
}

func (e *TradingError) Unwrap() error { return e.Cause }

// IsRejected reports whether err is a vendor credential rejection.
func IsRejected(err error) bool {
	var le *LoginError
	return errors.As(err, &le) && le.Rejected
}
