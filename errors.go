package goSession

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/credential"
)

var (
	// ErrInvalidCredentials is an exported constant or variable used by the session engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is an exported constant or variable used by the session engine.
	ErrAccountLocked = errors.New("account locked")
	// ErrEmailUnverified is an exported constant or variable used by the session engine.
	ErrEmailUnverified = errors.New("email not verified")
	// ErrUnauthorized is an exported constant or variable used by the session engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRefreshRejected is an exported constant or variable used by the session engine.
	ErrRefreshRejected = errors.New("refresh token rejected")
	// ErrNetwork is an exported constant or variable used by the session engine.
	ErrNetwork = errors.New("network failure")
	// ErrSubscriptionUnavailable is an exported constant or variable used by the session engine.
	ErrSubscriptionUnavailable = errors.New("subscription service unavailable")
	// ErrNotAuthenticated is an exported constant or variable used by the session engine.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrMalformedToken is an exported constant or variable used by the session engine.
	ErrMalformedToken = credential.ErrMalformedToken
)

// AuthReason defines a public type used by goSession APIs.
//
// AuthReason instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuthReason string

const (
	// ReasonInvalidCredentials is an exported constant or variable used by the session engine.
	ReasonInvalidCredentials AuthReason = "invalid_credentials"
	// ReasonAccountLocked is an exported constant or variable used by the session engine.
	ReasonAccountLocked AuthReason = "account_locked"
	// ReasonEmailUnverified is an exported constant or variable used by the session engine.
	ReasonEmailUnverified AuthReason = "email_unverified"
	// ReasonUnknown is an exported constant or variable used by the session engine.
	ReasonUnknown AuthReason = "unknown"
)

// AuthenticationError carries the user-displayable reason a login was
// rejected so the UI can distinguish bad credentials from a locked account or
// an unverified email.
type AuthenticationError struct {
	Reason AuthReason
	Err    error
}

// Error describes the error operation and its observable behavior.
func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed (%s)", e.Reason)
}

// Unwrap describes the unwrap operation and its observable behavior.
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// NewAuthenticationError describes the newauthenticationerror operation and its observable behavior.
func NewAuthenticationError(reason AuthReason, err error) *AuthenticationError {
	return &AuthenticationError{Reason: reason, Err: err}
}

// classifyLoginError folds a collaborator login failure into the typed
// taxonomy. Sentinel rejections become reasoned AuthenticationErrors;
// anything else is a transport failure.
func classifyLoginError(err error) error {
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return authErr
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return NewAuthenticationError(ReasonInvalidCredentials, err)
	case errors.Is(err, ErrAccountLocked):
		return NewAuthenticationError(ReasonAccountLocked, err)
	case errors.Is(err, ErrEmailUnverified):
		return NewAuthenticationError(ReasonEmailUnverified, err)
	case errors.Is(err, ErrNetwork):
		return err
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
