package errors

import (
	"errors"
	"fmt"
)

// AuthErrorKind classifies failures of the token lifecycle manager.
type AuthErrorKind string

const (
	// KindUnauthenticated means no credential is on file; the user must sign in.
	KindUnauthenticated AuthErrorKind = "unauthenticated"
	// KindRefreshUnavailable means the refresh grant is missing or revoked;
	// the user must re-consent.
	KindRefreshUnavailable AuthErrorKind = "refresh_unavailable"
	// KindTransientProvider means a network or provider-side failure; safe to
	// retry with backoff.
	KindTransientProvider AuthErrorKind = "transient_provider_error"
)

// AuthError is the only error type the lifecycle manager returns to callers.
// Raw transport and storage errors never cross the manager boundary unmapped.
type AuthError struct {
	Kind        AuthErrorKind `json:"error"`
	Description string        `json:"error_description,omitempty"`
	Err         error         `json:"-"`
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Description, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Description)
}

func (e *AuthError) Unwrap() error { return e.Err }

func NewUnauthenticated(description string) *AuthError {
	return &AuthError{Kind: KindUnauthenticated, Description: description}
}

func NewRefreshUnavailable(description string) *AuthError {
	return &AuthError{Kind: KindRefreshUnavailable, Description: description}
}

func NewTransientProvider(description string, err error) *AuthError {
	return &AuthError{Kind: KindTransientProvider, Description: description, Err: err}
}

// IsAuthKind reports whether err is an AuthError of the given kind.
func IsAuthKind(err error, kind AuthErrorKind) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Kind == kind
}
