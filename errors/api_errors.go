package errors

import (
	"errors"
	"fmt"
)

// APIErrorKind classifies delegated API call failures. Classification is
// string/status based against the provider's error surface and lives in one
// place (the youtube package classifier), never at call sites.
type APIErrorKind string

const (
	KindPermissionDenied APIErrorKind = "permission_denied"
	KindQuotaExceeded    APIErrorKind = "quota_exceeded"
	KindCommentsDisabled APIErrorKind = "comments_disabled"
	KindMalformedRequest APIErrorKind = "malformed_request"
	KindNotFound         APIErrorKind = "not_found"
	// KindUnauthorized is the 401-class signal that the cached access token
	// was stale or invalid; callers use it to trigger one corrective refresh.
	KindUnauthorized APIErrorKind = "unauthorized"
	KindUnknown      APIErrorKind = "unknown"
)

// APIError is a classified failure from the delegated video API.
type APIError struct {
	Kind       APIErrorKind `json:"error"`
	StatusCode int          `json:"-"`
	Reason     string       `json:"reason,omitempty"`
	Message    string       `json:"message,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("delegated api: %s (status %d, reason %q): %s",
		e.Kind, e.StatusCode, e.Reason, e.Message)
}

// UserMessage returns the user-facing message for the error kind.
func (e *APIError) UserMessage() string {
	switch e.Kind {
	case KindPermissionDenied:
		return "Permission denied: you can only act on your own videos or videos where you have permission"
	case KindQuotaExceeded:
		return "Video platform API quota exceeded. Please try again later"
	case KindCommentsDisabled:
		return "Comments are disabled on this video"
	case KindMalformedRequest:
		return "Invalid request: check that the video exists and allows this action"
	case KindNotFound:
		return "The requested resource was not found"
	case KindUnauthorized:
		return "Your video platform authorization expired. Please sign in again"
	default:
		return "The request to the video platform failed due to an unknown error"
	}
}

// IsUnauthorized reports whether err is a 401-class delegated API failure.
func IsUnauthorized(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Kind == KindUnauthorized
}
