package youtube

import (
	"encoding/json"
	"net/http"
	"strings"

	apperrors "go.pilab.hu/tubedash/errors"
)

// errorBody is the provider's error envelope. Reason strings carry the real
// signal; the top-level message is a fallback for paths where reasons are
// absent.
type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason  string `json:"reason"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"error"`
}

// classifyAPIError maps a non-2xx provider response onto the APIError
// taxonomy. This is the only place that inspects the provider's error
// surface; call sites never string-match on their own.
func classifyAPIError(status int, body []byte) *apperrors.APIError {
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)

	reason := ""
	if len(parsed.Error.Errors) > 0 {
		reason = parsed.Error.Errors[0].Reason
	}
	message := parsed.Error.Message
	haystack := strings.ToLower(reason + " " + message)

	kind := apperrors.KindUnknown
	switch {
	case status == http.StatusUnauthorized,
		strings.Contains(haystack, "autherror"),
		strings.Contains(haystack, "invalidcredentials"):
		kind = apperrors.KindUnauthorized
	case strings.Contains(haystack, "quotaexceeded"),
		strings.Contains(haystack, "ratelimitexceeded"),
		strings.Contains(haystack, "quota"):
		kind = apperrors.KindQuotaExceeded
	case strings.Contains(haystack, "commentsdisabled"):
		kind = apperrors.KindCommentsDisabled
	case status == http.StatusForbidden,
		strings.Contains(haystack, "forbidden"),
		strings.Contains(haystack, "insufficientpermissions"):
		kind = apperrors.KindPermissionDenied
	case status == http.StatusNotFound,
		strings.Contains(haystack, "notfound"):
		kind = apperrors.KindNotFound
	case status == http.StatusBadRequest,
		strings.Contains(haystack, "badrequest"):
		kind = apperrors.KindMalformedRequest
	}

	return &apperrors.APIError{
		Kind:       kind,
		StatusCode: status,
		Reason:     reason,
		Message:    message,
	}
}
