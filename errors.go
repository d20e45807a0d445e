package oauth2

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrorCode is one of the closed set of protocol error codes from spec.md §6.
type ErrorCode string

// The closed set of protocol error codes.
const (
	ErrorInvalidRequest          ErrorCode = "invalid_request"
	ErrorInvalidClient           ErrorCode = "invalid_client"
	ErrorUnauthorizedClient      ErrorCode = "unauthorized_client"
	ErrorRedirectURIMismatch     ErrorCode = "redirect_uri_mismatch"
	ErrorAccessDenied            ErrorCode = "access_denied"
	ErrorUnsupportedResponseType ErrorCode = "unsupported_response_type"
	ErrorUnsupportedGrantType    ErrorCode = "unsupported_grant_type"
	ErrorInvalidScope            ErrorCode = "invalid_scope"
	ErrorInvalidGrant            ErrorCode = "invalid_grant"
	ErrorInvalidToken            ErrorCode = "invalid_token"
	ErrorInsufficientScope       ErrorCode = "insufficient_scope"
	ErrorAuthorizationPending    ErrorCode = "authorization_pending"
	ErrorSlowDown                ErrorCode = "slow_down"
	ErrorExpiredToken            ErrorCode = "expired_token"
	ErrorServerError             ErrorCode = "server_error"
)

// statusOf returns the default HTTP status for a protocol error code.
// invalid_client defaults to 400; the dispatcher elevates it to 401 only
// when the request carried HTTP Basic credentials (spec.md §4.5), via
// Error.Realm.
func statusOf(code ErrorCode) int {
	switch code {
	case ErrorServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// Error is an OAuth 2.0 protocol error as specified in spec.md §6/§7. It
// implements the error interface and carries enough information to either
// be rendered as a JSON/XML/form body or to drive a redirect response.
type Error struct {
	Code        ErrorCode `json:"error"`
	Description string    `json:"error_description,omitempty"`
	URI         string    `json:"error_uri,omitempty"`

	// Status is the HTTP status this error should be rendered with.
	Status int `json:"-"`

	// Realm, if set, is included as a WWW-Authenticate challenge realm when
	// the error originates from a Basic-authenticated token request.
	Realm string `json:"-"`

	redirectURI string
	state       string
	fragment    bool
	hasRedirect bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("oauth2: %s: %s", e.Code, e.Description)
	}

	return fmt.Sprintf("oauth2: %s", e.Code)
}

// SetRedirect marks the error to be delivered as a redirect to the provided
// URI instead of as a direct response body. If fragment is true, parameters
// are encoded in the URL fragment (used by the implicit grant); otherwise
// they are encoded in the query (used by the authorization code grant).
func (e *Error) SetRedirect(redirectURI, state string, fragment bool) *Error {
	e.redirectURI = redirectURI
	e.state = state
	e.fragment = fragment
	e.hasRedirect = true

	return e
}

// Redirect returns the redirect URL this error should be delivered to, and
// whether a redirect was requested at all.
func (e *Error) Redirect() (string, bool) {
	if !e.hasRedirect {
		return "", false
	}

	values := url.Values{}
	values.Set("error", string(e.Code))

	if e.Description != "" {
		values.Set("error_description", e.Description)
	}

	if e.URI != "" {
		values.Set("error_uri", e.URI)
	}

	if e.state != "" {
		values.Set("state", e.state)
	}

	separator := "?"
	if e.fragment {
		separator = "#"
	}

	if strings.ContainsAny(e.redirectURI, "?") && !e.fragment {
		separator = "&"
	}

	return e.redirectURI + separator + values.Encode(), true
}

func newError(code ErrorCode, description string) *Error {
	return &Error{
		Code:        code,
		Description: description,
		Status:      statusOf(code),
	}
}

// InvalidRequest constructs an invalid_request error.
func InvalidRequest(description string) *Error { return newError(ErrorInvalidRequest, description) }

// InvalidClient constructs an invalid_client error. The dispatcher upgrades
// its status to 401 and attaches a WWW-Authenticate header when the request
// carried HTTP Basic credentials.
func InvalidClient(description string) *Error { return newError(ErrorInvalidClient, description) }

// UnauthorizedClient constructs an unauthorized_client error.
func UnauthorizedClient(description string) *Error {
	return newError(ErrorUnauthorizedClient, description)
}

// RedirectURIMismatch constructs a redirect_uri_mismatch error.
func RedirectURIMismatch(description string) *Error {
	return newError(ErrorRedirectURIMismatch, description)
}

// AccessDenied constructs an access_denied error.
func AccessDenied(description string) *Error { return newError(ErrorAccessDenied, description) }

// UnsupportedResponseType constructs an unsupported_response_type error.
func UnsupportedResponseType(description string) *Error {
	return newError(ErrorUnsupportedResponseType, description)
}

// UnsupportedGrantType constructs an unsupported_grant_type error.
func UnsupportedGrantType(description string) *Error {
	return newError(ErrorUnsupportedGrantType, description)
}

// InvalidScope constructs an invalid_scope error.
func InvalidScope(description string) *Error { return newError(ErrorInvalidScope, description) }

// InvalidGrant constructs an invalid_grant error.
func InvalidGrant(description string) *Error { return newError(ErrorInvalidGrant, description) }

// InvalidToken constructs an invalid_token error.
func InvalidToken(description string) *Error { return newError(ErrorInvalidToken, description) }

// InsufficientScope constructs an insufficient_scope error.
func InsufficientScope(description string) *Error {
	return newError(ErrorInsufficientScope, description)
}

// AuthorizationPending constructs an authorization_pending error.
func AuthorizationPending(description string) *Error {
	return newError(ErrorAuthorizationPending, description)
}

// SlowDown constructs a slow_down error.
func SlowDown(description string) *Error { return newError(ErrorSlowDown, description) }

// ExpiredToken constructs an expired_token error.
func ExpiredToken(description string) *Error { return newError(ErrorExpiredToken, description) }

// ServerError constructs a server_error. The description should never leak
// internal details (spec.md §7 tier 2) — callers should pass "" and let the
// host log the underlying cause separately.
func ServerError(description string) *Error { return newError(ErrorServerError, description) }

// WriteError renders the error using the requested format and writes it as
// an HTTP response, including the Cache-Control/Pragma headers required for
// token endpoint responses and, for invalid_client errors carrying a Realm,
// the WWW-Authenticate Basic challenge.
func WriteError(w http.ResponseWriter, format Format, err *Error) error {
	status := err.Status

	if err.Code == ErrorInvalidClient && err.Realm != "" {
		w.Header().Set("WWW-Authenticate", `Basic realm="`+err.Realm+`"`)
		status = http.StatusUnauthorized
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")

	contentType, body, renderErr := Render(err, format)
	if renderErr != nil {
		return renderErr
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, writeErr := w.Write(body)

	return writeErr
}

// WriteTokenResponse renders a successful token response using the
// requested format and writes the required caching headers.
func WriteTokenResponse(w http.ResponseWriter, format Format, res *TokenResponse) error {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")

	contentType, body, err := Render(res, format)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, writeErr := w.Write(body)

	return writeErr
}
