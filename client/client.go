// Package client implements the client half of this module, promised by
// spec.md §1 ("both an authorization server and a client implementation")
// but left undetailed by the component table. It is a thin wrapper around
// an *http.Client that exchanges credentials for tokens at a host's token
// endpoint; the HTTP user-agent itself stays external, per the stated
// non-goal.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/256dpi/xo"

	oauth2 "github.com/hearth-oauth/oauth2"
)

// Config configures a Client.
type Config struct {
	// BaseURI is prepended to TokenEndpoint to build the token endpoint's
	// full URL.
	BaseURI string

	// TokenEndpoint is the token endpoint's path, relative to BaseURI.
	TokenEndpoint string

	// Client performs the outbound HTTP requests. If nil, http.DefaultClient
	// is used. The outer HTTP user-agent stays a host concern per spec.md
	// §1's stated non-goal; this field is how a host supplies one.
	Client *http.Client
}

// TokenRequest is the set of parameters a client may present to the token
// endpoint for any of the grant types in spec.md §4.4.
type TokenRequest struct {
	GrantType    oauth2.GrantType
	ClientID     string
	ClientSecret string
	Scope        oauth2.Scope
	Username     string
	Password     string
	Code         string
	RedirectURI  string
	RefreshToken string
	DeviceCode   string
}

// TransportError wraps a failure to reach the token endpoint at all — a
// network error, a malformed response body, or a status code that carries
// no recognizable OAuth error — as distinct from a *oauth2.Error protocol
// rejection returned by the server itself (spec.md §7 tier 3).
type TransportError struct {
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("client: transport error: %v", e.Err)
}

// Unwrap allows errors.Is/As to see through to the underlying cause.
func (e *TransportError) Unwrap() error { return e.Err }

// Client exchanges credentials for tokens at a host's token endpoint. The
// zero value is not usable; use New.
type Client struct {
	config Config

	// lastRequest and lastResponse back the "opaque diagnostic handle"
	// Design Note in spec.md §9: informal last-request/response accessors,
	// not part of the protocol contract.
	lastRequest  *http.Request
	lastResponse *http.Response
}

// New creates a Client, grounded in the teacher's NewClientWithClient
// constructors (e.g. jsonapi.NewClientWithClient, oauth2.NewClientWithClient
// as used by roast.Tester.AuthClient). A nil config.Client falls back to
// http.DefaultClient.
func New(config Config) *Client {
	if config.Client == nil {
		config.Client = http.DefaultClient
	}

	return &Client{config: config}
}

// LastRequest returns the most recently sent HTTP request, or nil if none
// has been sent yet.
func (c *Client) LastRequest() *http.Request { return c.lastRequest }

// LastResponse returns the most recently received HTTP response, or nil if
// none has been received yet.
func (c *Client) LastResponse() *http.Response { return c.lastResponse }

// Authenticate exchanges req for an access token at the configured token
// endpoint (spec.md §6). A *oauth2.Error is returned for a protocol-level
// rejection; a *TransportError is returned if the endpoint could not be
// reached, or responded with something that isn't a recognizable OAuth
// response.
func (c *Client) Authenticate(ctx context.Context, req TokenRequest) (*oauth2.TokenResponse, error) {
	values := url.Values{}
	values.Set("grant_type", string(req.GrantType))

	setIfNotEmpty(values, "client_id", req.ClientID)
	setIfNotEmpty(values, "client_secret", req.ClientSecret)
	setIfNotEmpty(values, "scope", req.Scope.String())
	setIfNotEmpty(values, "username", req.Username)
	setIfNotEmpty(values, "password", req.Password)
	setIfNotEmpty(values, "code", req.Code)
	setIfNotEmpty(values, "redirect_uri", req.RedirectURI)
	setIfNotEmpty(values, "refresh_token", req.RefreshToken)
	setIfNotEmpty(values, "device_code", req.DeviceCode)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), strings.NewReader(values.Encode()))
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	c.lastRequest = httpReq

	httpRes, err := c.config.Client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer httpRes.Body.Close()

	c.lastResponse = httpRes

	body, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, &TransportError{Err: xo.W(err)}
	}

	if httpRes.StatusCode >= http.StatusOK && httpRes.StatusCode < http.StatusMultipleChoices {
		var res oauth2.TokenResponse
		if err := json.Unmarshal(body, &res); err != nil {
			return nil, &TransportError{Err: xo.W(err)}
		}

		return &res, nil
	}

	var oauthErr oauth2.Error
	if err := json.Unmarshal(body, &oauthErr); err != nil || oauthErr.Code == "" {
		return nil, &TransportError{Err: fmt.Errorf("client: unexpected status %d", httpRes.StatusCode)}
	}

	oauthErr.Status = httpRes.StatusCode

	return nil, &oauthErr
}

func (c *Client) endpoint() string {
	return strings.TrimSuffix(c.config.BaseURI, "/") + "/" + strings.TrimPrefix(c.config.TokenEndpoint, "/")
}

func setIfNotEmpty(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}
