package server

import "github.com/256dpi/xo"

// ErrNotFound should be returned by a DataHandler method when the requested
// client, auth info or access token does not exist.
var ErrNotFound = xo.BF("not found")

// ErrDenied should be returned by a DataHandler method to reject a request
// for a reason that does not fit one of the other sentinel errors (e.g. an
// inactive client, a rejected password). The call site picks the protocol
// error it becomes, e.g. invalid_client when validating a client,
// access_denied when authenticating a resource owner, or invalid_grant when
// consuming a code.
var ErrDenied = xo.BF("denied")

// ErrInvalidScope should be returned by ValidateScope when the requested
// scope exceeds what the client or resource owner may be granted.
var ErrInvalidScope = xo.BF("invalid scope")

// ErrInvalidRedirectURI should be returned by ValidateRedirectURI when the
// given URI is not on the client's allow-list.
var ErrInvalidRedirectURI = xo.BF("invalid redirect uri")

// ErrUnauthorizedClient should be returned by ValidateClient when the client
// is known and its credentials check out, but it is not permitted to use
// the requested grant type.
var ErrUnauthorizedClient = xo.BF("unauthorized client")

// ErrInvalidAccessTokenKey is returned by AccessTokenKey.Validate when a
// decoded JWT access token is missing fields a genuinely issued token
// always carries.
var ErrInvalidAccessTokenKey = xo.BF("invalid access token key")
