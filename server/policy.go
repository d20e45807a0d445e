package server

import (
	"time"

	"github.com/hearth-oauth/oauth2/notary"
)

// Policy configures the lifespans, token issuance and host-visible knobs an
// Endpoint uses, mirroring the shape of a notary-backed authentication
// policy: the storage and authentication decisions live behind DataHandler,
// while Policy carries the pure configuration the core needs to drive them.
type Policy struct {
	// Notary, when set, lets Authorizer verify a presented access token as a
	// signed AccessTokenKey before calling into the DataHandler. Tokens,
	// codes and device codes themselves are minted by the DataHandler.
	Notary *notary.Notary

	// DataHandler is the host-supplied storage and authentication
	// contract (spec.md §4.3).
	DataHandler DataHandler

	AccessTokenLifespan       time.Duration
	RefreshTokenLifespan      time.Duration
	AuthorizationCodeLifespan time.Duration
	DeviceCodeLifespan        time.Duration

	// DevicePollInterval is a polling interval setting for the device flow.
	// InitiateDevice and DeviceFlow do not read it: the interval they report
	// and enforce is the Interval of the DataHandler's DeviceAuthorization.
	DevicePollInterval time.Duration

	// RotateRefreshTokens selects whether the refresh_token grant issues a
	// new refresh token (true, the default) or reuses the presented one.
	// Left to host policy per spec.md §9 Open Question (a).
	RotateRefreshTokens bool

	// AllowImplicitGrant enables the response_type=token flow at the
	// authorization endpoint.
	AllowImplicitGrant bool

	// Realm is included in the WWW-Authenticate challenge of invalid_client
	// and protected-resource errors.
	Realm string

	// Reporter, if set, receives host (non-protocol) errors raised while
	// handling a request, so the caller can log them without leaking detail
	// to the client (spec.md §7 tier 2).
	Reporter func(error)
}

// DefaultPolicy returns a Policy with the lifespans and feature flags this
// module ships with out of the box.
func DefaultPolicy(dataHandler DataHandler, n *notary.Notary) *Policy {
	return &Policy{
		Notary:                    n,
		DataHandler:               dataHandler,
		AccessTokenLifespan:       time.Hour,
		RefreshTokenLifespan:      7 * 24 * time.Hour,
		AuthorizationCodeLifespan: time.Minute,
		DeviceCodeLifespan:        10 * time.Minute,
		DevicePollInterval:        5 * time.Second,
		RotateRefreshTokens:       true,
		AllowImplicitGrant:        true,
		Realm:                     "api",
	}
}
