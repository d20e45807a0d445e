package server

import (
	"context"
	"time"

	oauth2 "github.com/hearth-oauth/oauth2"
)

// Client is the minimal client identity a DataHandler hands back once it has
// authenticated a client_id/client_secret pair.
type Client struct {
	ID           string
	Confidential bool
}

// AuthInfo is the host-persisted record backing both an authorization grant
// (when Code is set) and the bookkeeping a flow needs to mint, rotate or
// revoke access and refresh tokens. It generalizes spec.md §3's separate
// "Authorization Grant" and "Refresh Token" records into the single record
// the data handler contract threads through every flow.
type AuthInfo struct {
	ID              string
	ClientID        string
	ResourceOwnerID string
	Scope           oauth2.Scope
	RedirectURI     string
	Code            string
	RefreshToken    string
	Used            bool
	ExpiresAt       time.Time
}

// AccessToken is the host-persisted record describing an issued access
// token.
type AccessToken struct {
	ID              string
	Token           string
	RefreshToken    string
	Refreshable     bool
	ClientID        string
	ResourceOwnerID string
	Scope           oauth2.Scope
	ExpiresAt       time.Time
}

// DataHandler is the storage and authentication contract a host implements
// to back the grant flows in this package. The core never touches storage
// directly; every persistence or credential-checking decision flows through
// this interface (spec.md §4.3).
//
// Methods return ErrNotFound or ErrDenied (or a more specific sentinel like
// ErrInvalidScope) to signal a recognized rejection; any other error is
// treated as a host failure and surfaced to the caller as server_error.
type DataHandler interface {
	// ValidateClient authenticates a client_id/client_secret pair for the
	// given grant type and returns the client's identity. clientSecret is
	// empty for a public client presenting only a client_id.
	ValidateClient(ctx context.Context, clientID, clientSecret string, grantType oauth2.GrantType) (*Client, error)

	// GetUser authenticates a resource owner's username and password and
	// returns their identifier.
	GetUser(ctx context.Context, username, password string) (resourceOwnerID string, err error)

	// CreateOrUpdateAuthInfo records a new grant (or refreshes an existing
	// one) for the given client, resource owner, scope and redirect URI.
	// resourceOwnerID is empty for the client_credentials grant. When
	// redirectURI is non-empty the call originates from the authorization
	// endpoint (code or token response type) and the returned AuthInfo.Code
	// must be set to a fresh single-use code.
	CreateOrUpdateAuthInfo(ctx context.Context, clientID, resourceOwnerID string, scope oauth2.Scope, redirectURI string) (*AuthInfo, error)

	// GetAuthInfoByCode looks up a grant by its single-use authorization
	// code.
	GetAuthInfoByCode(ctx context.Context, code string) (*AuthInfo, error)

	// GetAuthInfoByRefreshToken looks up a grant by its refresh token.
	GetAuthInfoByRefreshToken(ctx context.Context, refreshToken string) (*AuthInfo, error)

	// MarkAuthInfoUsed atomically marks a grant as consumed. It must be
	// idempotent and, for the authorization_code flow, must make a
	// concurrent reuse of the same code observe the used state (spec.md §5,
	// invariant I1).
	MarkAuthInfoUsed(ctx context.Context, authInfo *AuthInfo) error

	// CreateOrUpdateAccessToken mints (or rotates) the access token for a
	// validated grant. When refreshable is true it also mints a refresh
	// token and sets AccessToken.RefreshToken; when rotate is true and
	// authInfo.RefreshToken is already set, the old refresh token is
	// invalidated in favor of the new one.
	CreateOrUpdateAccessToken(ctx context.Context, authInfo *AuthInfo, refreshable, rotate bool) (*AccessToken, error)

	// ValidateScope checks the requested scope against what the client (and,
	// where applicable, resource owner) may be granted, returning the scope
	// actually to be granted.
	ValidateScope(ctx context.Context, clientID string, scope oauth2.Scope) (oauth2.Scope, error)

	// ValidateRedirectURI checks redirectURI against the client's
	// registered redirect URIs, returning the URI to use (hosts may
	// normalize it).
	ValidateRedirectURI(ctx context.Context, clientID, redirectURI string) (string, error)

	// GetAccessToken looks up a previously issued access token by its
	// opaque string.
	GetAccessToken(ctx context.Context, token string) (*AccessToken, error)

	// GetAuthInfoByID looks up a grant by its identifier, used to resolve
	// the auth info associated with an access token.
	GetAuthInfoByID(ctx context.Context, id string) (*AuthInfo, error)

	// RevokeToken invalidates an access or refresh token by its opaque
	// string. It must be idempotent and must not reveal whether a matching
	// token existed (spec.md §9 supplemental revocation endpoint).
	RevokeToken(ctx context.Context, token string) error

	// CreateDeviceAuthorization begins the two-phase device flow (spec.md
	// §4.4 "Device"), recording a fresh device code / user code pair bound
	// to the given client and scope.
	CreateDeviceAuthorization(ctx context.Context, clientID string, scope oauth2.Scope) (*DeviceAuthorization, error)

	// GetDeviceAuthorizationByDeviceCode looks up a device authorization by
	// its device code, used while the device polls the token endpoint. The
	// returned LastPolledAt must hold the time of the previous poll (zero on
	// the first one), and the implementation must record the current poll's
	// time for the next call, so DeviceFlow can enforce the minimum polling
	// interval.
	GetDeviceAuthorizationByDeviceCode(ctx context.Context, deviceCode string) (*DeviceAuthorization, error)

	// ApproveDeviceAuthorization records that the resource owner approved
	// (approved true) or denied (approved false) the authorization
	// identified by its user-facing user code.
	ApproveDeviceAuthorization(ctx context.Context, userCode, resourceOwnerID string, approved bool) error

	// ConsumeDeviceAuthorization atomically marks an approved device
	// authorization as consumed, so that two concurrent polls cannot both
	// receive tokens for it. It must observe the same at-most-once
	// guarantee as MarkAuthInfoUsed.
	ConsumeDeviceAuthorization(ctx context.Context, deviceCode string) (*DeviceAuthorization, error)
}

// DeviceStatus is the lifecycle state of a device authorization.
type DeviceStatus string

// The device authorization lifecycle states.
const (
	DevicePending  DeviceStatus = "pending"
	DeviceApproved DeviceStatus = "approved"
	DeviceDenied   DeviceStatus = "denied"
)

// DeviceAuthorization is the host-persisted record backing the device flow's
// two phases: device registration and polling.
type DeviceAuthorization struct {
	DeviceCode      string
	UserCode        string
	ClientID        string
	ResourceOwnerID string
	Scope           oauth2.Scope
	Status          DeviceStatus
	Interval        time.Duration
	ExpiresAt       time.Time
	LastPolledAt    time.Time
}
