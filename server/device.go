package server

import (
	"context"
	"time"

	oauth2 "github.com/hearth-oauth/oauth2"
)

// DeviceAuthorizationResponse is returned by InitiateDevice and carries the
// codes and polling parameters a device presents to its user and then polls
// the token endpoint with (spec.md §4.4 "Device").
type DeviceAuthorizationResponse struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete,omitempty"`
	ExpiresIn               int    `json:"expires_in"`
	Interval                int    `json:"interval"`
}

// InitiateDevice begins the device flow: it authenticates the client and
// asks the DataHandler to mint a fresh device code / user code pair.
func InitiateDevice(ctx context.Context, p *Policy, clientID string, scope oauth2.Scope, verificationURI string) (*DeviceAuthorizationResponse, *oauth2.Error) {
	if clientID == "" {
		return nil, oauth2.InvalidRequest("missing client_id")
	}

	client, err := p.DataHandler.ValidateClient(ctx, clientID, "", oauth2.DeviceCodeGrantType)
	if err != nil {
		return nil, hostError(p, err, oauth2.InvalidClient("unknown client"), oauth2.InvalidClient("unknown client"))
	}

	grantedScope, err := p.DataHandler.ValidateScope(ctx, client.ID, scope)
	if err != nil {
		return nil, hostError(p, err, oauth2.InvalidScope(""), oauth2.InvalidScope(""))
	}

	auth, err := p.DataHandler.CreateDeviceAuthorization(ctx, client.ID, grantedScope)
	if err != nil {
		return nil, hostError(p, err, oauth2.ServerError(""), oauth2.AccessDenied(""))
	}

	return &DeviceAuthorizationResponse{
		DeviceCode:      auth.DeviceCode,
		UserCode:        auth.UserCode,
		VerificationURI: verificationURI,
		ExpiresIn:       int(time.Until(auth.ExpiresAt) / time.Second),
		Interval:        int(auth.Interval / time.Second),
	}, nil
}

// DeviceFlow implements the device flow's polling half (spec.md §4.4): the
// device repeatedly presents its device_code to the token endpoint until
// the resource owner approves or denies it, or it expires.
type DeviceFlow struct{}

// GrantType implements Flow.
func (f *DeviceFlow) GrantType() oauth2.GrantType { return oauth2.DeviceCodeGrantType }

// HandleToken implements Flow.
func (f *DeviceFlow) HandleToken(ctx context.Context, p *Policy, req *oauth2.TokenRequest, now time.Time) (*oauth2.TokenResponse, *oauth2.Error) {
	if req.DeviceCode == "" {
		return nil, oauth2.InvalidRequest("missing device_code")
	}

	client, oauthErr := authenticateClient(ctx, p, req, f.GrantType())
	if oauthErr != nil {
		return nil, oauthErr
	}

	auth, err := p.DataHandler.GetDeviceAuthorizationByDeviceCode(ctx, req.DeviceCode)
	if err != nil {
		return nil, hostError(p, err, oauth2.InvalidGrant("unknown device_code"), oauth2.InvalidGrant("unknown device_code"))
	}

	if auth.ClientID != client.ID {
		return nil, oauth2.InvalidGrant("device code was not issued to this client")
	}

	if auth.ExpiresAt.Before(now) {
		return nil, oauth2.ExpiredToken("")
	}

	switch auth.Status {
	case DeviceDenied:
		return nil, oauth2.AccessDenied("")
	case DevicePending:
		if !auth.LastPolledAt.IsZero() && now.Sub(auth.LastPolledAt) < auth.Interval {
			return nil, oauth2.SlowDown("")
		}

		return nil, oauth2.AuthorizationPending("")
	}

	// DeviceApproved: consume before issuing tokens so a concurrent poll
	// cannot also receive tokens for the same device code.
	auth, err = p.DataHandler.ConsumeDeviceAuthorization(ctx, req.DeviceCode)
	if err != nil {
		return nil, hostError(p, err, oauth2.InvalidGrant("device code already used"), oauth2.InvalidGrant("device code already used"))
	}

	authInfo, err := p.DataHandler.CreateOrUpdateAuthInfo(ctx, client.ID, auth.ResourceOwnerID, auth.Scope, "")
	if err != nil {
		return nil, hostError(p, err, oauth2.ServerError(""), oauth2.AccessDenied(""))
	}

	at, err := p.DataHandler.CreateOrUpdateAccessToken(ctx, authInfo, true, p.RotateRefreshTokens)
	if err != nil {
		return nil, hostError(p, err, oauth2.ServerError(""), oauth2.AccessDenied(""))
	}

	return tokenResponse(at, p.AccessTokenLifespan), nil
}
