package server

import (
	"context"
	"errors"
	"time"

	oauth2 "github.com/hearth-oauth/oauth2"
)

// hostError maps a DataHandler failure to a protocol error. Recognized
// sentinels become the matching protocol error; anything else is a host
// failure, reported through p.Reporter and surfaced as server_error without
// leaking detail (spec.md §7 tier 2).
func hostError(p *Policy, err error, notFound, denied *oauth2.Error) *oauth2.Error {
	switch {
	case errors.Is(err, ErrNotFound):
		return notFound
	case errors.Is(err, ErrUnauthorizedClient):
		return oauth2.UnauthorizedClient("")
	case errors.Is(err, ErrInvalidScope):
		return oauth2.InvalidScope("")
	case errors.Is(err, ErrInvalidRedirectURI):
		return oauth2.InvalidRequest("invalid redirect uri")
	case errors.Is(err, ErrDenied):
		return denied
	default:
		if p.Reporter != nil {
			p.Reporter(err)
		}

		return oauth2.ServerError("")
	}
}

// authenticateClient validates client credentials for the given grant type,
// mapping host errors to invalid_client/unauthorized_client.
func authenticateClient(ctx context.Context, p *Policy, req *oauth2.TokenRequest, grantType oauth2.GrantType) (*Client, *oauth2.Error) {
	if req.ClientID == "" {
		return nil, oauth2.InvalidRequest("missing client_id")
	}

	client, err := p.DataHandler.ValidateClient(ctx, req.ClientID, req.ClientSecret, grantType)
	if err != nil {
		oauthErr := hostError(p, err, invalidClientError(p, req), invalidClientError(p, req))
		return nil, oauthErr
	}

	return client, nil
}

// invalidClientError builds an invalid_client error carrying the Basic
// challenge realm when credentials were sent as HTTP Basic, per spec.md §6.
func invalidClientError(p *Policy, req *oauth2.TokenRequest) *oauth2.Error {
	err := oauth2.InvalidClient("unknown client or invalid secret")

	if req.CredentialCarrier == oauth2.CarrierHeader {
		err.Realm = p.Realm
		if err.Realm == "" {
			err.Realm = "api"
		}
	}

	return err
}

func tokenResponse(at *AccessToken, lifespan time.Duration) *oauth2.TokenResponse {
	res := oauth2.NewTokenResponse(at.Token, int(lifespan/time.Second))
	res.RefreshToken = at.RefreshToken
	res.Scope = at.Scope

	return res
}

// ClientCredentialsFlow implements the client_credentials grant (spec.md
// §4.4): client authentication followed by an access token with no
// associated resource owner and, ordinarily, no refresh token.
type ClientCredentialsFlow struct{}

// GrantType implements Flow.
func (f *ClientCredentialsFlow) GrantType() oauth2.GrantType { return oauth2.ClientCredentialsGrantType }

// HandleToken implements Flow.
func (f *ClientCredentialsFlow) HandleToken(ctx context.Context, p *Policy, req *oauth2.TokenRequest, now time.Time) (*oauth2.TokenResponse, *oauth2.Error) {
	if req.ClientSecret == "" {
		return nil, oauth2.InvalidRequest("missing client_secret")
	}

	client, oauthErr := authenticateClient(ctx, p, req, f.GrantType())
	if oauthErr != nil {
		return nil, oauthErr
	}

	scope, err := p.DataHandler.ValidateScope(ctx, client.ID, req.Scope)
	if err != nil {
		return nil, hostError(p, err, oauth2.InvalidScope(""), oauth2.InvalidScope(""))
	}

	authInfo, err := p.DataHandler.CreateOrUpdateAuthInfo(ctx, client.ID, "", scope, "")
	if err != nil {
		return nil, hostError(p, err, oauth2.ServerError(""), oauth2.AccessDenied(""))
	}

	at, err := p.DataHandler.CreateOrUpdateAccessToken(ctx, authInfo, false, false)
	if err != nil {
		return nil, hostError(p, err, oauth2.ServerError(""), oauth2.AccessDenied(""))
	}

	return tokenResponse(at, p.AccessTokenLifespan), nil
}

// PasswordFlow implements the resource owner password credentials grant
// (spec.md §4.4): client authentication, resource owner authentication, and
// an access + refresh token bound to both.
type PasswordFlow struct{}

// GrantType implements Flow.
func (f *PasswordFlow) GrantType() oauth2.GrantType { return oauth2.PasswordGrantType }

// HandleToken implements Flow.
func (f *PasswordFlow) HandleToken(ctx context.Context, p *Policy, req *oauth2.TokenRequest, now time.Time) (*oauth2.TokenResponse, *oauth2.Error) {
	if req.Username == "" || req.Password == "" {
		return nil, oauth2.InvalidRequest("missing username or password")
	}

	client, oauthErr := authenticateClient(ctx, p, req, f.GrantType())
	if oauthErr != nil {
		return nil, oauthErr
	}

	resourceOwnerID, err := p.DataHandler.GetUser(ctx, req.Username, req.Password)
	if err != nil {
		return nil, hostError(p, err, oauth2.AccessDenied(""), oauth2.AccessDenied(""))
	}

	scope, err := p.DataHandler.ValidateScope(ctx, client.ID, req.Scope)
	if err != nil {
		return nil, hostError(p, err, oauth2.InvalidScope(""), oauth2.InvalidScope(""))
	}

	authInfo, err := p.DataHandler.CreateOrUpdateAuthInfo(ctx, client.ID, resourceOwnerID, scope, "")
	if err != nil {
		return nil, hostError(p, err, oauth2.ServerError(""), oauth2.AccessDenied(""))
	}

	at, err := p.DataHandler.CreateOrUpdateAccessToken(ctx, authInfo, true, p.RotateRefreshTokens)
	if err != nil {
		return nil, hostError(p, err, oauth2.ServerError(""), oauth2.AccessDenied(""))
	}

	return tokenResponse(at, p.AccessTokenLifespan), nil
}

// AuthorizationCodeFlow implements the authorization_code grant (spec.md
// §4.4): the code minted by the end-user endpoint is exchanged exactly once
// for an access + refresh token.
type AuthorizationCodeFlow struct{}

// GrantType implements Flow.
func (f *AuthorizationCodeFlow) GrantType() oauth2.GrantType { return oauth2.AuthorizationCodeGrantType }

// HandleToken implements Flow.
func (f *AuthorizationCodeFlow) HandleToken(ctx context.Context, p *Policy, req *oauth2.TokenRequest, now time.Time) (*oauth2.TokenResponse, *oauth2.Error) {
	if req.Code == "" || req.RedirectURI == "" {
		return nil, oauth2.InvalidRequest("missing code or redirect_uri")
	}

	client, oauthErr := authenticateClient(ctx, p, req, f.GrantType())
	if oauthErr != nil {
		return nil, oauthErr
	}

	authInfo, err := p.DataHandler.GetAuthInfoByCode(ctx, req.Code)
	if err != nil {
		return nil, hostError(p, err, oauth2.InvalidGrant("unknown code"), oauth2.InvalidGrant("unknown code"))
	}

	switch {
	case authInfo.ClientID != client.ID:
		return nil, oauth2.InvalidGrant("code was not issued to this client")
	case authInfo.RedirectURI != req.RedirectURI:
		return nil, oauth2.InvalidGrant("redirect_uri does not match")
	case authInfo.Used:
		return nil, oauth2.InvalidGrant("code already used")
	case !authInfo.ExpiresAt.IsZero() && authInfo.ExpiresAt.Before(now):
		return nil, oauth2.InvalidGrant("code expired")
	}

	// mark used before issuing tokens so a concurrent replay of the same
	// code observes the used state (spec.md §5, invariant I1).
	if err := p.DataHandler.MarkAuthInfoUsed(ctx, authInfo); err != nil {
		return nil, hostError(p, err, oauth2.InvalidGrant("code already used"), oauth2.InvalidGrant("code already used"))
	}

	at, err := p.DataHandler.CreateOrUpdateAccessToken(ctx, authInfo, true, p.RotateRefreshTokens)
	if err != nil {
		return nil, hostError(p, err, oauth2.ServerError(""), oauth2.AccessDenied(""))
	}

	return tokenResponse(at, p.AccessTokenLifespan), nil
}

// RefreshTokenFlow implements the refresh_token grant (spec.md §4.4): the
// presented refresh token is exchanged for a new access token, optionally
// narrowing its scope.
type RefreshTokenFlow struct{}

// GrantType implements Flow.
func (f *RefreshTokenFlow) GrantType() oauth2.GrantType { return oauth2.RefreshTokenGrantType }

// HandleToken implements Flow.
func (f *RefreshTokenFlow) HandleToken(ctx context.Context, p *Policy, req *oauth2.TokenRequest, now time.Time) (*oauth2.TokenResponse, *oauth2.Error) {
	if req.RefreshToken == "" {
		return nil, oauth2.InvalidRequest("missing refresh_token")
	}

	client, oauthErr := authenticateClient(ctx, p, req, f.GrantType())
	if oauthErr != nil {
		return nil, oauthErr
	}

	authInfo, err := p.DataHandler.GetAuthInfoByRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, hostError(p, err, oauth2.InvalidGrant("unknown refresh token"), oauth2.InvalidGrant("unknown refresh token"))
	}

	if authInfo.ClientID != client.ID {
		return nil, oauth2.InvalidGrant("refresh token was not issued to this client")
	}

	if !authInfo.ExpiresAt.IsZero() && authInfo.ExpiresAt.Before(now) {
		return nil, oauth2.InvalidGrant("refresh token expired")
	}

	// a missing scope inherits the originally granted scope; otherwise the
	// requested scope must be a subset of it (spec.md §3, invariant I3).
	scope := req.Scope
	if scope.Empty() {
		scope = authInfo.Scope
	} else if !authInfo.Scope.Includes(scope) {
		return nil, oauth2.InvalidScope("scope exceeds the originally granted scope")
	}

	authInfo.Scope = scope

	at, err := p.DataHandler.CreateOrUpdateAccessToken(ctx, authInfo, true, p.RotateRefreshTokens)
	if err != nil {
		return nil, hostError(p, err, oauth2.ServerError(""), oauth2.AccessDenied(""))
	}

	return tokenResponse(at, p.AccessTokenLifespan), nil
}
