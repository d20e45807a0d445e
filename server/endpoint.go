package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/256dpi/xo"

	oauth2 "github.com/hearth-oauth/oauth2"
	"github.com/hearth-oauth/oauth2/revocation"
)

// Endpoint dispatches the token and authorization endpoints described in
// spec.md §4.5, classifying each request and routing it to its flow (token
// endpoint) or to the end-user consent handling (authorization endpoint).
type Endpoint struct {
	policy   *Policy
	registry *Registry
}

// NewEndpoint creates an Endpoint backed by the given policy and flow
// registry.
func NewEndpoint(policy *Policy, registry *Registry) *Endpoint {
	return &Endpoint{policy: policy, registry: registry}
}

// Handler returns an http.Handler serving "token", "authorize" and "revoke"
// under prefix, mirroring a single mounted OAuth endpoint.
func (e *Endpoint) Handler(prefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer xo.Resume(func(err error) {
			if oauthErr, ok := err.(*oauth2.Error); ok {
				if redirectURL, ok := oauthErr.Redirect(); ok {
					http.Redirect(w, r, redirectURL, http.StatusFound)
					return
				}

				_ = oauth2.WriteError(w, oauth2.FormatJSON, oauthErr)
				return
			}

			if e.policy.Reporter != nil {
				e.policy.Reporter(err)
			}

			_ = oauth2.WriteError(w, oauth2.FormatJSON, oauth2.ServerError(""))
		})

		segments := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"), "/")

		if len(segments) > 0 {
			switch segments[0] {
			case "token":
				e.tokenEndpoint(w, r)
				return
			case "authorize":
				e.authorizationEndpoint(w, r)
				return
			case "revoke":
				e.revocationEndpoint(w, r)
				return
			}
		}

		w.WriteHeader(http.StatusNotFound)
	})
}

// TokenEndpoint serves the token endpoint alone, for hosts that mount it at
// its own path rather than through Handler.
func (e *Endpoint) TokenEndpoint() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer xo.Resume(func(err error) {
			if oauthErr, ok := err.(*oauth2.Error); ok {
				if redirectURL, ok := oauthErr.Redirect(); ok {
					http.Redirect(w, r, redirectURL, http.StatusFound)
					return
				}

				_ = oauth2.WriteError(w, oauth2.FormatJSON, oauthErr)
				return
			}

			if e.policy.Reporter != nil {
				e.policy.Reporter(err)
			}

			_ = oauth2.WriteError(w, oauth2.FormatJSON, oauth2.ServerError(""))
		})

		e.tokenEndpoint(w, r)
	})
}

func (e *Endpoint) tokenEndpoint(w http.ResponseWriter, r *http.Request) {
	req, err := oauth2.ParseTokenRequest(r)
	xo.AbortIf(err)

	if !oauth2.KnownGrantType(req.GrantType) {
		xo.Abort(oauth2.UnsupportedGrantType(""))
	}

	flow, ok := e.registry.Lookup(oauth2.GrantType(req.GrantType))
	if !ok {
		xo.Abort(oauth2.UnsupportedGrantType(""))
	}

	res, oauthErr := flow.HandleToken(r.Context(), e.policy, req, time.Now())
	if oauthErr != nil {
		xo.Abort(oauthErr)
	}

	xo.AbortIf(oauth2.WriteTokenResponse(w, req.Format, res))
}

func (e *Endpoint) revocationEndpoint(w http.ResponseWriter, r *http.Request) {
	req, err := revocation.ParseRequest(r)
	xo.AbortIf(err)

	if oauthErr := authenticateRevocationClient(r, e.policy, req); oauthErr != nil {
		xo.Abort(oauthErr)
	}

	xo.AbortIf(e.policy.DataHandler.RevokeToken(r.Context(), req.Token))

	revocation.WriteSuccess(w)
}

func authenticateRevocationClient(r *http.Request, p *Policy, req *revocation.Request) *oauth2.Error {
	if req.ClientID == "" {
		return nil
	}

	if _, err := p.DataHandler.ValidateClient(r.Context(), req.ClientID, req.ClientSecret, ""); err != nil {
		return hostError(p, err, oauth2.InvalidClient("unknown client"), oauth2.InvalidClient("unknown client"))
	}

	return nil
}

func (e *Endpoint) authorizationEndpoint(w http.ResponseWriter, r *http.Request) {
	req, err := oauth2.ParseAuthorizationRequest(r)
	xo.AbortIf(err)

	if !oauth2.KnownResponseType(req.ResponseType) {
		xo.Abort(oauth2.UnsupportedResponseType(""))
	}

	redirectURI, err := e.policy.DataHandler.ValidateRedirectURI(r.Context(), req.ClientID, req.RedirectURI)
	if err != nil {
		xo.Abort(hostError(e.policy, err, oauth2.InvalidRequest("invalid redirect uri"), oauth2.InvalidRequest("invalid redirect uri")))
	}

	switch oauth2.ResponseType(req.ResponseType) {
	case oauth2.TokenResponseType:
		if e.policy.AllowImplicitGrant {
			e.handleImplicitGrant(w, r, req, redirectURI)
			return
		}
	case oauth2.CodeResponseType:
		e.handleAuthorizationCodeGrant(w, r, req, redirectURI)
		return
	}

	xo.Abort(oauth2.UnsupportedResponseType("").SetRedirect(redirectURI, req.State, false))
}

// handleImplicitGrant authenticates the resource owner from the posted
// form and, on approval, redirects with the token in the URL fragment
// (spec.md §4.4 "User Agent / Implicit").
func (e *Endpoint) handleImplicitGrant(w http.ResponseWriter, r *http.Request, req *oauth2.AuthorizationRequest, redirectURI string) {
	if r.Method != http.MethodPost {
		xo.Abort(oauth2.InvalidRequest("authorization decision requires POST").SetRedirect(redirectURI, req.State, true))
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	resourceOwnerID, err := e.policy.DataHandler.GetUser(r.Context(), username, password)
	if err != nil {
		xo.Abort(oauth2.AccessDenied("").SetRedirect(redirectURI, req.State, true))
	}

	scope, err := e.policy.DataHandler.ValidateScope(r.Context(), req.ClientID, req.Scope)
	if err != nil {
		xo.Abort(hostError(e.policy, err, oauth2.InvalidScope(""), oauth2.InvalidScope("")).SetRedirect(redirectURI, req.State, true))
	}

	authInfo, err := e.policy.DataHandler.CreateOrUpdateAuthInfo(r.Context(), req.ClientID, resourceOwnerID, scope, redirectURI)
	if err != nil {
		xo.Abort(hostError(e.policy, err, oauth2.ServerError(""), oauth2.AccessDenied("")).SetRedirect(redirectURI, req.State, true))
	}

	at, err := e.policy.DataHandler.CreateOrUpdateAccessToken(r.Context(), authInfo, false, false)
	if err != nil {
		xo.Abort(hostError(e.policy, err, oauth2.ServerError(""), oauth2.AccessDenied("")).SetRedirect(redirectURI, req.State, true))
	}

	res := tokenResponse(at, e.policy.AccessTokenLifespan)

	values := map[string]string{
		"access_token": res.AccessToken,
		"token_type":   res.TokenType,
	}

	redirectWithFragment(w, redirectURI, req.State, values, res.ExpiresIn, res.Scope.String())
}

// handleAuthorizationCodeGrant authenticates the resource owner and, on
// approval, redirects with a freshly minted code in the query string
// (spec.md §4.4 "Authorization Code / Web Server").
func (e *Endpoint) handleAuthorizationCodeGrant(w http.ResponseWriter, r *http.Request, req *oauth2.AuthorizationRequest, redirectURI string) {
	if r.Method != http.MethodPost {
		xo.Abort(oauth2.InvalidRequest("authorization decision requires POST").SetRedirect(redirectURI, req.State, false))
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	resourceOwnerID, err := e.policy.DataHandler.GetUser(r.Context(), username, password)
	if err != nil {
		xo.Abort(oauth2.AccessDenied("").SetRedirect(redirectURI, req.State, false))
	}

	scope, err := e.policy.DataHandler.ValidateScope(r.Context(), req.ClientID, req.Scope)
	if err != nil {
		xo.Abort(hostError(e.policy, err, oauth2.InvalidScope(""), oauth2.InvalidScope("")).SetRedirect(redirectURI, req.State, false))
	}

	authInfo, err := e.policy.DataHandler.CreateOrUpdateAuthInfo(r.Context(), req.ClientID, resourceOwnerID, scope, redirectURI)
	if err != nil {
		xo.Abort(hostError(e.policy, err, oauth2.ServerError(""), oauth2.AccessDenied("")).SetRedirect(redirectURI, req.State, false))
	}

	values := url.Values{"code": {authInfo.Code}}
	if req.State != "" {
		values.Set("state", req.State)
	}

	http.Redirect(w, r, redirectURI+"?"+values.Encode(), http.StatusFound)
}

func redirectWithFragment(w http.ResponseWriter, redirectURI, state string, fields map[string]string, expiresIn int, scope string) {
	values := url.Values{
		"access_token": {fields["access_token"]},
		"token_type":   {fields["token_type"]},
		"expires_in":   {strconv.Itoa(expiresIn)},
	}

	if scope != "" {
		values.Set("scope", scope)
	}

	if state != "" {
		values.Set("state", state)
	}

	w.Header().Set("Location", redirectURI+"#"+values.Encode())
	w.WriteHeader(http.StatusFound)
}
