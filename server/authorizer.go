package server

import (
	"net/http"
	"time"

	"github.com/256dpi/xo"

	oauth2 "github.com/hearth-oauth/oauth2"
	"github.com/hearth-oauth/oauth2/bearer"
)

// Authorizer returns middleware that requires a valid bearer token carrying
// the given scope, attaching the resolved Grant to the request context
// (spec.md §4.6). If force is false, a request with no bearer material at
// all is passed through unauthenticated rather than rejected, letting a
// handler distinguish "no credentials" from "bad credentials" itself.
func (e *Endpoint) Authorizer(scope string, force bool) func(http.Handler) http.Handler {
	required := oauth2.ParseScope(scope)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, carrier, err := bearer.ExtractToken(r)
			if err != nil {
				bearer.WriteError(w, e.policy.Realm, err.(*bearer.Error))
				return
			}

			if carrier == bearer.CarrierNone {
				if !force {
					next.ServeHTTP(w, r)
					return
				}

				bearer.WriteError(w, e.policy.Realm, bearer.InvalidToken("missing bearer token"))
				return
			}

			defer xo.Resume(func(err error) {
				if bearerErr, ok := err.(*bearer.Error); ok {
					bearer.WriteError(w, e.policy.Realm, bearerErr)
					return
				}

				if e.policy.Reporter != nil {
					e.policy.Reporter(err)
				}

				bearer.WriteError(w, e.policy.Realm, bearer.ServerError())
			})

			// when the policy carries a Notary, fast-reject a token that
			// fails signature or issuer verification before ever calling
			// into the data handler. GetAccessToken below remains the
			// authoritative check either way.
			if e.policy.Notary != nil {
				var key AccessTokenKey
				if err := e.policy.Notary.Verify(&key, token); err != nil {
					xo.Abort(bearer.InvalidToken("unknown token"))
				}
			}

			at, err := e.policy.DataHandler.GetAccessToken(r.Context(), token)
			if err != nil {
				xo.Abort(bearer.InvalidToken("unknown token"))
			}

			if !at.ExpiresAt.IsZero() && at.ExpiresAt.Before(time.Now()) {
				xo.Abort(bearer.InvalidToken("expired token"))
			}

			if !at.Scope.Includes(required) {
				xo.Abort(bearer.InsufficientScope(required.String()))
			}

			var authInfo *AuthInfo
			if at.ID != "" {
				authInfo, _ = e.policy.DataHandler.GetAuthInfoByID(r.Context(), at.ID)
			}

			ctx := withGrant(r.Context(), &Grant{AccessToken: at, AuthInfo: authInfo})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
