package server

import "context"

type contextKey int

// accessTokenContextKey is the key used to store the resolved access token
// and auth info on a request's context once the Authorizer middleware has
// admitted it.
const accessTokenContextKey contextKey = iota

// Grant bundles the access token and the auth info it was issued from, as
// attached to the request context by Authorizer.
type Grant struct {
	AccessToken *AccessToken
	AuthInfo    *AuthInfo
}

// GrantFromContext returns the Grant attached by Authorizer, if any.
func GrantFromContext(ctx context.Context) (*Grant, bool) {
	grant, ok := ctx.Value(accessTokenContextKey).(*Grant)
	return grant, ok
}

func withGrant(ctx context.Context, grant *Grant) context.Context {
	return context.WithValue(ctx, accessTokenContextKey, grant)
}
