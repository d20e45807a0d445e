// Package revocation implements the token revocation endpoint described in
// spec.md §9's supplemental feature list: a client asks that a token it
// holds be invalidated ahead of its natural expiry.
package revocation

import (
	"net/http"

	oauth2 "github.com/hearth-oauth/oauth2"
)

// TokenTypeHint identifies which kind of token is being revoked, letting a
// host avoid scanning both access and refresh token stores.
type TokenTypeHint string

// The token type hints recognized by the revocation endpoint.
const (
	AccessTokenHint  TokenTypeHint = "access_token"
	RefreshTokenHint TokenTypeHint = "refresh_token"
)

// Request is a parsed revocation endpoint request.
type Request struct {
	Token             string
	TokenTypeHint     TokenTypeHint
	ClientID          string
	ClientSecret      string
	CredentialCarrier oauth2.Carrier
}

// ParseRequest parses a revocation request. The token parameter is
// mandatory; client credentials follow the same carrier rules as the token
// endpoint (spec.md §4.1).
func ParseRequest(r *http.Request) (*Request, error) {
	if r.Method != http.MethodPost {
		return nil, oauth2.InvalidRequest("revocation endpoint requires POST")
	}

	if err := r.ParseForm(); err != nil {
		return nil, oauth2.InvalidRequest("malformed request body")
	}

	body := map[string][]string(r.PostForm)
	query := map[string][]string(r.URL.Query())

	creds, err := oauth2.ExtractCredentials(r, body, query)
	if err != nil {
		return nil, err
	}

	token := first(body["token"])
	if token == "" {
		token = first(query["token"])
	}

	if token == "" {
		return nil, oauth2.InvalidRequest("missing token")
	}

	hint := TokenTypeHint(first(body["token_type_hint"]))
	if hint == "" {
		hint = TokenTypeHint(first(query["token_type_hint"]))
	}

	switch hint {
	case "", AccessTokenHint, RefreshTokenHint:
	default:
		return nil, oauth2.InvalidRequest("unsupported token_type_hint")
	}

	clientID := creds.ID
	clientSecret := creds.Secret
	if creds.Carrier == oauth2.CarrierNone {
		clientID = first(body["client_id"])
		if clientID == "" {
			clientID = first(query["client_id"])
		}

		clientSecret = first(body["client_secret"])
		if clientSecret == "" {
			clientSecret = first(query["client_secret"])
		}
	}

	return &Request{
		Token:             token,
		TokenTypeHint:     hint,
		ClientID:          clientID,
		ClientSecret:      clientSecret,
		CredentialCarrier: creds.Carrier,
	}, nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

// WriteSuccess writes the empty 200 response mandated for a revocation
// request, whether or not a matching token was actually found (spec.md §9:
// revocation never reveals token existence to the caller).
func WriteSuccess(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusOK)
}
