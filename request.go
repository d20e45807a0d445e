package oauth2

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// Carrier identifies which part of an HTTP request supplied a credential or
// parameter.
type Carrier int

// The closed set of carriers a credential or bearer token may travel in.
const (
	CarrierNone Carrier = iota
	CarrierHeader
	CarrierBody
	CarrierQuery
)

// Credentials is the tagged client credential carrier produced by
// ExtractCredentials.
type Credentials struct {
	ID      string
	Secret  string
	Carrier Carrier
}

// ExtractCredentials extracts client credentials from at most one of the
// Authorization header, the request body or the query string, per
// spec.md §4.1. It fails with invalid_request if credentials appear in more
// than one carrier, or if the Authorization header uses a scheme other than
// Basic or OAuth/Bearer.
func ExtractCredentials(r *http.Request, body, query map[string][]string) (*Credentials, error) {
	var found []*Credentials

	if header := r.Header.Get("Authorization"); header != "" {
		creds, err := parseAuthorizationHeader(header)
		if err != nil {
			return nil, err
		}

		if creds != nil {
			found = append(found, creds)
		}
	}

	if id, secret, ok := firstPair(body, "client_id", "client_secret"); ok {
		found = append(found, &Credentials{ID: id, Secret: secret, Carrier: CarrierBody})
	}

	if id, secret, ok := firstPair(query, "client_id", "client_secret"); ok {
		found = append(found, &Credentials{ID: id, Secret: secret, Carrier: CarrierQuery})
	}

	if len(found) > 1 {
		return nil, InvalidRequest("client credentials supplied in more than one carrier")
	}

	if len(found) == 0 {
		return &Credentials{Carrier: CarrierNone}, nil
	}

	return found[0], nil
}

func parseAuthorizationHeader(header string) (*Credentials, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return nil, InvalidRequest("malformed authorization header")
	}

	scheme, value := parts[0], parts[1]

	switch strings.ToLower(scheme) {
	case "basic":
		raw, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, InvalidRequest("malformed basic credentials")
		}

		pair := strings.SplitN(string(raw), ":", 2)
		if len(pair) != 2 {
			return nil, InvalidRequest("malformed basic credentials")
		}

		return &Credentials{ID: pair[0], Secret: pair[1], Carrier: CarrierHeader}, nil
	case "oauth", "bearer":
		// a bearer-scheme Authorization header carries a token, not client
		// credentials; the caller (bearer package) handles that carrier.
		return nil, nil
	default:
		return nil, InvalidRequest("unsupported authorization scheme")
	}
}

// firstPair returns the id/secret pair from a param map if the id key is
// present.
func firstPair(params map[string][]string, idKey, secretKey string) (string, string, bool) {
	ids, ok := params[idKey]
	if !ok || len(ids) == 0 {
		return "", "", false
	}

	var secret string
	if secrets, ok := params[secretKey]; ok && len(secrets) > 0 {
		secret = secrets[0]
	}

	return ids[0], secret, true
}

// mergeParam resolves a parameter that may appear in both the body and the
// query string. Body takes precedence; differing values are a conflict.
func mergeParam(body, query map[string][]string, name string) (string, bool, error) {
	bodyValues, inBody := body[name]
	queryValues, inQuery := query[name]

	switch {
	case inBody && inQuery:
		if len(bodyValues) > 0 && len(queryValues) > 0 && bodyValues[0] != queryValues[0] {
			return "", false, InvalidRequest("conflicting values for " + name)
		}

		if len(bodyValues) > 0 {
			return bodyValues[0], true, nil
		}

		return first(queryValues), true, nil
	case inBody:
		return first(bodyValues), true, nil
	case inQuery:
		return first(queryValues), true, nil
	default:
		return "", false, nil
	}
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

// TokenRequest is the parsed token endpoint request described in
// spec.md §6.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Scope        Scope
	Username     string
	Password     string
	Code         string
	RedirectURI  string
	RefreshToken string
	DeviceCode   string
	Format       Format

	// CredentialCarrier records which carrier supplied the client
	// credentials, so the dispatcher can decide whether an invalid_client
	// error should be rendered with a Basic WWW-Authenticate challenge.
	CredentialCarrier Carrier
}

// ParseTokenRequest parses and validates a token endpoint request per
// spec.md §4.1 and §6. ParseTokenRequest calls r.ParseForm itself, so the
// request can be passed straight from an http.Handler.
func ParseTokenRequest(r *http.Request) (*TokenRequest, error) {
	if r.Method != http.MethodPost {
		return nil, InvalidRequest("token endpoint requires POST")
	}

	if err := r.ParseForm(); err != nil {
		return nil, InvalidRequest("malformed request body")
	}

	body := map[string][]string(r.PostForm)
	query := map[string][]string(r.URL.Query())

	for name, bodyValues := range body {
		if queryValues, ok := query[name]; ok {
			if len(bodyValues) > 0 && len(queryValues) > 0 && bodyValues[0] != queryValues[0] {
				return nil, InvalidRequest("conflicting values for " + name)
			}
		}
	}

	creds, err := ExtractCredentials(r, body, query)
	if err != nil {
		return nil, err
	}

	grantType, ok, err := mergeParam(body, query, "grant_type")
	if err != nil {
		return nil, err
	}

	if !ok || grantType == "" {
		return nil, InvalidRequest("missing grant_type")
	}

	scope, _, err := mergeParam(body, query, "scope")
	if err != nil {
		return nil, err
	}

	username, _, err := mergeParam(body, query, "username")
	if err != nil {
		return nil, err
	}

	password, _, err := mergeParam(body, query, "password")
	if err != nil {
		return nil, err
	}

	code, _, err := mergeParam(body, query, "code")
	if err != nil {
		return nil, err
	}

	redirectURI, _, err := mergeParam(body, query, "redirect_uri")
	if err != nil {
		return nil, err
	}

	refreshToken, _, err := mergeParam(body, query, "refresh_token")
	if err != nil {
		return nil, err
	}

	deviceCode, _, err := mergeParam(body, query, "device_code")
	if err != nil {
		return nil, err
	}

	formatParam, _, err := mergeParam(body, query, "format")
	if err != nil {
		return nil, err
	}

	format, err := ParseFormat(formatParam)
	if err != nil {
		return nil, err
	}

	clientID := creds.ID
	clientSecret := creds.Secret
	if creds.Carrier == CarrierNone {
		// credentials may still travel as plain client_id (public client,
		// no secret) in the body or query alongside grant-specific params.
		if id, ok2, _ := mergeParam(body, query, "client_id"); ok2 {
			clientID = id
		}

		if secret, ok2, _ := mergeParam(body, query, "client_secret"); ok2 {
			clientSecret = secret
		}
	}

	return &TokenRequest{
		GrantType:         grantType,
		ClientID:          clientID,
		ClientSecret:      clientSecret,
		Scope:             ParseScope(scope),
		Username:          username,
		Password:          password,
		Code:              code,
		RedirectURI:       redirectURI,
		RefreshToken:      refreshToken,
		DeviceCode:        deviceCode,
		Format:            format,
		CredentialCarrier: creds.Carrier,
	}, nil
}

// AuthorizationRequest is the parsed end-user (authorization) endpoint
// request described in spec.md §6.
type AuthorizationRequest struct {
	ResponseType string
	ClientID     string
	RedirectURI  string
	Scope        Scope
	State        string
}

// ParseAuthorizationRequest parses an authorization endpoint request. Per
// spec.md §4.5 both GET and POST are accepted; parameters may appear in the
// query string for either method, or additionally in the body for POST.
func ParseAuthorizationRequest(r *http.Request) (*AuthorizationRequest, error) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		return nil, InvalidRequest("authorization endpoint requires GET or POST")
	}

	if err := r.ParseForm(); err != nil {
		return nil, InvalidRequest("malformed request")
	}

	body := map[string][]string(r.PostForm)
	query := map[string][]string(r.URL.Query())

	responseType, _, err := mergeParam(body, query, "response_type")
	if err != nil {
		return nil, err
	}

	clientID, _, err := mergeParam(body, query, "client_id")
	if err != nil {
		return nil, err
	}

	redirectURI, _, err := mergeParam(body, query, "redirect_uri")
	if err != nil {
		return nil, err
	}

	scope, _, err := mergeParam(body, query, "scope")
	if err != nil {
		return nil, err
	}

	state, _, err := mergeParam(body, query, "state")
	if err != nil {
		return nil, err
	}

	return &AuthorizationRequest{
		ResponseType: responseType,
		ClientID:     clientID,
		RedirectURI:  redirectURI,
		Scope:        ParseScope(scope),
		State:        state,
	}, nil
}
