package oauth2

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formRequest(t *testing.T, body, query string) *http.Request {
	target := "/token"
	if query != "" {
		target += "?" + query
	}

	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, r.ParseForm())

	return r
}

func TestExtractCredentialsBasic(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/token", nil)
	r.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("client1:sec:ret")))

	creds, err := ExtractCredentials(r, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "client1", creds.ID)
	assert.Equal(t, "sec:ret", creds.Secret)
	assert.Equal(t, CarrierHeader, creds.Carrier)
}

func TestExtractCredentialsMalformedBasic(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/token", nil)
	r.Header.Set("Authorization", "Basic not-base64!")

	_, err := ExtractCredentials(r, nil, nil)
	assert.Error(t, err)
}

func TestExtractCredentialsUnsupportedScheme(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/token", nil)
	r.Header.Set("Authorization", "Digest foo")

	_, err := ExtractCredentials(r, nil, nil)
	assert.Error(t, err)
}

func TestExtractCredentialsBearerSchemeIgnored(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/token", nil)
	r.Header.Set("Authorization", "Bearer sometoken")

	creds, err := ExtractCredentials(r, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, CarrierNone, creds.Carrier)
}

func TestExtractCredentialsBody(t *testing.T) {
	body := map[string][]string{"client_id": {"c1"}, "client_secret": {"s1"}}

	creds, err := ExtractCredentials(httptest.NewRequest(http.MethodPost, "/token", nil), body, nil)
	require.NoError(t, err)
	assert.Equal(t, "c1", creds.ID)
	assert.Equal(t, CarrierBody, creds.Carrier)
}

func TestExtractCredentialsConflict(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/token", nil)
	r.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("c1:s1")))

	body := map[string][]string{"client_id": {"c1"}, "client_secret": {"s1"}}

	_, err := ExtractCredentials(r, body, nil)
	assert.Error(t, err)
}

func TestExtractCredentialsNone(t *testing.T) {
	creds, err := ExtractCredentials(httptest.NewRequest(http.MethodPost, "/token", nil), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, CarrierNone, creds.Carrier)
}

func TestParseTokenRequestBasic(t *testing.T) {
	r := formRequest(t, "grant_type=client_credentials&scope=foo+bar", "")
	r.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("client1:secret1")))

	req, err := ParseTokenRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "client_credentials", req.GrantType)
	assert.Equal(t, "client1", req.ClientID)
	assert.Equal(t, "secret1", req.ClientSecret)
	assert.Equal(t, Scope{"foo", "bar"}, req.Scope)
	assert.Equal(t, CarrierHeader, req.CredentialCarrier)
	assert.Equal(t, FormatJSON, req.Format)
}

func TestParseTokenRequestRequiresPost(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/token", nil)

	_, err := ParseTokenRequest(r)
	assert.Error(t, err)
}

func TestParseTokenRequestMissingGrantType(t *testing.T) {
	r := formRequest(t, "client_id=c1", "")

	_, err := ParseTokenRequest(r)
	assert.Error(t, err)
}

func TestParseTokenRequestConflictingParams(t *testing.T) {
	r := formRequest(t, "grant_type=client_credentials&scope=foo", "scope=bar")

	_, err := ParseTokenRequest(r)
	assert.Error(t, err)
}

func TestParseTokenRequestQueryFallback(t *testing.T) {
	r := formRequest(t, "", "grant_type=refresh_token&refresh_token=RT1")

	req, err := ParseTokenRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "refresh_token", req.GrantType)
	assert.Equal(t, "RT1", req.RefreshToken)
}

func TestParseTokenRequestUnknownFormat(t *testing.T) {
	r := formRequest(t, "grant_type=client_credentials&format=yaml", "")

	_, err := ParseTokenRequest(r)
	assert.Error(t, err)
}

func TestParseAuthorizationRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/authorize?response_type=code&client_id=c1&redirect_uri=https%3A%2F%2Fapp%2Fcb&scope=foo&state=xyz", nil)

	req, err := ParseAuthorizationRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "code", req.ResponseType)
	assert.Equal(t, "c1", req.ClientID)
	assert.Equal(t, "https://app/cb", req.RedirectURI)
	assert.Equal(t, Scope{"foo"}, req.Scope)
	assert.Equal(t, "xyz", req.State)
}

func TestParseAuthorizationRequestRequiresGetOrPost(t *testing.T) {
	r := httptest.NewRequest(http.MethodDelete, "/authorize", nil)

	_, err := ParseAuthorizationRequest(r)
	assert.Error(t, err)
}
