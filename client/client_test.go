package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oauth2 "github.com/hearth-oauth/oauth2"
)

func TestClientAuthenticateSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client1", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret1", r.PostForm.Get("client_secret"))
		assert.Equal(t, "foo bar", r.PostForm.Get("scope"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"Bearer","access_token":"AT1","expires_in":3600,"scope":"foo bar"}`))
	}))
	defer server.Close()

	c := New(Config{BaseURI: server.URL, TokenEndpoint: "/oauth2/token"})

	res, err := c.Authenticate(context.Background(), TokenRequest{
		GrantType:    oauth2.ClientCredentialsGrantType,
		ClientID:     "client1",
		ClientSecret: "secret1",
		Scope:        oauth2.ParseScope("foo bar"),
	})
	require.NoError(t, err)
	assert.Equal(t, "AT1", res.AccessToken)
	assert.Equal(t, 3600, res.ExpiresIn)
	assert.Equal(t, "foo bar", res.Scope.String())

	require.NotNil(t, c.LastRequest())
	require.NotNil(t, c.LastResponse())
	assert.Equal(t, http.StatusOK, c.LastResponse().StatusCode)
}

func TestClientAuthenticateProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"code already used"}`))
	}))
	defer server.Close()

	c := New(Config{BaseURI: server.URL, TokenEndpoint: "/oauth2/token"})

	res, err := c.Authenticate(context.Background(), TokenRequest{
		GrantType: oauth2.AuthorizationCodeGrantType,
		Code:      "XYZ",
	})
	assert.Nil(t, res)
	require.Error(t, err)

	oauthErr, ok := err.(*oauth2.Error)
	require.True(t, ok)
	assert.Equal(t, oauth2.ErrorInvalidGrant, oauthErr.Code)
	assert.Equal(t, http.StatusBadRequest, oauthErr.Status)
}

func TestClientAuthenticateTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	c := New(Config{BaseURI: server.URL, TokenEndpoint: "/oauth2/token"})

	res, err := c.Authenticate(context.Background(), TokenRequest{GrantType: oauth2.ClientCredentialsGrantType})
	assert.Nil(t, res)
	require.Error(t, err)

	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestClientAuthenticateUnreachable(t *testing.T) {
	c := New(Config{BaseURI: "http://127.0.0.1:1", TokenEndpoint: "/oauth2/token"})

	res, err := c.Authenticate(context.Background(), TokenRequest{GrantType: oauth2.ClientCredentialsGrantType})
	assert.Nil(t, res)

	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}
