package oauth2

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKnownGrantType(t *testing.T) {
	assert.True(t, KnownGrantType("client_credentials"))
	assert.True(t, KnownGrantType("password"))
	assert.True(t, KnownGrantType("authorization_code"))
	assert.True(t, KnownGrantType("refresh_token"))
	assert.True(t, KnownGrantType("urn:ietf:params:oauth:grant-type:device_code"))
	assert.False(t, KnownGrantType("implicit"))
	assert.False(t, KnownGrantType(""))
}

func TestKnownResponseType(t *testing.T) {
	assert.True(t, KnownResponseType("code"))
	assert.True(t, KnownResponseType("token"))
	assert.False(t, KnownResponseType("id_token"))
	assert.False(t, KnownResponseType(""))
}
