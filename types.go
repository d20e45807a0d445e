package oauth2

// GrantType identifies a token endpoint grant flow.
type GrantType string

// The built-in grant types understood by the registry in package server.
const (
	ClientCredentialsGrantType GrantType = "client_credentials"
	PasswordGrantType          GrantType = "password"
	AuthorizationCodeGrantType GrantType = "authorization_code"
	RefreshTokenGrantType      GrantType = "refresh_token"
	DeviceCodeGrantType        GrantType = "urn:ietf:params:oauth:grant-type:device_code"
)

// KnownGrantType returns whether the grant type is part of the closed set
// this module implements.
func KnownGrantType(typ string) bool {
	switch GrantType(typ) {
	case ClientCredentialsGrantType, PasswordGrantType, AuthorizationCodeGrantType,
		RefreshTokenGrantType, DeviceCodeGrantType:
		return true
	default:
		return false
	}
}

// ResponseType identifies an authorization endpoint response type.
type ResponseType string

// The built-in response types understood by the authorization endpoint.
const (
	CodeResponseType  ResponseType = "code"
	TokenResponseType ResponseType = "token"
)

// KnownResponseType returns whether the response type is part of the closed
// set this module implements.
func KnownResponseType(typ string) bool {
	switch ResponseType(typ) {
	case CodeResponseType, TokenResponseType:
		return true
	default:
		return false
	}
}
