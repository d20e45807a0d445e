package server

import (
	"github.com/hearth-oauth/oauth2/notary"
)

// AccessTokenKey is the notary.Key an access token is minted and verified
// as when a Policy or memstore.Store carries a Notary: the JWT's claims
// carry just enough of the grant to let the Authorizer fast-reject a
// tampered or signed-by-a-different-secret token before ever calling into
// the DataHandler (spec.md §5, §9 "Token issuance").
//
// GetAccessToken remains the authoritative check: the resolved record's
// ExpiresAt and existence in the host store decide admission, not this
// key's own Expiry.
type AccessTokenKey struct {
	notary.Base `json:"-" notary:"access_token,1h"`

	ClientID        string
	ResourceOwnerID string
}

// Validate implements notary.Key. The claims carried in the token are
// descriptive only; the data handler round trip is what actually decides
// whether the token is still valid.
func (k *AccessTokenKey) Validate() error {
	if k.ClientID == "" {
		return ErrInvalidAccessTokenKey
	}

	return nil
}
