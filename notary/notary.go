// Package notary issues and verifies signed, stateless tokens: a Key is
// carried as an HS256 JSON Web Token. In this module access tokens can be
// issued as Keys (server.AccessTokenKey); refresh tokens, authorization
// codes and device codes are random strings from Rand.
package notary

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hearth-oauth/oauth2/id"
)

// Notary issues and verifies keys under a fixed issuer name and secret.
type Notary struct {
	issuer string
	secret []byte
}

// New creates a Notary. It panics if name is empty or secret is shorter than
// 16 bytes, since a short secret would make HS256 signatures brute-forceable.
func New(name string, secret []byte) *Notary {
	if name == "" {
		panic("notary: missing name")
	}

	if len(secret) < minSecretLen {
		panic("notary: missing or too short secret")
	}

	return &Notary{issuer: name, secret: secret}
}

// Issue generates a signed token from the given key. If the key's ID or
// Expiry are zero, they are filled in: a fresh ID and the key type's
// registered default expiry.
func (n *Notary) Issue(key Key) (string, error) {
	m := meta(key)
	base := key.base()

	if base.ID.IsZero() {
		base.ID = id.New()
	}

	if base.Expiry.IsZero() {
		base.Expiry = time.Now().Add(m.expiry)
	}

	if err := key.Validate(); err != nil {
		return "", err
	}

	data, err := toData(key)
	if err != nil {
		return "", err
	}

	return Issue(n.secret, n.issuer, m.name, RawKey{
		ID:     base.ID.Hex(),
		Expiry: base.Expiry,
		Data:   data,
	})
}

// Verify checks the token's signature, issuer and expiry, and fills key with
// its decoded contents.
func (n *Notary) Verify(key Key, token string) error {
	m := meta(key)

	rawKey, err := Verify(n.secret, n.issuer, m.name, token)
	if err != nil {
		return err
	}

	kid, err := id.Parse(rawKey.ID)
	if err != nil {
		return ErrInvalidToken
	}

	if kid.IsZero() {
		return ErrInvalidToken
	}

	if err := fromData(rawKey.Data, key); err != nil {
		return err
	}

	key.base().ID = kid
	key.base().Expiry = rawKey.Expiry

	return key.Validate()
}

// toData marshals a key's non-Base fields into a generic token payload.
func toData(key Key) (Data, error) {
	raw, err := json.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("notary: encode key: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("notary: encode key: %w", err)
	}

	return data, nil
}

// fromData assigns a decoded token payload back onto a key's non-Base
// fields.
func fromData(data Data, key Key) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("notary: decode key: %w", err)
	}

	if err := json.Unmarshal(raw, key); err != nil {
		return fmt.Errorf("notary: decode key: %w", err)
	}

	return nil
}
