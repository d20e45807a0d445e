package notary

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const minSecretLen = 16

var signingMethod = jwt.SigningMethodHS256

var parser = jwt.NewParser(jwt.WithValidMethods([]string{signingMethod.Name}))

// ErrInvalidToken is returned when a token fails signature, issuer, audience
// or structural validation.
var ErrInvalidToken = errors.New("notary: invalid token")

// ErrExpiredToken is returned when a token is otherwise valid but expired.
var ErrExpiredToken = errors.New("notary: expired token")

// Data is an opaque JSON payload carried inside a token, holding the key's
// own fields.
type Data map[string]interface{}

// RawKey is the low-level, type-erased representation of an issued token.
type RawKey struct {
	ID     string
	Expiry time.Time
	Data   Data
}

type claims struct {
	Issuer    string `json:"iss,omitempty"`
	Audience  string `json:"aud,omitempty"`
	ID        string `json:"jti,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	Data      Data   `json:"dat,omitempty"`
}

func (c claims) Valid() error {
	if c.Issuer == "" {
		return fmt.Errorf("missing issuer")
	}

	if c.Audience == "" {
		return fmt.Errorf("missing audience")
	}

	if c.ID == "" {
		return fmt.Errorf("missing id")
	}

	now := time.Now().Unix()

	if c.IssuedAt > now {
		return fmt.Errorf("used before issued")
	}

	if c.ExpiresAt < now {
		return jwt.NewValidationError("token is expired", jwt.ValidationErrorExpired)
	}

	return nil
}

// Issue signs a token from the given raw key using HS256.
func Issue(secret []byte, issuer, name string, key RawKey) (string, error) {
	if len(secret) < minSecretLen {
		return "", fmt.Errorf("notary: secret too small")
	}

	if issuer == "" {
		return "", fmt.Errorf("notary: missing issuer")
	}

	if name == "" {
		return "", fmt.Errorf("notary: missing name")
	}

	if key.ID == "" {
		return "", fmt.Errorf("notary: missing id")
	}

	if key.Expiry.IsZero() {
		return "", fmt.Errorf("notary: missing expiry")
	}

	token := jwt.NewWithClaims(signingMethod, claims{
		Issuer:    issuer,
		Audience:  name,
		ID:        key.ID,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: key.Expiry.Unix(),
		Data:      key.Data,
	})

	return token.SignedString(secret)
}

// Verify checks the signature, issuer, audience and expiry of a token and
// returns its decoded raw key.
func Verify(secret []byte, issuer, name, token string) (*RawKey, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("notary: secret too small")
	}

	if issuer == "" {
		return nil, fmt.Errorf("notary: missing issuer")
	}

	if name == "" {
		return nil, fmt.Errorf("notary: missing name")
	}

	var c claims

	parsed, err := parser.ParseWithClaims(token, &c, func(_ *jwt.Token) (interface{}, error) {
		return secret, nil
	})

	var valErr *jwt.ValidationError
	if errors.As(err, &valErr) {
		if valErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrExpiredToken
		}

		return nil, ErrInvalidToken
	} else if err != nil {
		return nil, err
	} else if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if c.Issuer != issuer {
		return nil, ErrInvalidToken
	}

	if c.Audience != name {
		return nil, ErrInvalidToken
	}

	return &RawKey{
		ID:     c.ID,
		Expiry: time.Unix(c.ExpiresAt, 0),
		Data:   c.Data,
	}, nil
}
