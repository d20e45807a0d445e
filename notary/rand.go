package notary

import (
	"crypto/rand"
	"encoding/base64"
	"io"

	"github.com/256dpi/xo"
)

// Rand returns n secure random bytes, used to generate opaque authorization
// codes and device codes that are not themselves signed tokens.
func Rand(n int) ([]byte, error) {
	bytes := make([]byte, n)

	if _, err := io.ReadFull(rand.Reader, bytes); err != nil {
		return nil, xo.W(err)
	}

	return bytes, nil
}

// MustRand calls Rand and panics on error.
func MustRand(n int) []byte {
	bytes, err := Rand(n)
	if err != nil {
		panic(err.Error())
	}

	return bytes
}

// RandString returns n secure random bytes, URL-safe base64 encoded.
func RandString(n int) (string, error) {
	bytes, err := Rand(n)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// MustRandString calls RandString and panics on error.
func MustRandString(n int) string {
	str, err := RandString(n)
	if err != nil {
		panic(err.Error())
	}

	return str
}
