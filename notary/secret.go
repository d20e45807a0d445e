package notary

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// Secret wraps a byte secret to allow deriving sub-keys for distinct
// purposes (e.g. separate signing secrets per grant flow) from one root
// secret.
type Secret []byte

// Derive derives a sub-key using the given string as salt.
func (s Secret) Derive(str string) Secret {
	return s.DeriveBytes([]byte(str))
}

// DeriveBytes derives a sub-key using the given bytes as salt.
func (s Secret) DeriveBytes(bytes []byte) Secret {
	return pbkdf2.Key(s, bytes, 4096, 32, sha256.New)
}
