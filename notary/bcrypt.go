package notary

import "golang.org/x/crypto/bcrypt"

// Hash computes a bcrypt hash of str, suitable for storing a client secret
// or resource owner password.
func Hash(str string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(str), bcrypt.DefaultCost)
}

// MustHash calls Hash and panics on error.
func MustHash(str string) []byte {
	hash, err := Hash(str)
	if err != nil {
		panic(err)
	}

	return hash
}

// Compare reports whether str hashes to hash, returning nil on a match and
// bcrypt.ErrMismatchedHashAndPassword otherwise.
func Compare(hash []byte, str string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(str))
}
