// Package id provides the identifier type shared by the clients, grants and
// tokens that flow through this module. It exists so the core stays
// storage-neutral: hosts are free to back the Data Handler with whatever
// database they like, as long as they can round-trip this type.
package id

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ID is the identifier type used for clients, authorization grants and
// tokens.
type ID = primitive.ObjectID

// Zero returns the zero identifier.
func Zero() ID {
	return ID{}
}

// New returns a new unique identifier.
func New() ID {
	return primitive.NewObjectID()
}

// Parse parses a hex encoded identifier.
func Parse(str string) (ID, error) {
	return primitive.ObjectIDFromHex(str)
}

// MustParse parses a hex encoded identifier and panics on error.
func MustParse(str string) ID {
	id, err := Parse(str)
	if err != nil {
		panic(err)
	}

	return id
}

// P returns a pointer to the provided identifier.
func P(id ID) *ID {
	return &id
}
