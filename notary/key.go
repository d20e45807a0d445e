package notary

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/hearth-oauth/oauth2/id"
)

// Key is the interface a value must implement to be issued or verified as a
// signed token by a Notary. Concrete key types embed Base as their first
// field and tag it with the token's name and default expiry, mirroring the
// struct-tag-driven registration pattern used for tokens throughout this
// module's grant flows.
type Key interface {
	// Validate checks the key's fields once they have been populated by
	// Verify, beyond the signature and expiry checks the Notary already
	// performs.
	Validate() error

	base() *Base
}

// Base carries the fields every issued key has: an identifier and an
// expiry. Embed it as the first field of a key struct.
type Base struct {
	ID     id.ID
	Expiry time.Time
}

func (b *Base) base() *Base {
	return b
}

var baseType = reflect.TypeOf(Base{})

type keyMeta struct {
	name   string
	expiry time.Duration
}

var (
	metaMutex sync.Mutex
	metaCache = map[reflect.Type]keyMeta{}
)

// meta parses the "notary" struct tag on a key's embedded Base field and
// returns the token's name and default expiry. Results are cached per type.
func meta(key Key) keyMeta {
	metaMutex.Lock()
	defer metaMutex.Unlock()

	typ := reflect.TypeOf(key)

	if m, ok := metaCache[typ]; ok {
		return m
	}

	field := typ.Elem().Field(0)

	if field.Type != baseType || !field.Anonymous || field.Name != "Base" {
		panic(`notary: expected an embedded "notary.Base" as the first struct field`)
	}

	if field.Tag.Get("json") != "-" {
		panic(`notary: expected a 'json:"-"' tag on the embedded Base`)
	}

	tag := strings.Split(field.Tag.Get("notary"), ",")
	if len(tag) != 2 || tag[0] == "" || tag[1] == "" {
		panic(`notary: expected a tag of the form 'notary:"name,expiry"' on the embedded Base`)
	}

	expiry, err := time.ParseDuration(tag[1])
	if err != nil {
		panic(fmt.Sprintf("notary: invalid expiry duration: %v", err))
	}

	m := keyMeta{name: tag[0], expiry: expiry}
	metaCache[typ] = m

	return m
}
