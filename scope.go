package oauth2

import (
	"encoding/json"
	"strings"
)

// Scope is a set of space-delimited permission strings. Order carries no
// meaning; only set membership does.
type Scope []string

// ParseScope parses a space-delimited scope string.
func ParseScope(str string) Scope {
	if str == "" {
		return nil
	}

	return Scope(strings.Fields(str))
}

// String returns the space-delimited string representation.
func (s Scope) String() string {
	return strings.Join(s, " ")
}

// Empty returns whether the scope has no items.
func (s Scope) Empty() bool {
	return len(s) == 0
}

// Includes returns whether the scope includes all items of the subset.
func (s Scope) Includes(subset Scope) bool {
	for _, item := range subset {
		if !s.has(item) {
			return false
		}
	}

	return true
}

// Equals returns whether the scope has the exact same items as the other
// scope, ignoring order.
func (s Scope) Equals(other Scope) bool {
	return s.Includes(other) && other.Includes(s)
}

func (s Scope) has(item string) bool {
	for _, i := range s {
		if i == item {
			return true
		}
	}

	return false
}

// MarshalJSON encodes the scope as the space-delimited string spec.md §4.4's
// token response shape requires, not a JSON array.
func (s Scope) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a space-delimited scope string, the shape a token
// endpoint response carries it in.
func (s *Scope) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	*s = ParseScope(str)

	return nil
}
