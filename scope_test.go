package oauth2

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseScope(t *testing.T) {
	assert.Equal(t, Scope{"foo", "bar"}, ParseScope("foo bar"))
	assert.Nil(t, ParseScope(""))
}

func TestScopeString(t *testing.T) {
	assert.Equal(t, "foo bar", Scope{"foo", "bar"}.String())
	assert.Equal(t, "", Scope(nil).String())
}

func TestScopeEmpty(t *testing.T) {
	assert.True(t, Scope(nil).Empty())
	assert.True(t, Scope{}.Empty())
	assert.False(t, Scope{"foo"}.Empty())
}

func TestScopeIncludes(t *testing.T) {
	scope := Scope{"foo", "bar", "baz"}

	assert.True(t, scope.Includes(Scope{"foo"}))
	assert.True(t, scope.Includes(Scope{"foo", "bar"}))
	assert.True(t, scope.Includes(nil))
	assert.False(t, scope.Includes(Scope{"qux"}))
	assert.False(t, scope.Includes(Scope{"foo", "qux"}))
}

func TestScopeEquals(t *testing.T) {
	assert.True(t, Scope{"foo", "bar"}.Equals(Scope{"bar", "foo"}))
	assert.False(t, Scope{"foo", "bar"}.Equals(Scope{"foo"}))
	assert.False(t, Scope{"foo"}.Equals(Scope{"foo", "bar"}))
}

func TestScopeMarshalJSON(t *testing.T) {
	data, err := Scope{"foo", "bar"}.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `"foo bar"`, string(data))

	data, err = Scope(nil).MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `""`, string(data))
}

func TestScopeUnmarshalJSON(t *testing.T) {
	var scope Scope
	assert.NoError(t, scope.UnmarshalJSON([]byte(`"foo bar"`)))
	assert.Equal(t, Scope{"foo", "bar"}, scope)

	assert.Error(t, scope.UnmarshalJSON([]byte(`123`)))
}
