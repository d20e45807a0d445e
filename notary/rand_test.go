package notary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRand(t *testing.T) {
	bytes, err := Rand(32)
	assert.NoError(t, err)
	assert.Len(t, bytes, 32)

	assert.NotPanics(t, func() {
		MustRand(32)
	})
}

func TestRandString(t *testing.T) {
	str, err := RandString(32)
	assert.NoError(t, err)
	assert.NotEmpty(t, str)

	other, err := RandString(32)
	assert.NoError(t, err)
	assert.NotEqual(t, str, other)

	assert.NotPanics(t, func() {
		MustRandString(32)
	})
}
