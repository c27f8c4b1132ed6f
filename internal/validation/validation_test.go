package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldErrorsCollect(t *testing.T) {
	var fe FieldErrors
	assert.NoError(t, fe.Err())
	fe.Add("email", "must be valid")
	fe.Add("properties.version", "must be a positive integer")
	fe.Add("email", "can't be blank")

	assert.True(t, fe.Has("email"))
	assert.Equal(t, []string{"must be valid", "can't be blank"}, fe.Messages("email"))
	assert.Len(t, fe.ByField(), 2)
	assert.Equal(t, "validation failed: email must be valid; properties.version must be a positive integer; email can't be blank", fe.Error())

	var target FieldErrors
	require.True(t, errors.As(fe.Err(), &target))
	assert.Len(t, target, 3)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": Validating, "validate": Validating, "Draft": Draft} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("preview")
	assert.Error(t, err)
}
