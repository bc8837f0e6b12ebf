package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallerID(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	_, err := CallerID(r)
	assert.ErrorIs(t, err, ErrUnauthorized)

	for _, bad := range []string{"abc", "-1", "0", "1.5"} {
		r.Header.Set(UserIDHeader, bad)
		_, err = CallerID(r)
		assert.ErrorIs(t, err, ErrUnauthorized, bad)
	}

	r.Header.Set(UserIDHeader, " 42 ")
	id, err := CallerID(r)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}
