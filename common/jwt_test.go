package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	ti := NewTokenIssuer("secret", time.Hour)

	token, expiresAt, err := ti.Issue(42)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	userID, err := ti.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenIssuer_RejectsForeignKey(t *testing.T) {
	token, _, err := NewTokenIssuer("one", time.Hour).Issue(1)
	require.NoError(t, err)

	_, err = NewTokenIssuer("two", time.Hour).Validate(token)
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	ti := NewTokenIssuer("secret", -time.Minute)
	token, _, err := ti.Issue(1)
	require.NoError(t, err)

	_, err = ti.Validate(token)
	assert.Error(t, err)
}
