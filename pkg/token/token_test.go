package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	signed, expiresAt, err := Sign("secret", "user-1", "teacher", "", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := Parse("secret", signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "teacher", claims.Role)
	assert.Empty(t, claims.Purpose)
}

func TestParseRejections(t *testing.T) {
	signed, _, err := Sign("secret", "user-1", "student", "", time.Hour)
	require.NoError(t, err)

	expired, _, err := Sign("secret", "user-1", "student", "", -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{name: "wrong secret", secret: "other", token: signed},
		{name: "garbage", secret: "secret", token: "not.a.token"},
		{name: "expired", secret: "secret", token: expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.secret, tt.token)
			assert.Error(t, err)
		})
	}
}

func TestPurposeClaimRoundTrips(t *testing.T) {
	signed, _, err := Sign("secret", "user-1", "student", PurposePasswordReset, 15*time.Minute)
	require.NoError(t, err)

	claims, err := Parse("secret", signed)
	require.NoError(t, err)
	assert.Equal(t, PurposePasswordReset, claims.Purpose)
}
