package security

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestIssueAndParseAccessToken(t *testing.T) {
	token, expiresAt, err := IssueAccessToken(42, "Jane", "jane@example.com", true, false, time.Minute, testSecret)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 2*time.Second)

	claims, err := ParseAccessToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID())
	assert.Equal(t, "Jane", claims.Name)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.True(t, claims.Admin)
	assert.False(t, claims.Anonymous)
	assert.NotEmpty(t, claims.ID)
}

func TestParseAccessTokenRejects(t *testing.T) {
	valid, _, err := IssueAccessToken(1, "a", "a@example.com", false, false, time.Minute, testSecret)
	require.NoError(t, err)
	expired, _, err := IssueAccessToken(1, "a", "a@example.com", false, false, -time.Minute, testSecret)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "1",
		Issuer:    accessTokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{name: "wrong secret", token: valid, secret: "other"},
		{name: "expired", token: expired, secret: testSecret},
		{name: "alg none", token: unsigned, secret: testSecret},
		{name: "garbage", token: "abc.def.ghi", secret: testSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccessToken(tt.token, tt.secret)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = ParseAccessToken(valid, "")
	assert.ErrorIs(t, err, ErrMissingSecret)
	_, _, err = IssueAccessToken(1, "a", "a@example.com", false, false, time.Minute, "")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestMemoryDenylist(t *testing.T) {
	ctx := context.Background()
	list := NewMemoryDenylist()

	token, expiresAt, err := IssueAccessToken(7, "u", "u@example.com", false, false, time.Minute, testSecret)
	require.NoError(t, err)
	claims, err := ParseAccessToken(token, testSecret)
	require.NoError(t, err)

	require.NoError(t, CheckNotRevoked(ctx, list, claims))
	require.NoError(t, list.Revoke(ctx, claims.ID, expiresAt))
	assert.ErrorIs(t, CheckNotRevoked(ctx, list, claims), ErrTokenRevoked)

	require.NoError(t, list.Revoke(ctx, "old", time.Now().Add(-time.Second)))
	revoked, err := list.IsRevoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, revoked)

	assert.NoError(t, CheckNotRevoked(ctx, nil, claims))
}
