package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	token, err := Sign("s3cret", "quill", 42, "ADMIN", time.Hour)
	require.NoError(t, err)

	id, err := NewVerifier("s3cret", "quill").Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 42, Role: "ADMIN"}, id)
}

func TestVerify_Rejects(t *testing.T) {
	good, err := Sign("s3cret", "quill", 1, "", time.Hour)
	require.NoError(t, err)
	expired, err := Sign("s3cret", "quill", 1, "", -time.Minute)
	require.NoError(t, err)
	otherIssuer, err := Sign("s3cret", "someone-else", 1, "", time.Hour)
	require.NoError(t, err)
	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1"}).
		SignedString([]byte("s3cret"))
	require.NoError(t, err)

	v := NewVerifier("s3cret", "quill")
	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not.a.token", ErrInvalidToken},
		{"wrong secret", mustSign(t, "other", 1), ErrInvalidToken},
		{"expired", expired, ErrInvalidToken},
		{"issuer mismatch", otherIssuer, ErrInvalidToken},
		{"non numeric subject", badSubject, ErrInvalidToken},
		{"missing expiry", noExpiry, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = NewVerifier("", "").Verify(good)
	assert.ErrorIs(t, err, ErrNoSecret)
}

func mustSign(t *testing.T, secret string, id int64) string {
	t.Helper()
	token, err := Sign(secret, "quill", id, "", time.Hour)
	require.NoError(t, err)
	return token
}
