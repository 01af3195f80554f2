package jwt

import (
	"context"
	"errors"
	"testing"
	"time"

	"procurement-hub/internal/ports/auth"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier(secret, "procurement-hub")
	tok, err := v.Sign(auth.Claims{UserID: "2", Email: "m@example.com", Role: "Manager"}, time.Hour)
	require.NoError(t, err)

	got, err := v.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "2", got.UserID)
	assert.Equal(t, "manager", got.Role)
	assert.Equal(t, "m@example.com", got.Email)
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier(secret, "procurement-hub")

	expired, err := v.Sign(auth.Claims{UserID: "1"}, -time.Hour)
	require.NoError(t, err)

	otherIssuer, err := NewVerifier(secret, "someone-else").Sign(auth.Claims{UserID: "1"}, time.Hour)
	require.NoError(t, err)

	wrongKey, err := NewVerifier("ffffffffffffffffffffffffffffffff", "procurement-hub").Sign(auth.Claims{UserID: "1"}, time.Hour)
	require.NoError(t, err)

	noExp, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{"sub": "1", "iss": "procurement-hub"}).SignedString([]byte(secret))
	require.NoError(t, err)

	noSub, err := v.Sign(auth.Claims{}, time.Hour)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"expired":   expired,
		"issuer":    otherIssuer,
		"wrong key": wrongKey,
		"no exp":    noExp,
		"no sub":    noSub,
		"garbage":   "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tok)
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}
