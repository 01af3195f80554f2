package jwt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"procurement-hub/internal/ports/auth"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenClaims es el payload esperado: sub = id numérico del usuario.
type TokenClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	gojwt.RegisteredClaims
}

// Verifier implementa auth.AuthVerifier con tokens HS256 firmados con un secreto compartido.
type Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: strings.TrimSpace(issuer), leeway: 30 * time.Second}
}

func (v *Verifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(v.issuer))
	}

	var tc TokenClaims
	_, err := gojwt.ParseWithClaims(token, &tc, func(*gojwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub := strings.TrimSpace(tc.Subject)
	if sub == "" {
		return auth.Claims{}, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	return auth.Claims{
		UserID: sub,
		Email:  strings.TrimSpace(tc.Email),
		Role:   strings.ToLower(strings.TrimSpace(tc.Role)),
	}, nil
}

// Sign emite un token (CLI de desarrollo y tests). La emisión real vive fuera de este servicio.
func (v *Verifier) Sign(c auth.Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	tc := TokenClaims{
		Email: c.Email,
		Role:  c.Role,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   c.UserID,
			Issuer:    v.issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return gojwt.NewWithClaims(gojwt.SigningMethodHS256, tc).SignedString(v.secret)
}
