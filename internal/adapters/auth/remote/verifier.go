package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"procurement-hub/internal/platform/httpclient"
	"procurement-hub/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("auth introspection not configured")
	ErrUnauthorized  = errors.New("token rejected by auth service")
	ErrUpstream      = errors.New("auth service error")
)

// Config del servicio de identidad que valida tokens.
type Config struct {
	// IntrospectURL: endpoint que recibe {"token": "..."} y responde los claims.
	IntrospectURL string
	APIKey        string
	// Si está vacío, se usa "X-Api-Key".
	APIKeyHeader string
	Timeout      time.Duration
}

// Verifier implementa auth.AuthVerifier delegando en un servicio de identidad externo.
type Verifier struct {
	url          string
	apiKey       string
	apiKeyHeader string
	http         *httpclient.Client
}

func NewVerifier(cfg Config) *Verifier {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	return &Verifier{
		url:          strings.TrimSpace(cfg.IntrospectURL),
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
		http:         httpclient.New(cfg.Timeout),
	}
}

// NewVerifierWithClient permite inyectar el cliente HTTP (tests).
func NewVerifierWithClient(cfg Config, c *httpclient.Client) *Verifier {
	v := NewVerifier(cfg)
	v.http = c
	return v
}

type introspectResponse struct {
	Active bool   `json:"active"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.url == "" {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrUnauthorized
	}

	headers := map[string]string{"Authorization": "Bearer " + token}
	if v.apiKey != "" {
		headers[v.apiKeyHeader] = v.apiKey
	}

	var out introspectResponse
	err := v.http.DoJSON(ctx, http.MethodPost, v.url, headers, map[string]string{"token": token}, &out)
	if err != nil {
		var he *httpclient.HTTPError
		if errors.As(err, &he) && (he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden) {
			return auth.Claims{}, ErrUnauthorized
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if !out.Active || strings.TrimSpace(out.UserID) == "" {
		return auth.Claims{}, ErrUnauthorized
	}
	return auth.Claims{
		UserID: strings.TrimSpace(out.UserID),
		Email:  strings.TrimSpace(out.Email),
		Role:   strings.ToLower(strings.TrimSpace(out.Role)),
	}, nil
}
