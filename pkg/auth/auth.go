// Package auth resolves the caller identity of API requests.
//
// With OIDC enabled, requests must carry a bearer ID token issued by the
// configured provider. With it disabled, the identity is read from a plain
// request header, which is only suitable behind a trusted gateway or in
// local development.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/rajinweb/contract-esign-sub000/pkg/handlers"
)

// ErrUnauthenticated is returned when a request carries no usable identity.
var ErrUnauthenticated = errors.New("authentication required")

// Identity is the authenticated caller.
type Identity struct {
	Subject string `json:"subject"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	if !ok || id.Subject == "" {
		return Identity{}, false
	}
	return id, true
}

// Authenticator verifies requests and attaches the caller identity.
type Authenticator struct {
	verifier  *oidc.IDTokenVerifier
	devHeader string
	logger    *slog.Logger
}

// New creates an Authenticator. When cfg.Enabled, the provider's discovery
// document is fetched from cfg.Issuer.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (*Authenticator, error) {
	a := &Authenticator{
		devHeader: cfg.DevHeader,
		logger:    logger.With("system", "auth"),
	}

	if !cfg.Enabled {
		a.logger.Warn("oidc disabled, trusting identity header", "header", cfg.DevHeader)
		return a, nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}

	a.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	return a, nil
}

// NewWithVerifier creates an Authenticator around an existing verifier.
func NewWithVerifier(verifier *oidc.IDTokenVerifier, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		verifier: verifier,
		logger:   logger.With("system", "auth"),
	}
}

// Authenticate resolves the identity of r.
func (a *Authenticator) Authenticate(r *http.Request) (Identity, error) {
	if a.verifier == nil {
		sub := strings.TrimSpace(r.Header.Get(a.devHeader))
		if sub == "" {
			return Identity{}, ErrUnauthenticated
		}
		return Identity{Subject: sub}, nil
	}

	raw, ok := bearerToken(r)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}

	token, err := a.verifier.Verify(r.Context(), raw)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := token.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	return Identity{
		Subject: token.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}, nil
}

// Middleware rejects unauthenticated requests with 401 and stores the
// identity in the request context otherwise.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		id, err := a.Authenticate(r)
		if err != nil {
			a.logger.Debug("request unauthenticated", "path", r.URL.Path, "error", err)
			handlers.RespondError(w, a.logger, http.StatusUnauthorized, ErrUnauthenticated)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
