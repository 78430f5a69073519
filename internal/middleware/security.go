package middleware

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	apierrors "salesbi/internal/errors"
)

// Where the shared secret is read from
const (
	APIKeyHeader = "X-API-Key"
	APIKeyQuery  = "api_key"
)

// HashSecret returns the bcrypt hash stored in configuration for secret
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash shared secret: %w", err)
	}
	return string(hash), nil
}

// SharedSecretAuth gates requests on a single shared secret checked against
// a bcrypt hash. Secrets that passed once are remembered by digest so only
// the first request pays for bcrypt.
type SharedSecretAuth struct {
	hash         []byte
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler

	verified sync.Map // [sha256.Size]byte -> struct{}
}

// NewSharedSecretAuth creates the gate. An empty hash disables it.
func NewSharedSecretAuth(hash string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) (*SharedSecretAuth, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid shared secret hash: %w", err)
		}
	}
	return &SharedSecretAuth{
		hash:         []byte(hash),
		logger:       logger.With(slog.String("component", "auth")),
		errorHandler: errorHandler,
	}, nil
}

// Enabled reports whether a secret is required
func (a *SharedSecretAuth) Enabled() bool {
	return len(a.hash) > 0
}

// Handler returns the middleware handler
func (a *SharedSecretAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		secret := credential(r)
		if secret == "" {
			a.logger.WarnContext(r.Context(), "missing API key",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			a.errorHandler.HandleError(w, r, apierrors.ErrUnauthorized)
			return
		}

		if !a.verify(secret) {
			a.logger.WarnContext(r.Context(), "invalid API key",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			a.errorHandler.HandleError(w, r, apierrors.New(http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API key"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *SharedSecretAuth) verify(secret string) bool {
	digest := sha256.Sum256([]byte(secret))
	if _, ok := a.verified.Load(digest); ok {
		return true
	}
	if bcrypt.CompareHashAndPassword(a.hash, []byte(secret)) != nil {
		return false
	}
	a.verified.Store(digest, struct{}{})
	return true
}

// credential reads the secret from X-API-Key, a Bearer token or the api_key
// query parameter, in that order
func credential(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return r.URL.Query().Get(APIKeyQuery)
}
