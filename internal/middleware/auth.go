// Package middleware provides HTTP middleware for the platform API.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nekoko-ai/platform/internal/app/domain/account"
	"github.com/nekoko-ai/platform/internal/app/domain/apikey"
	"github.com/nekoko-ai/platform/internal/app/services/apikeys"
	"github.com/nekoko-ai/platform/internal/errors"
	"github.com/nekoko-ai/platform/internal/httputil"
	"github.com/nekoko-ai/platform/pkg/logger"
)

// AuthCookieName is the cookie carrying the session token for browser
// clients.
const AuthCookieName = "auth-token"

// Claims represents the JWT claims issued at login.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Identity describes the authenticated caller of a request.
type Identity struct {
	AccountID string
	Username  string
	Role      string
	// APIKeyID is set when the caller authenticated with an sk-
	// credential instead of a session token.
	APIKeyID string
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool { return i.Role == string(account.RoleAdmin) }

type contextKey string

const identityKey contextKey = "identity"

// IdentityFromContext returns the caller identity stored by the auth
// middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// IssueToken mints a session token for the account.
func IssueToken(secret []byte, acct account.Account, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   acct.ID,
		Username: acct.Username,
		Role:     string(acct.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// KeyVerifier resolves an sk- credential to its key and owning account.
type KeyVerifier interface {
	Verify(ctx context.Context, secret string) (apikey.Key, account.Account, error)
}

// AuthMiddleware authenticates requests via session JWT (Authorization
// Bearer or cookie) or via platform API keys.
type AuthMiddleware struct {
	secret    []byte
	keys      KeyVerifier
	log       *logger.Logger
	skipPaths map[string]bool
}

// NewAuthMiddleware creates an authentication middleware. Paths in
// skipPaths pass through unauthenticated.
func NewAuthMiddleware(secret []byte, keys KeyVerifier, log *logger.Logger, skipPaths []string) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &AuthMiddleware{secret: secret, keys: keys, log: log, skipPaths: skip}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token := m.extractToken(r)
		if token == "" {
			httputil.Unauthorized(w, "missing credentials")
			return
		}

		identity, err := m.resolve(r.Context(), token)
		if err != nil {
			m.log.WithError(err).Debugf("authentication rejected for %s", r.URL.Path)
			httputil.WriteError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie(AuthCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (m *AuthMiddleware) resolve(ctx context.Context, token string) (Identity, error) {
	if strings.HasPrefix(token, apikeys.SecretPrefix) {
		if m.keys == nil {
			return Identity{}, errors.Unauthorized("api key authentication not configured")
		}
		key, acct, err := m.keys.Verify(ctx, token)
		if err != nil {
			return Identity{}, err
		}
		return Identity{
			AccountID: acct.ID,
			Username:  acct.Username,
			Role:      string(acct.Role),
			APIKeyID:  key.ID,
		}, nil
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.InvalidToken(nil).WithDetails("method", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return Identity{}, errors.InvalidToken(err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return Identity{}, errors.InvalidToken(nil)
	}
	return Identity{AccountID: claims.UserID, Username: claims.Username, Role: claims.Role}, nil
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			httputil.Unauthorized(w, "")
			return
		}
		if !identity.IsAdmin() {
			httputil.WriteError(w, errors.Forbidden("admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
