package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	ContextKeySubject contextKey = "auth_subject"
	ContextKeyToken   contextKey = "auth_token"

	CookieName  = "users_token"
	TokenExpiry = 24 * time.Hour
)

// Claims is the JWT claims structure accepted on write routes.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken creates a signed HS256 JWT for the given subject.
func GenerateToken(secret, subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = TokenExpiry
	}
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// RequireAuth returns middleware that validates JWT tokens.
// It checks the users_token cookie first, then the Authorization header.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractToken(r)
			if tokenStr == "" {
				deny(w, "authentication required")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				deny(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyToken, tokenStr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubjectFromContext extracts the token subject from the request context.
func SubjectFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeySubject).(string)
	return v
}

// TokenFromContext returns the raw token RequireAuth verified for this request.
func TokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyToken).(string)
	return v
}

func extractToken(r *http.Request) string {
	// Cookie first (browser clients)
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	// Authorization header (API clients)
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func deny(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusUnauthorized, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
