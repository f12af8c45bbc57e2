package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(SubjectFromContext(r.Context())))
	})
}

func TestRequireAuth(t *testing.T) {
	valid, err := GenerateToken(testSecret, "admin", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	wrongKey, err := GenerateToken("other-secret", "admin", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	tests := []struct {
		name     string
		prepare  func(r *http.Request)
		wantCode int
		wantBody string
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized, "authentication required"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) }, http.StatusOK, "admin"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: valid}) }, http.StatusOK, "admin"},
		{"expired", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired) }, http.StatusUnauthorized, "invalid or expired token"},
		{"wrong key", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+wrongKey) }, http.StatusUnauthorized, "invalid or expired token"},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, "invalid or expired token"},
	}

	h := RequireAuth(testSecret)(okHandler())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/users", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Fatalf("expected body to contain %q, got %q", tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(NewLimiter(1, 2))(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	if NewLimiter(0, 10) != nil {
		t.Fatalf("expected nil limiter for zero rps")
	}
	h := RateLimit(nil)(okHandler())
	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
}

func TestRequireAuthStoresVerifiedToken(t *testing.T) {
	valid, err := GenerateToken(testSecret, "admin", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var got string
	h := RequireAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = TokenFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/users", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: valid})
	req.Header.Set("Authorization", "Bearer junk")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != valid {
		t.Fatalf("expected the verified cookie token in context, got %q", got)
	}
}
