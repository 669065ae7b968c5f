package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, subject string, expiresAt time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := tok.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func authedRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestUserAuthValidToken(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, testSecret, userID.String(), time.Now().Add(time.Hour))

	var gotID uuid.UUID
	var gotOK bool
	handler := UserAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = UserIDFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(token))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !gotOK || gotID != userID {
		t.Errorf("context user id: got %s (ok=%v), want %s", gotID, gotOK, userID)
	}
}

func TestUserAuthRejections(t *testing.T) {
	userID := uuid.New()
	wrongAlg := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: userID.String()})
	unsigned, err := wrongAlg.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"missing header", ""},
		{"garbage token", "not-a-jwt"},
		{"wrong secret", signToken(t, []byte("other-secret"), userID.String(), time.Now().Add(time.Hour))},
		{"expired", signToken(t, testSecret, userID.String(), time.Now().Add(-time.Hour))},
		{"non-uuid subject", signToken(t, testSecret, "not-a-uuid", time.Now().Add(time.Hour))},
		{"none algorithm", unsigned},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			called := false
			handler := UserAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, authedRequest(c.token))

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status: got %d, want 401", rec.Code)
			}
			if called {
				t.Error("handler must not run on a rejected request")
			}
		})
	}
}
