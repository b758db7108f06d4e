package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signAdminToken(t *testing.T, secret string, claims AdminClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() AdminClaims {
	return AdminClaims{
		Role: AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops@despacho.es",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
		},
	}
}

func serveAdmin(secret, authHeader string) (*httptest.ResponseRecorder, *AdminClaims) {
	var seen *AdminClaims
	h := AdminJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := AdminClaimsFromContext(r.Context()); ok {
			seen = &c
		}
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func TestAdminJWT(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil
	wrongRole := validClaims()
	wrongRole.Role = "viewer"

	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{name: "disabled without secret", secret: "", header: "Bearer " + signAdminToken(t, "s", validClaims()), want: http.StatusUnauthorized},
		{name: "missing header", secret: "s", want: http.StatusUnauthorized},
		{name: "not bearer", secret: "s", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "wrong key", secret: "s", header: "Bearer " + signAdminToken(t, "other", validClaims()), want: http.StatusUnauthorized},
		{name: "expired", secret: "s", header: "Bearer " + signAdminToken(t, "s", expired), want: http.StatusUnauthorized},
		{name: "no expiry", secret: "s", header: "Bearer " + signAdminToken(t, "s", noExpiry), want: http.StatusUnauthorized},
		{name: "wrong role", secret: "s", header: "Bearer " + signAdminToken(t, "s", wrongRole), want: http.StatusForbidden},
		{name: "valid", secret: "s", header: "Bearer " + signAdminToken(t, "s", validClaims()), want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, seen := serveAdmin(tt.secret, tt.header)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "ops@despacho.es", seen.Subject)
			} else {
				assert.Nil(t, seen)
			}
			if tt.want == http.StatusUnauthorized {
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestAdminJWTRejectsNoneAlgorithm(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims()).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	rec, _ := serveAdmin("s", "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
