package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amora_server/services"
)

type staticVerifier map[string]*services.TokenClaims

func (v staticVerifier) VerifyToken(_ context.Context, idToken string) (*services.TokenClaims, error) {
	if c, ok := v[idToken]; ok {
		return c, nil
	}
	return nil, services.ErrUnauthenticated
}

func whoAmI(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"uid":   UserIDFrom(r.Context()),
		"admin": IsAdmin(r.Context()),
	})
}

func TestAuth(t *testing.T) {
	verifier := staticVerifier{
		"user-token":  {UID: "u1"},
		"admin-token": {UID: "root", Admin: true},
	}
	handler := Auth(verifier)(http.HandlerFunc(whoAmI))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUID    string
		wantAdmin  bool
	}{
		{"missing header", "", http.StatusUnauthorized, "", false},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "", false},
		{"empty token", "Bearer ", http.StatusUnauthorized, "", false},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, "", false},
		{"user", "Bearer user-token", http.StatusOK, "u1", false},
		{"lowercase scheme", "bearer user-token", http.StatusOK, "u1", false},
		{"admin", "Bearer admin-token", http.StatusOK, "root", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, false, body["success"])
				assert.NotEmpty(t, body["message"])
				return
			}
			assert.Equal(t, tt.wantUID, body["uid"])
			assert.Equal(t, tt.wantAdmin, body["admin"])
		})
	}
}

func TestClaimsHelpers_EmptyContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ClaimsFrom(ctx))
	assert.Equal(t, "", UserIDFrom(ctx))
	assert.False(t, IsAdmin(ctx))

	ctx = WithClaims(ctx, &services.TokenClaims{UID: "u2"})
	assert.Equal(t, "u2", UserIDFrom(ctx))
}

func TestRecoveryAndLogging(t *testing.T) {
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	rec := httptest.NewRecorder()
	Logging(Recovery(panicky)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")

	teapot := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec = httptest.NewRecorder()
	Logging(teapot).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tea", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
