package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credo/pkg/domain"
)

var caller = domain.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

type stubValidator struct {
	claims *CallerClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*CallerClaims, error) {
	return s.claims, s.err
}

func TestRequireCaller(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		header     string
		validator  stubValidator
		wantStatus int
	}{
		{"missing header", "", stubValidator{}, http.StatusUnauthorized},
		{"not bearer", "Basic abc", stubValidator{}, http.StatusUnauthorized},
		{"empty bearer", "Bearer  ", stubValidator{}, http.StatusUnauthorized},
		{"invalid token", "Bearer bad", stubValidator{err: errors.New("expired")}, http.StatusUnauthorized},
		{"null caller", "Bearer ok", stubValidator{claims: &CallerClaims{}}, http.StatusUnauthorized},
		{"valid", "Bearer ok", stubValidator{claims: &CallerClaims{Caller: caller, JTI: "j1"}}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got domain.Address
			h := RequireCaller(tt.validator, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var ok bool
				got, ok = GetCaller(r.Context())
				require.True(t, ok)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, caller, got)
			} else {
				assert.JSONEq(t, `{"error":"unauthorized","error_description":"`+descFor(tt.name)+`"}`, rr.Body.String())
			}
		})
	}
}

func descFor(name string) string {
	switch name {
	case "invalid token", "null caller":
		return "Invalid or expired token"
	default:
		return "Missing or invalid Authorization header"
	}
}
