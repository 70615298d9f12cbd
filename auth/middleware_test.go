package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSigningKey = "test-signing-key"

func signedToken(t *testing.T, key string, claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func protectedHandler(principal *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*principal = r.Header.Get("X-Chamados-User")
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionTokenValidation(t *testing.T) {
	type testCase struct {
		Description       string
		Authorization     string
		Cookie            string
		ExpectedCode      int
		ExpectedPrincipal string
	}

	valid := func(t *testing.T) string {
		return signedToken(t, testSigningKey, jwt.MapClaims{"sub": "maria@empresa.com.br"})
	}

	tcs := []testCase{
		{
			Description:  "No token at all",
			ExpectedCode: http.StatusUnauthorized,
		},
		{
			Description:   "Garbage token",
			Authorization: "Bearer not-a-jwt",
			ExpectedCode:  http.StatusUnauthorized,
		},
		{
			Description:       "Valid token in the Authorization header",
			Authorization:     "Bearer VALID",
			ExpectedCode:      http.StatusOK,
			ExpectedPrincipal: "maria@empresa.com.br",
		},
		{
			Description:       "Valid token in the session cookie",
			Cookie:            "VALID",
			ExpectedCode:      http.StatusOK,
			ExpectedPrincipal: "maria@empresa.com.br",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			var principal string
			chain := NewChain(Config{Key: testSigningKey}, zap.NewNop())
			handler := chain.Then(protectedHandler(&principal))

			request := httptest.NewRequest(http.MethodGet, "/api/v1/empresas", nil)
			if tc.Authorization != "" {
				value := tc.Authorization
				if value == "Bearer VALID" {
					value = "Bearer " + valid(t)
				}
				request.Header.Set("Authorization", value)
			}
			if tc.Cookie != "" {
				value := tc.Cookie
				if value == "VALID" {
					value = valid(t)
				}
				request.AddCookie(&http.Cookie{Name: "session", Value: value})
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(tc.ExpectedCode, recorder.Code)
			assert.Equal(tc.ExpectedPrincipal, principal)
		})
	}
}

func TestSessionTokenRejections(t *testing.T) {
	type testCase struct {
		Description string
		Token       func(t *testing.T) string
	}

	tcs := []testCase{
		{
			Description: "Signed with a different key",
			Token: func(t *testing.T) string {
				return signedToken(t, "some-other-key", jwt.MapClaims{"sub": "maria@empresa.com.br"})
			},
		},
		{
			Description: "No principal claim",
			Token: func(t *testing.T) string {
				return signedToken(t, testSigningKey, jwt.MapClaims{"aud": "chamados"})
			},
		},
		{
			Description: "Empty principal claim",
			Token: func(t *testing.T) string {
				return signedToken(t, testSigningKey, jwt.MapClaims{"sub": ""})
			},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			var principal string
			chain := NewChain(Config{Key: testSigningKey}, zap.NewNop())
			handler := chain.Then(protectedHandler(&principal))

			request := httptest.NewRequest(http.MethodGet, "/api/v1/empresas", nil)
			request.Header.Set("Authorization", "Bearer "+tc.Token(t))

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(http.StatusUnauthorized, recorder.Code)
			assert.Empty(principal)
		})
	}
}

func TestDisabledValidation(t *testing.T) {
	assert := assert.New(t)
	var principal string
	chain := NewChain(Config{Disabled: true}, zap.NewNop())
	handler := chain.Then(protectedHandler(&principal))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/empresas", nil))

	assert.Equal(http.StatusOK, recorder.Code)
	assert.Empty(principal)
}
