package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"emperror.dev/emperror"
	"github.com/golang-jwt/jwt"
	"github.com/justinas/alice"
	"go.uber.org/zap"
)

const jwtPrincipalKey = "sub"

var (
	ErrMissingToken     = errors.New("missing bearer token")
	ErrInvalidToken     = errors.New("invalid session token")
	ErrInvalidPrincipal = errors.New("session token has no principal")
)

// Config describes how local session JWTs are validated. The tokens themselves
// are issued by the OAuth callback flow after Microsoft login; this middleware
// only checks them.
type Config struct {
	// Key is the HMAC secret the session tokens were signed with.
	Key string

	// Disabled skips validation entirely. Meant for local development.
	Disabled bool
}

// NewChain builds the middleware chain protecting the primary API. Requests
// without a valid session JWT are answered 401 before reaching any handler.
func NewChain(config Config, logger *zap.Logger) alice.Chain {
	if config.Disabled {
		logger.Warn("session token validation is disabled")
		return alice.New()
	}
	return alice.New(sessionTokenValidator(config, logger))
}

func sessionTokenValidator(config Config, logger *zap.Logger) alice.Constructor {
	return func(delegate http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := parseAndValidate(config, bearerToken(r))
			if err != nil {
				logger.Debug("rejected request with invalid session token",
					zap.String("requestURL", r.URL.EscapedPath()), zap.Error(err))
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			r.Header.Set("X-Chamados-User", principal)
			delegate.ServeHTTP(w, r)
		})
	}
}

// bearerToken reads the session JWT from the Authorization header, falling
// back to the session cookie the web tier sets after the OAuth callback.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie("session"); err == nil {
		return cookie.Value
	}
	return ""
}

func parseAndValidate(config Config, value string) (string, error) {
	if len(value) == 0 {
		return "", ErrMissingToken
	}

	token, err := jwt.Parse(value, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(config.Key), nil
	})
	if err != nil {
		return "", emperror.Wrap(err, "failed to parse session JWT")
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	principal, ok := claims[jwtPrincipalKey].(string)
	if !ok || principal == "" {
		return "", emperror.With(ErrInvalidPrincipal, "principal key", jwtPrincipalKey)
	}
	return principal, nil
}
