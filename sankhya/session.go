package sankhya

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	loginPath = "/login"

	// Sankhya does not declare an expiry on login, so tokens are reused for a
	// fixed window from issuance.
	defaultSessionTTL = 30 * time.Minute
)

// Session owns the Sankhya bearer token. It implements acquire.Acquirer so the
// client can attach authorization headers the same way for every outbound call,
// logging in lazily on first use and again whenever the cached token expires or
// is invalidated.
//
// A single mutex is held across re-authentication: concurrent callers that find
// the token expired block on the first login instead of issuing their own.
type Session struct {
	client   *http.Client
	loginURL string
	token    string
	appKey   string
	username string
	password string
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time

	lock      sync.Mutex
	bearer    string
	expiresAt time.Time
}

type loginResponse struct {
	BearerToken string `json:"bearerToken"`
}

func newSession(config ClientConfig) *Session {
	return &Session{
		client:   config.HTTPClient,
		loginURL: config.Address + loginPath,
		token:    config.Token,
		appKey:   config.AppKey,
		username: config.Username,
		password: config.Password,
		ttl:      config.SessionTTL,
		logger:   config.Logger,
		now:      time.Now,
	}
}

// Acquire returns an Authorization header value with a valid bearer token,
// logging in first if no unexpired token is cached.
func (s *Session) Acquire() (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.bearer != "" && s.now().Before(s.expiresAt) {
		return "Bearer " + s.bearer, nil
	}

	token, err := s.login()
	if err != nil {
		return "", err
	}

	s.bearer = token
	s.expiresAt = s.now().Add(s.ttl)
	return "Bearer " + s.bearer, nil
}

// Invalidate drops the cached token so the next Acquire logs in again. The
// client calls this when Sankhya answers 401 or 403 before the TTL is up.
func (s *Session) Invalidate() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.bearer = ""
	s.expiresAt = time.Time{}
}

// login exchanges the fixed integration credentials for a bearer token. The
// credentials travel as request headers, which is how the Sankhya gateway
// expects them.
func (s *Session) login() (string, error) {
	r, err := http.NewRequest(http.MethodPost, s.loginURL, nil)
	if err != nil {
		return "", fmt.Errorf(errWrappedFmt, ErrAuthentication, err.Error())
	}
	r.Header.Set("token", s.token)
	r.Header.Set("appkey", s.appKey)
	r.Header.Set("username", s.username)
	r.Header.Set("password", s.password)

	resp, err := s.client.Do(r)
	if err != nil {
		return "", fmt.Errorf(errWrappedFmt, ErrAuthentication, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf(errWrappedFmt, ErrAuthentication, err.Error())
	}

	if notSuccessful(resp.StatusCode) {
		s.logger.Error("Sankhya login failed", zap.Int("code", resp.StatusCode))
		return "", fmt.Errorf(errStatusCodeFmt, ErrAuthentication, resp.StatusCode)
	}

	var login loginResponse
	if err := json.Unmarshal(body, &login); err != nil {
		return "", fmt.Errorf(errWrappedFmt, ErrAuthentication, err.Error())
	}
	if login.BearerToken == "" {
		return "", ErrAuthentication
	}

	s.logger.Debug("acquired new sankhya session token")
	return login.BearerToken, nil
}
