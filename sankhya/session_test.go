package sankhya

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSession(serverURL string, client *http.Client) *Session {
	return newSession(ClientConfig{
		Address:    serverURL,
		Token:      "tenant-token",
		AppKey:     "app-key",
		Username:   "integration",
		Password:   "secret",
		HTTPClient: client,
		SessionTTL: defaultSessionTTL,
		Logger:     zap.NewNop(),
	})
}

func TestAcquireLogsInWithCredentialHeaders(t *testing.T) {
	assert := assert.New(t)
	var captured http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Header.Clone()
		assert.Equal(http.MethodPost, r.Method)
		assert.Equal(loginPath, r.URL.Path)
		w.Write([]byte(`{"bearerToken": "abc"}`))
	}))
	defer server.Close()

	session := newTestSession(server.URL, server.Client())
	auth, err := session.Acquire()
	require.NoError(t, err)

	assert.Equal("Bearer abc", auth)
	assert.Equal("tenant-token", captured.Get("token"))
	assert.Equal("app-key", captured.Get("appkey"))
	assert.Equal("integration", captured.Get("username"))
	assert.Equal("secret", captured.Get("password"))
}

func TestAcquireReusesCachedToken(t *testing.T) {
	assert := assert.New(t)
	logins := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins++
		w.Write([]byte(`{"bearerToken": "abc"}`))
	}))
	defer server.Close()

	session := newTestSession(server.URL, server.Client())
	for i := 0; i < 3; i++ {
		auth, err := session.Acquire()
		require.NoError(t, err)
		assert.Equal("Bearer abc", auth)
	}
	assert.Equal(1, logins)
}

func TestAcquireAfterExpiry(t *testing.T) {
	assert := assert.New(t)
	logins := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins++
		w.Write([]byte(`{"bearerToken": "abc"}`))
	}))
	defer server.Close()

	session := newTestSession(server.URL, server.Client())
	current := time.Now()
	session.now = func() time.Time { return current }

	_, err := session.Acquire()
	require.NoError(t, err)
	assert.Equal(1, logins)

	current = current.Add(defaultSessionTTL - time.Second)
	_, err = session.Acquire()
	require.NoError(t, err)
	assert.Equal(1, logins)

	current = current.Add(2 * time.Second)
	_, err = session.Acquire()
	require.NoError(t, err)
	assert.Equal(2, logins)
}

func TestInvalidateDropsToken(t *testing.T) {
	assert := assert.New(t)
	logins := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins++
		w.Write([]byte(`{"bearerToken": "abc"}`))
	}))
	defer server.Close()

	session := newTestSession(server.URL, server.Client())
	_, err := session.Acquire()
	require.NoError(t, err)

	session.Invalidate()

	_, err = session.Acquire()
	require.NoError(t, err)
	assert.Equal(2, logins)
}

func TestAcquireLoginFailures(t *testing.T) {
	type testCase struct {
		Description string
		Code        int
		Body        string
	}

	tcs := []testCase{
		{
			Description: "Non-success status",
			Code:        http.StatusInternalServerError,
			Body:        "",
		},
		{
			Description: "Rejected credentials",
			Code:        http.StatusUnauthorized,
			Body:        `{"error": "bad credentials"}`,
		},
		{
			Description: "Missing bearer token",
			Code:        http.StatusOK,
			Body:        `{}`,
		},
		{
			Description: "Body is not JSON",
			Code:        http.StatusOK,
			Body:        "oops",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.Code)
				w.Write([]byte(tc.Body))
			}))
			defer server.Close()

			session := newTestSession(server.URL, server.Client())
			auth, err := session.Acquire()
			assert.Empty(auth)
			assert.ErrorIs(err, ErrAuthentication)
		})
	}
}
