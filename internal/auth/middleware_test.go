package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/authhub-io/authhub/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	users  map[int64]*database.User
	panics bool
}

func (f *fakeUserStore) GetUserByID(id int64) (*database.User, error) {
	if f.panics {
		panic("store blew up")
	}
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, database.ErrUserNotFound
}

func newGuardedServer(t *testing.T, store *fakeUserStore) (*httptest.Server, *TokenManager) {
	t.Helper()
	tm, err := NewTokenManager(testSecret)
	require.NoError(t, err)

	handler := Middleware(tm, store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(user.Username))
	}))

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, tm
}

func errorBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["error"]
}

func TestMiddleware(t *testing.T) {
	store := &fakeUserStore{users: map[int64]*database.User{
		1: {ID: 1, Username: "alice"},
	}}
	server, tm := newGuardedServer(t, store)

	doGet := func(authHeader string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, server.URL, nil)
		require.NoError(t, err)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	t.Run("MissingHeader", func(t *testing.T) {
		resp := doGet("")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Token is missing", errorBody(t, resp))
	})

	t.Run("NoBearerPrefix", func(t *testing.T) {
		token, err := tm.Issue(1)
		require.NoError(t, err)
		resp := doGet(token)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid token", errorBody(t, resp))
	})

	t.Run("GarbageToken", func(t *testing.T) {
		resp := doGet("Bearer garbage")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid token", errorBody(t, resp))
	})

	t.Run("UserDeletedAfterIssue", func(t *testing.T) {
		token, err := tm.Issue(999)
		require.NoError(t, err)
		resp := doGet("Bearer " + token)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid token", errorBody(t, resp))
	})

	t.Run("ValidToken", func(t *testing.T) {
		token, err := tm.Issue(1)
		require.NoError(t, err)
		resp := doGet("Bearer " + token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestMiddlewareSwallowsPanics(t *testing.T) {
	store := &fakeUserStore{panics: true}
	server, tm := newGuardedServer(t, store)

	token, err := tm.Issue(1)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid token", errorBody(t, resp))
}
