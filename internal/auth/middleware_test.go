package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	users map[string]User
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (User, error) {
	u, ok := f.users[token]
	if !ok {
		return User{}, ErrUnauthorized
	}
	return u, nil
}

func protectedEcho(t *testing.T) (http.Handler, *User) {
	t.Helper()
	var seen User
	v := &fakeVerifier{users: map[string]User{
		"good-token": {ID: "user-1", Email: "ana@example.com"},
	}}
	h := Middleware(v, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFrom(r.Context())
		require.True(t, ok, "handler must see the verified user")
		seen = u
		w.WriteHeader(http.StatusOK)
	}))
	return h, &seen
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	h, _ := protectedEcho(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareRejectsBadToken(t *testing.T) {
	h, _ := protectedEcho(t)
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareAcceptsBearerToken(t *testing.T) {
	h, seen := protectedEcho(t)
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", seen.ID)
	assert.Equal(t, "ana@example.com", seen.Email)
}

func TestMiddlewareAcceptsSessionCookie(t *testing.T) {
	h, seen := protectedEcho(t)
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good-token"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", seen.ID)
}
