package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"decom/internal/model"
	"decom/internal/permission"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth map[uint]*model.User

func (f fakeAuth) Authenticate(_ context.Context, id uint) (*model.User, error) {
	u, ok := f[id]
	if !ok || !u.Active {
		return nil, errors.New("refused")
	}
	return u, nil
}

func newEngine(tokens *Tokens, auth Authenticator, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWTAuth(tokens, auth, "decom_session")}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": u.ID})
	})
	r.GET("/private", handlers...)
	return r
}

func get(r http.Handler, mod func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if mod != nil {
		mod(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("0123456789abcdef", time.Hour)
	raw, err := tokens.Issue(&model.User{ID: 4, FullName: "Ana", Role: "admin"})
	require.NoError(t, err)

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.EqualValues(t, 4, claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	_, err = NewTokens("another-secret-value", time.Hour).Parse(raw)
	assert.Error(t, err)

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tokens.Parse(raw)
	assert.Error(t, err)
}

func TestJWTAuth(t *testing.T) {
	tokens := NewTokens("0123456789abcdef", 7*24*time.Hour)
	active := &model.User{ID: 1, FullName: "Ana", Role: "admin", Active: true}
	inactive := &model.User{ID: 2, FullName: "Luis", Role: "admin", Active: false}
	r := newEngine(tokens, fakeAuth{1: active, 2: inactive})

	okToken, err := tokens.Issue(active)
	require.NoError(t, err)
	offToken, err := tokens.Issue(inactive)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get(r, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer garbage")
	}).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+offToken)
	}).Code)

	w := get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+okToken) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1}`, w.Body.String())
	assert.Empty(t, w.Header().Get("X-New-Token"))

	w = get(r, func(req *http.Request) { req.AddCookie(&http.Cookie{Name: "decom_session", Value: okToken}) })
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthRenewsNearExpiry(t *testing.T) {
	tokens := NewTokens("0123456789abcdef", 7*24*time.Hour)
	u := &model.User{ID: 1, FullName: "Ana", Role: "admin", Active: true}
	raw, err := tokens.Issue(u)
	require.NoError(t, err)

	tokens.now = func() time.Time { return time.Now().Add(6*24*time.Hour + time.Hour) }
	w := get(newEngine(tokens, fakeAuth{1: u}), func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+raw)
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-New-Token"))
}

func TestRequirePermission(t *testing.T) {
	tokens := NewTokens("0123456789abcdef", time.Hour)
	viewer := &model.User{ID: 1, FullName: "Ver", Role: "viewer", Active: true}
	designer := &model.User{ID: 2, FullName: "Dis", Role: "designer", Active: true}
	r := newEngine(tokens, fakeAuth{1: viewer, 2: designer}, RequirePermission(permission.RequestsUpdate))

	for _, tt := range []struct {
		user *model.User
		code int
	}{
		{viewer, http.StatusForbidden},
		{designer, http.StatusOK},
	} {
		raw, err := tokens.Issue(tt.user)
		require.NoError(t, err)
		w := get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+raw) })
		assert.Equal(t, tt.code, w.Code, tt.user.Role)
	}
}
