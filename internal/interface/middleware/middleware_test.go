package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/rbac"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/helpers"
)

type fakeAuth struct {
	tokens map[string]*rbac.Actor
	err    error
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*rbac.Actor, error) {
	if f.err != nil {
		return nil, f.err
	}
	if a, ok := f.tokens[token]; ok {
		c := *a
		return &c, nil
	}
	return nil, apperror.Unauthenticated()
}

func serve(t *testing.T, r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func authEngine(auth Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/me", Auth(auth), func(c *gin.Context) {
		a := ActorFrom(c)
		fromCtx := rbac.ActorFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"user":       a.UserID,
			"request_id": a.RequestID,
			"same":       fromCtx != nil && fromCtx.UserID == a.UserID,
			"key":        c.GetString("userID"),
		})
	})
	return r
}

func TestAuthAcceptsBearerAndCookie(t *testing.T) {
	r := authEngine(&fakeAuth{tokens: map[string]*rbac.Actor{"good": {UserID: "u1", Role: entity.RoleMember}}})

	tests := []struct {
		name  string
		setup func(*http.Request)
		want  int
	}{
		{"bearer", func(req *http.Request) { req.Header.Set("Authorization", "Bearer good") }, http.StatusOK},
		{"bearer lower case", func(req *http.Request) { req.Header.Set("Authorization", "bearer good") }, http.StatusOK},
		{"cookie", func(req *http.Request) { req.AddCookie(&http.Cookie{Name: helpers.AccessCookie, Value: "good"}) }, http.StatusOK},
		{"wrong scheme", func(req *http.Request) { req.Header.Set("Authorization", "Basic good") }, http.StatusUnauthorized},
		{"bad token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer bad") }, http.StatusUnauthorized},
		{"nothing", func(*http.Request) {}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := serve(t, r, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"user":"u1","request_id":"`+w.Header().Get(RequestIDHeader)+`","same":true,"key":"u1"}`, w.Body.String())
			}
		})
	}
}

func TestAuthStoreFailureIsInternal(t *testing.T) {
	r := authEngine(&fakeAuth{err: errors.New("redis down")})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer anything")
	w := serve(t, r, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequestIDKeepsValidIncomingID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	const incoming = "3f1c1f7e-5d2a-4c1e-9b59-0c1a2b3c4d5e"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w := serve(t, r, req)
	assert.Equal(t, incoming, w.Body.String())
	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	w = serve(t, r, req)
	assert.NotEqual(t, "<script>", w.Body.String())
	assert.Len(t, w.Body.String(), 36)
}

func TestRealIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name    string
		trust   bool
		headers map[string]string
		want    string
	}{
		{"untrusted ignores headers", false, map[string]string{"X-Real-IP": "203.0.113.9"}, "192.0.2.1"},
		{"cloudflare first", true, map[string]string{"CF-Connecting-IP": "203.0.113.7", "X-Real-IP": "203.0.113.9"}, "203.0.113.7"},
		{"left-most forwarded", true, map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "203.0.113.5"},
		{"garbage falls back", true, map[string]string{"X-Real-IP": "not-an-ip"}, "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RealIP(tt.trust))
			r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("real_ip")) })
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.1:4321"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := serve(t, r, req)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestRateLimitWithoutRedisIsNoop(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RateLimit(nil, 1, time.Minute, KeyByIP(), nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 3; i++ {
		w := serve(t, r, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimitKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/login", nil)
	c.Set("real_ip", "198.51.100.4")

	assert.Equal(t, "rl:ip:198.51.100.4", KeyByIP()(c))
	assert.Equal(t, "rl:path:/api/login:ip:198.51.100.4", KeyByIPAndPath()(c))
	assert.Equal(t, "rl:user:anon:ip:198.51.100.4", KeyByUserID()(c))
	c.Set("userID", "u1")
	assert.Equal(t, "rl:user:u1", KeyByUserID()(c))

	allow := AllowPrivateIP()
	assert.False(t, allow(c))
	c.Set("real_ip", "10.1.2.3")
	assert.True(t, allow(c))
	c.Set("real_ip", "127.0.0.1")
	assert.True(t, allow(c))
}
