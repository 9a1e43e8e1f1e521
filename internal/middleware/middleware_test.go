package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tourflow/tourflow/internal/config"
	"github.com/tourflow/tourflow/internal/model"
	"github.com/tourflow/tourflow/internal/utils"
)

const secret = "test-secret"

func whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"id": UserID(c), "role": Role(c)})
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret))

	tok, err := utils.NewAccessToken(secret, 42, model.RoleEngineer, 5)
	require.NoError(t, err)
	other, err := utils.NewAccessToken("other", 42, model.RoleEngineer, 5)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + other.Token, http.StatusUnauthorized},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"valid", "Bearer " + tok.Token, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := serve(e, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"id":42,"role":"ENGINEER"}`, rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoami, JWTAuth(secret), RequireRole(model.RoleAdmin))

	for role, want := range map[string]int{
		model.RoleAdmin:    http.StatusOK,
		model.RoleEngineer: http.StatusForbidden,
	} {
		tok, err := utils.NewAccessToken(secret, 1, role, 5)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+tok.Token)
		assert.Equal(t, want, serve(e, req).Code, role)
	}
}

func TestTokenBucketFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl"}
	e := echo.New()
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") }, NewTokenBucket(cfg, rdb, zap.NewNop()))

	for i := 0; i < 3; i++ {
		rec := serve(e, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestDisabledMiddlewarePassThrough(t *testing.T) {
	e := echo.New()
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") },
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil),
		NewRedisCache(config.CacheConfig{Enabled: true}, nil),
	)
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/tours/abc", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/tours/:id")
	c.Set(ctxUserID, uint64(7))

	cases := map[string]string{
		"ip":            "rl:ip:10.0.0.1",
		"user":          "rl:user:7",
		"route":         "rl:route:GET /v1/tours/:id",
		"user_route":    "rl:user:7:route:GET /v1/tours/:id",
		"ip_user_route": "rl:ip:10.0.0.1:user:7:route:GET /v1/tours/:id",
	}
	for strategy, want := range cases {
		cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}
		assert.Equal(t, want, buildRateKey(cfg, c), strategy)
	}
}

func TestCacheKeyScopedToUserAndGeneration(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	ctx := func(uid uint64, target string) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/v1/tours")
		if uid != 0 {
			c.Set(ctxUserID, uid)
		}
		return c
	}

	base := cacheKeyFrom(cfg, ctx(1, "/v1/tours?status=active"), 0)
	assert.Equal(t, base, cacheKeyFrom(cfg, ctx(1, "/v1/tours?status=active"), 0))
	assert.NotEqual(t, base, cacheKeyFrom(cfg, ctx(2, "/v1/tours?status=active"), 0))
	assert.NotEqual(t, base, cacheKeyFrom(cfg, ctx(1, "/v1/tours?status=active"), 1))
	assert.NotEqual(t, base, cacheKeyFrom(cfg, ctx(1, "/v1/tours?status=planning"), 0))
	assert.Equal(t, "cache:gen:anon", generationKey(cfg, identity(ctx(0, "/"))))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, `{"ok":true}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}
