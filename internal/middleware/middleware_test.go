package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quill/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func sessionApp() *fiber.App {
	InitMiddleware(&config.Config{JWTSecret: testSecret})
	app := fiber.New()
	app.Use(LoadSession)
	app.Get("/open", func(c *fiber.Ctx) error {
		userID, ok := CurrentUserID(c)
		return c.JSON(fiber.Map{"user_id": userID, "ok": ok})
	})
	app.Get("/create/", LoginRequired, func(c *fiber.Ctx) error {
		return c.SendString("form")
	})
	return app
}

func TestLoginRequired_RedirectsAnonymous(t *testing.T) {
	app := sessionApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/create/?x=1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=%2Fcreate%2F%3Fx%3D1", resp.Header.Get("Location"))
}

func TestLoginRequired_AllowsSessionCookie(t *testing.T) {
	app := sessionApp()
	token, err := SignSessionToken(42, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/create/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoadSession_BearerHeader(t *testing.T) {
	app := sessionApp()
	token, err := SignSessionToken(7, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/create/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestParseSessionToken(t *testing.T) {
	InitMiddleware(&config.Config{JWTSecret: testSecret})

	valid, err := SignSessionToken(123, time.Hour)
	require.NoError(t, err)
	expired, err := SignSessionToken(123, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantID  uint
		wantErr bool
	}{
		{"valid", valid, 123, false},
		{"expired", expired, 0, true},
		{"garbage", "not-a-token", 0, true},
		{"tampered", valid[:len(valid)-2] + "xx", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseSessionToken(tt.token)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestParseSessionToken_WrongSecret(t *testing.T) {
	InitMiddleware(&config.Config{JWTSecret: testSecret})
	token, err := SignSessionToken(5, time.Hour)
	require.NoError(t, err)

	InitMiddleware(&config.Config{JWTSecret: strings.Repeat("z", 40)})
	_, err = ParseSessionToken(token)
	assert.Error(t, err)
}

func TestCheckRateLimit_DevelopmentBypass(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	allowed, err := CheckRateLimit(context.Background(), nil, "r", "1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCheckRateLimit_NilRedisInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	allowed, err := CheckRateLimit(context.Background(), nil, "r", "1", 1, time.Minute)
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestCheckRateLimit_WindowWithMiniredis(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		allowed, err := CheckRateLimit(ctx, rdb, "comment", "user:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := CheckRateLimit(ctx, rdb, "comment", "user:1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	mr.FastForward(time.Minute + time.Second)
	allowed, err = CheckRateLimit(ctx, rdb, "comment", "user:1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimit_ReturnsTooManyRequests(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	app := fiber.New()
	app.Post("/x", RateLimit(rdb, 1, time.Minute, "x"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestRateLimit_RestoresMissingExpiry(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	require.NoError(t, mr.Set("rl:login:ip:1", "5"))
	allowed, err := CheckRateLimit(context.Background(), rdb, "login", "ip:1", 10, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, time.Minute, mr.TTL("rl:login:ip:1"))
}

func TestRateLimitWithPolicy_FailClosed(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	app := fiber.New()
	app.Post("/x", RateLimitWithPolicy(nil, 1, time.Minute, FailClosed, "x"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	open := fiber.New()
	open.Post("/x", RateLimit(nil, 1, time.Minute, "x"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	resp, err = open.Test(httptest.NewRequest(http.MethodPost, "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
