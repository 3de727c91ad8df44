package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedApp(maxPerMinute int) *fiber.App {
	app := fiber.New()
	limiter := New(Config{MaxRequestsPerMinute: maxPerMinute})
	app.Use(limiter.Middleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestAllowsUpToLimit(t *testing.T) {
	app := newLimitedApp(3)

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestSeparateBucketsPerUser(t *testing.T) {
	app := newLimitedApp(1)

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.Header.Set("X-User-ID", "alice")
	resp, err := app.Test(first)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// alice is out of tokens; bob gets a separate bucket
	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.Header.Set("X-User-ID", "alice")
	resp, err = app.Test(second)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	third := httptest.NewRequest(http.MethodGet, "/", nil)
	third.Header.Set("X-User-ID", "bob")
	resp, err = app.Test(third)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAllowDirect(t *testing.T) {
	limiter := New(Config{MaxRequestsPerMinute: 2})

	assert.True(t, limiter.allow("key"))
	assert.True(t, limiter.allow("key"))
	assert.False(t, limiter.allow("key"))
}
