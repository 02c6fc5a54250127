package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ssakssri/sfsf-connector-api/pkg/circuitbreaker"
	"github.com/ssakssri/sfsf-connector-api/pkg/core"
)

func TestBearerToken(t *testing.T) {
	require.Equal(t, "abc", bearerToken("Bearer abc"))
	require.Equal(t, "abc", bearerToken("bearer abc"))
	require.Equal(t, "", bearerToken(""))
	require.Equal(t, "", bearerToken("Basic abc"))
	require.Equal(t, "", bearerToken("Bearer "))
}

func TestNewTokenVerifier_RequiresIssuer(t *testing.T) {
	_, err := NewTokenVerifier(core.AuthConfig{})
	require.Error(t, err)
}

func TestNewTokenVerifier_DerivesJWKSURL(t *testing.T) {
	v, err := NewTokenVerifier(core.AuthConfig{Issuer: "https://issuer.example.com/"})
	require.NoError(t, err)
	require.Equal(t, "https://issuer.example.com/.well-known/jwks.json", v.jwksURL)
}

func TestTokenVerifier_MissingHeaderRejected(t *testing.T) {
	v, err := NewTokenVerifier(core.AuthConfig{Issuer: "https://issuer.example.com"})
	require.NoError(t, err)

	app := fiber.New()
	app.Use(v.FiberMiddleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func newBreakerApp(t *testing.T, handler fiber.Handler) (*fiber.App, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	withCB := WithCircuitBreaker(func(name string) *circuitbreaker.RedisBreaker {
		return circuitbreaker.NewRedisBreaker(rdb, name, circuitbreaker.Options{
			FailureThreshold: 2,
			FailWindow:       10 * time.Second,
			OpenCoolDown:     10 * time.Second,
			FailOpen:         true,
			Prefix:           "cb:",
		}, nil)
	})

	app := fiber.New()
	app.Get("/thing", withCB(handler))
	return app, mr
}

func TestWithCircuitBreaker_OpensAfterFailures(t *testing.T) {
	app, _ := newBreakerApp(t, func(c *fiber.Ctx) error {
		return fiber.ErrBadGateway
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/thing", http.NoBody)
		resp, err := app.Test(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodGet, "/thing", http.NoBody)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestWithCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	var fail bool
	app, _ := newBreakerApp(t, func(c *fiber.Ctx) error {
		if fail {
			return fiber.ErrBadGateway
		}
		return c.SendStatus(fiber.StatusOK)
	})

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/thing", http.NoBody)
		resp, err := app.Test(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	fail = true
	require.Equal(t, fiber.StatusBadGateway, do())

	fail = false
	require.Equal(t, fiber.StatusOK, do())

	// The earlier failure no longer counts toward the threshold.
	fail = true
	require.Equal(t, fiber.StatusBadGateway, do())
	require.Equal(t, fiber.StatusBadGateway, do())
}
