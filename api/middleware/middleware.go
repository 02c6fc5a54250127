package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/ssakssri/sfsf-connector-api/pkg/circuitbreaker"
	"github.com/ssakssri/sfsf-connector-api/pkg/core"
)

// TokenVerifier validates inbound bearer tokens against the configured
// issuer's JWKS. Key sets are cached and refreshed in the background.
type TokenVerifier struct {
	issuer   string
	audience string
	jwksURL  string
	cache    *jwk.Cache
	client   *http.Client
}

func NewTokenVerifier(cfg core.AuthConfig) (*TokenVerifier, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("Issuer is required")
	}

	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		jwksURL = strings.TrimSuffix(cfg.Issuer, "/") + "/.well-known/jwks.json"
	}

	cache := jwk.NewCache(context.Background())
	if err := cache.Register(jwksURL); err != nil {
		return nil, err
	}

	return &TokenVerifier{
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		jwksURL:  jwksURL,
		cache:    cache,
		client:   &http.Client{Timeout: 5 * time.Second},
	}, nil
}

func (v *TokenVerifier) FiberMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return fiber.ErrUnauthorized
		}

		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()

		keyset, err := v.cache.Get(ctx, v.jwksURL)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unable to load jwks")
		}

		opts := []jwt.ParseOption{
			jwt.WithKeySet(keyset),
			jwt.WithValidate(true),
			jwt.WithIssuer(v.issuer),
		}
		if v.audience != "" {
			opts = append(opts, jwt.WithAudience(v.audience))
		}

		tok, err := jwt.Parse([]byte(raw), opts...)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		// Request-scoped identity for handlers and logging.
		c.Locals("sub", tok.Subject())
		if scope, ok := tok.Get("scope"); ok {
			c.Locals("scope", scope)
		}

		return c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// WithCircuitBreaker trips a per-route Redis-backed breaker. Handler errors
// and 5xx responses count as failures; everything else resets the breaker.
func WithCircuitBreaker(newBreaker func(name string) *circuitbreaker.RedisBreaker) func(fiber.Handler) fiber.Handler {
	var mu sync.RWMutex
	breakers := make(map[string]*circuitbreaker.RedisBreaker)

	getBreaker := func(name string) *circuitbreaker.RedisBreaker {
		mu.RLock()
		b := breakers[name]
		mu.RUnlock()
		if b != nil {
			return b
		}

		mu.Lock()
		defer mu.Unlock()
		if b = breakers[name]; b != nil {
			return b
		}

		b = newBreaker(name)
		breakers[name] = b
		return b
	}

	return func(next fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			breaker := getBreaker(breakerName(c))

			if err := breaker.Allow(c.Context()); err != nil {
				if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
					return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
						"error": "service temporarily unavailable",
						"code":  "CIRCUIT_OPEN",
					})
				}

				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "service temporarily unavailable",
					"code":  "BREAKER_ERROR",
				})
			}

			err := next(c)

			if err != nil || c.Response().StatusCode() >= fiber.StatusInternalServerError {
				breaker.OnFailure(c.Context())
			} else {
				breaker.OnSuccess(c.Context())
			}

			return err
		}
	}
}

func breakerName(c *fiber.Ctx) string {
	var path string
	r := c.Route()
	if r != nil && r.Path != "" {
		path = r.Path
	} else {
		path = c.Path()
	}

	return c.Method() + " " + path
}
