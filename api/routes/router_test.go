package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ssakssri/sfsf-connector-api/pkg/successfactors"
)

type fakeService struct {
	user      *successfactors.User
	users     []successfactors.User
	status    successfactors.TokenStatus
	err       error
	lastQuery successfactors.ListUsersQuery

	invalidated bool
}

func (f *fakeService) GetAccessToken(ctx context.Context) (*successfactors.CachedToken, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &successfactors.CachedToken{AccessToken: "tok123", TokenType: "Bearer", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeService) GetUser(ctx context.Context, userID string) (*successfactors.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeService) ListUsers(ctx context.Context, q successfactors.ListUsersQuery) ([]successfactors.User, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}

func (f *fakeService) ValidateToken(ctx context.Context) (*successfactors.TokenStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &f.status, nil
}

func (f *fakeService) TokenStatus() successfactors.TokenStatus { return f.status }

func (f *fakeService) Invalidate() { f.invalidated = true }

func newTestApp(t *testing.T, svc successfactors.SuccessFactorsService) *fiber.App {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	app := fiber.New()
	RegisterRoutes(app, svc, rdb, nil)
	return app
}

func TestIndexRoute(t *testing.T) {
	app := newTestApp(t, &fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, "OK", string(body))
}

func TestGetUserRoute(t *testing.T) {
	svc := &fakeService{user: &successfactors.User{UserID: "emp42", Username: "jdoe"}}
	app := newTestApp(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/users/emp42", http.NoBody)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var user successfactors.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	require.Equal(t, "emp42", user.UserID)
}

func TestGetUserRoute_NotFound(t *testing.T) {
	svc := &fakeService{err: &successfactors.UpstreamError{Endpoint: "x", Status: http.StatusNotFound}}
	app := newTestApp(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/users/missing", http.NoBody)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestListUsersRoute_PassesQueryOptions(t *testing.T) {
	svc := &fakeService{users: []successfactors.User{{UserID: "emp42"}, {UserID: "emp43"}}}
	app := newTestApp(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/users?top=2&filter=status+eq+'t'", http.NoBody)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 2, svc.lastQuery.Top)
	require.Equal(t, "status eq 't'", svc.lastQuery.Filter)

	var out struct {
		Results []successfactors.User `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Results, 2)
}

func TestTokenRoute_MetadataOnly(t *testing.T) {
	svc := &fakeService{status: successfactors.TokenStatus{Cached: true, TokenType: "Bearer", SecondsLeft: 3300}}
	app := newTestApp(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/token", http.NoBody)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	require.NotContains(t, string(body), "tok123", "raw token must never be exposed")
	require.Contains(t, string(body), "Bearer")
}

func TestTokenRoute_UpstreamFailure(t *testing.T) {
	svc := &fakeService{err: &successfactors.TokenExchangeError{Endpoint: "x", Status: 401}}
	app := newTestApp(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/token", http.NoBody)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestInvalidateTokenRoute(t *testing.T) {
	svc := &fakeService{}
	app := newTestApp(t, svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/token", http.NoBody)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.True(t, svc.invalidated)
}
