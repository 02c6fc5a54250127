package successfactors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// GetUser fetches a single OData User entity by key.
func (s *service) GetUser(ctx context.Context, userID string) (*User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("userID is required")
	}
	if strings.TrimSpace(s.cfg.APIBaseURL) == "" {
		return nil, errors.New("cfg.APIBaseURL is required")
	}

	endpoint := fmt.Sprintf("%s/odata/v2/User('%s')?$format=json",
		s.cfg.APIBaseURL, url.PathEscape(userID))

	body, err := s.doODataGet(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var out userEnvelope
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out.D, nil
}

// ListUsers fetches User entities with optional $top and $filter options.
func (s *service) ListUsers(ctx context.Context, q ListUsersQuery) ([]User, error) {
	if strings.TrimSpace(s.cfg.APIBaseURL) == "" {
		return nil, errors.New("cfg.APIBaseURL is required")
	}

	query := url.Values{"$format": {"json"}}
	if q.Top > 0 {
		query.Set("$top", strconv.Itoa(q.Top))
	}
	if strings.TrimSpace(q.Filter) != "" {
		query.Set("$filter", q.Filter)
	}

	endpoint := s.cfg.APIBaseURL + "/odata/v2/User?" + query.Encode()

	body, err := s.doODataGet(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var out userListEnvelope
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out.D.Results, nil
}

// ValidateToken exercises the current token against the validate endpoint
// and returns the cache metadata on success.
func (s *service) ValidateToken(ctx context.Context) (*TokenStatus, error) {
	if strings.TrimSpace(s.cfg.APIBaseURL) == "" {
		return nil, errors.New("cfg.APIBaseURL is required")
	}

	endpoint := s.cfg.APIBaseURL + "/oauth/validate"
	if _, err := s.doODataGet(ctx, endpoint); err != nil {
		return nil, err
	}

	status := s.tokens.Status()
	return &status, nil
}

// doODataGet performs an authenticated GET and returns the response body.
// Non-2xx responses surface as UpstreamError with a bounded body snippet.
func (s *service) doODataGet(ctx context.Context, endpoint string) ([]byte, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tok, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", applicationJSON)
	req.Header.Set(authHeader, tok.TokenType+" "+tok.AccessToken)

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		s.logger.Error("SF request failed",
			slog.Any("error", err),
			slog.String("endpoint", endpoint),
			slog.Duration("latency", latency),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := errBodySnippet(body)
		s.logger.Error("SF request rejected",
			slog.Int("status", resp.StatusCode),
			slog.String("endpoint", endpoint),
			slog.Duration("latency", latency),
			slog.String("body", snippet),
		)
		return nil, &UpstreamError{Endpoint: endpoint, Status: resp.StatusCode, Body: snippet}
	}

	return body, nil
}
