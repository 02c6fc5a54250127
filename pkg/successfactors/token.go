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
	"strings"
	"sync"
	"time"

	"github.com/ssakssri/sfsf-connector-api/pkg/core"
	"golang.org/x/oauth2"
)

// TokenManager holds at most one cached token for the configured
// company/client/user triple and refreshes it on demand. A failed refresh
// never evicts a still-valid cached token.
type TokenManager struct {
	cfg     *core.SuccessFactorsConfig
	signer  *Signer
	client  HTTPTransport
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time

	mu     sync.Mutex
	cached *CachedToken
}

func newTokenManager(
	cfg *core.SuccessFactorsConfig,
	signer *Signer,
	client HTTPTransport,
	logger *slog.Logger,
	timeout time.Duration,
	now func() time.Time,
) *TokenManager {
	if now == nil {
		now = time.Now
	}
	return &TokenManager{
		cfg:     cfg,
		signer:  signer,
		client:  client,
		logger:  logger,
		timeout: timeout,
		now:     now,
	}
}

// Token returns the cached token when it is still inside its lifetime, and
// performs one exchange otherwise. Concurrent callers serialize on the
// manager lock, so a cold cache triggers exactly one upstream request.
func (m *TokenManager) Token(ctx context.Context) (*CachedToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached.Valid(m.now().UTC()) {
		return m.cached, nil
	}

	tok, err := m.exchange(ctx)
	if err != nil {
		return nil, err
	}

	m.cached = tok
	return tok, nil
}

// Cached returns the current cache entry without refreshing, or nil.
func (m *TokenManager) Cached() *CachedToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cached
}

// Invalidate drops the cached token so the next Token call exchanges anew.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cached = nil
}

// Status reports cache metadata. It never includes the token itself.
func (m *TokenManager) Status() TokenStatus {
	m.mu.Lock()
	tok := m.cached
	m.mu.Unlock()

	now := m.now().UTC()
	if !tok.Valid(now) {
		return TokenStatus{Cached: false}
	}

	return TokenStatus{
		Cached:      true,
		TokenType:   tok.TokenType,
		ExpiresAt:   tok.ExpiresAt,
		SecondsLeft: int64(tok.ExpiresAt.Sub(now).Seconds()),
	}
}

func (m *TokenManager) exchange(ctx context.Context) (*CachedToken, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	assertion, err := m.signer.Sign()
	if err != nil {
		m.logger.Error("SF assertion build failed", slog.Any("error", err))
		return nil, err
	}

	m.logger.Info("SF token exchange inputs",
		slog.String("company_id", m.cfg.CompanyID),
		slog.String("client_id_prefix", prefix(m.cfg.ClientID, 8)),
		slog.String("token_url", m.cfg.TokenURL),
		slog.String("assertion_id", assertion.ID),
	)

	form := url.Values{
		"company_id": {m.cfg.CompanyID},
		"client_id":  {m.cfg.ClientID},
		"grant_type": {grantTypeSAMLBearer},
		"assertion":  {assertion.Encoded},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", applicationJSON)
	req.Header.Set("Content-Type", contentTypeForm)

	start := m.now()
	resp, err := m.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		m.logger.Error("SF token request failed",
			slog.Any("error", err),
			slog.Duration("latency", latency),
		)
		return nil, &TokenExchangeError{Endpoint: m.cfg.TokenURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TokenExchangeError{
			Endpoint: m.cfg.TokenURL,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("read response body: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := errBodySnippet(body)
		m.logger.Error("SF token exchange rejected",
			slog.Int("status", resp.StatusCode),
			slog.Duration("latency", latency),
			slog.String("body", snippet),
		)
		return nil, &TokenExchangeError{Endpoint: m.cfg.TokenURL, Status: resp.StatusCode, Body: snippet}
	}

	var at AccessToken
	if err := json.Unmarshal(body, &at); err != nil {
		return nil, &TokenExchangeError{Endpoint: m.cfg.TokenURL, Status: resp.StatusCode, Err: err}
	}
	if at.AccessToken == "" {
		return nil, &TokenExchangeError{
			Endpoint: m.cfg.TokenURL,
			Status:   resp.StatusCode,
			Err:      errors.New("response missing access_token"),
		}
	}

	expiresIn := at.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}

	lifetime := time.Duration(expiresIn) * time.Second
	margin := tokenExpiryMargin
	if lifetime <= margin {
		// Short-lived token; keep it usable for half its lifetime rather
		// than expiring it on arrival.
		margin = lifetime / 2
		m.logger.Warn("SF token lifetime shorter than refresh margin",
			slog.Int64("expires_in", expiresIn),
			slog.Duration("margin", margin),
		)
	}

	tokenType := strings.TrimSpace(at.TokenType)
	if tokenType == "" {
		tokenType = "Bearer"
	}

	tok := &CachedToken{
		AccessToken: at.AccessToken,
		TokenType:   tokenType,
		ExpiresAt:   m.now().UTC().Add(lifetime - margin),
	}

	m.logger.Info("SF token acquired",
		slog.String("token_type", tok.TokenType),
		slog.Int64("expires_in", expiresIn),
		slog.Duration("latency", latency),
		slog.String("access_token_prefix", prefix(tok.AccessToken, 12)),
	)

	return tok, nil
}

// TokenSource adapts the manager to the oauth2 interface so callers can plug
// it into anything that speaks oauth2.TokenSource.
func (m *TokenManager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &managerTokenSource{ctx: ctx, mgr: m}
}

// HTTPClient returns a client that injects the managed bearer token on every
// request. The base client, when given, handles the actual transport.
func (m *TokenManager) HTTPClient(ctx context.Context, base *http.Client) *http.Client {
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	return oauth2.NewClient(ctx, m.TokenSource(ctx))
}

// HeaderPreservingClient keeps request headers across same-host redirects,
// which Go's default client strips.
func HeaderPreservingClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(r *http.Request, via []*http.Request) error {
			if len(via) > 0 {
				r.Header = via[0].Header.Clone()
			}
			return nil
		},
	}
}

type managerTokenSource struct {
	ctx context.Context
	mgr *TokenManager
}

func (s *managerTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.mgr.Token(s.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		Expiry:      tok.ExpiresAt,
	}, nil
}

func errBodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrBodyLogBytes {
		s = s[:maxErrBodyLogBytes] + "..."
	}
	return s
}
