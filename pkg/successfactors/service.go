package successfactors

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ssakssri/sfsf-connector-api/pkg/core"
)

const (
	grantTypeSAMLBearer string = "urn:ietf:params:oauth:grant-type:saml2-bearer"
	contentTypeForm     string = "application/x-www-form-urlencoded"
	applicationJSON     string = "application/json"

	authHeader  string        = "Authorization"
	optsTimeout time.Duration = 10 * time.Second

	// Cached tokens are treated as expired this long before the server says
	// so, leaving headroom for clock skew and in-flight requests.
	tokenExpiryMargin = 300 * time.Second

	// SAP omits expires_in on some tenants; their tokens live 24h.
	defaultExpiresIn int64 = 86399

	maxErrBodyLogBytes = 800
)

type SuccessFactorsService interface {
	GetAccessToken(ctx context.Context) (*CachedToken, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	ListUsers(ctx context.Context, q ListUsersQuery) ([]User, error)
	ValidateToken(ctx context.Context) (*TokenStatus, error)
	TokenStatus() TokenStatus
	Invalidate()
}

type HTTPTransport interface {
	Do(req *http.Request) (*http.Response, error)
}

type Options struct {
	HTTPClient HTTPTransport
	Logger     *slog.Logger
	Timeout    time.Duration

	// Clock overrides the time source. Leave nil outside tests.
	Clock func() time.Time
}

type service struct {
	cfg     *core.SuccessFactorsConfig
	client  HTTPTransport
	logger  *slog.Logger
	timeout time.Duration

	tokens *TokenManager
}

func New(cfg *core.SuccessFactorsConfig, opts Options) (SuccessFactorsService, error) {
	if cfg == nil {
		return nil, errors.New("cfg is required")
	}
	if strings.TrimSpace(cfg.CompanyID) == "" {
		return nil, errors.New("cfg.CompanyID is required")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.New("cfg.ClientID is required")
	}
	if strings.TrimSpace(cfg.UserID) == "" {
		return nil, errors.New("cfg.UserID is required")
	}
	if strings.TrimSpace(cfg.TokenURL) == "" {
		return nil, errors.New("cfg.TokenURL is required")
	}
	if strings.TrimSpace(cfg.PrivateKey) == "" {
		return nil, errors.New("cfg.PrivateKey is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		slog.String("component", "successfactors"),
		slog.String("vendor", "sap"),
	)

	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = optsTimeout
	}

	key, err := LoadPrivateKey(cfg.PrivateKey)
	if err != nil {
		logger.Error("SF private key load failed", slog.Any("error", err))
		return nil, err
	}

	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "www.successfactors.com"
	}

	signer := newSigner(key, cfg.ClientID, cfg.UserID, cfg.TokenURL, audience, opts.Clock)

	return &service{
		cfg:     cfg,
		client:  client,
		logger:  logger,
		timeout: timeout,
		tokens:  newTokenManager(cfg, signer, client, logger, timeout, opts.Clock),
	}, nil
}

func (s *service) GetAccessToken(ctx context.Context) (*CachedToken, error) {
	return s.tokens.Token(ctx)
}

func (s *service) TokenStatus() TokenStatus {
	return s.tokens.Status()
}

func (s *service) Invalidate() {
	s.tokens.Invalidate()
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
