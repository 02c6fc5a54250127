package successfactors

import (
	"net/http"
	"testing"
	"time"

	"github.com/ssakssri/sfsf-connector-api/pkg/core"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	called bool
	req    *http.Request
	resp   *http.Response
	err    error
}

func (f *fakeTransport) Do(req *http.Request) (*http.Response, error) {
	f.called = true
	f.req = req
	return f.resp, f.err
}

func TestNew_ValidatesConfig(t *testing.T) {
	_, err := New(nil, Options{})
	require.EqualError(t, err, "cfg is required")

	base := func() *core.SuccessFactorsConfig {
		return testSFConfig(t, "https://acme.example.com/oauth/token")
	}

	cfg := base()
	cfg.CompanyID = ""
	_, err = New(cfg, Options{})
	require.EqualError(t, err, "cfg.CompanyID is required")

	cfg = base()
	cfg.ClientID = " "
	_, err = New(cfg, Options{})
	require.EqualError(t, err, "cfg.ClientID is required")

	cfg = base()
	cfg.UserID = ""
	_, err = New(cfg, Options{})
	require.EqualError(t, err, "cfg.UserID is required")

	cfg = base()
	cfg.TokenURL = ""
	_, err = New(cfg, Options{})
	require.EqualError(t, err, "cfg.TokenURL is required")

	cfg = base()
	cfg.PrivateKey = ""
	_, err = New(cfg, Options{})
	require.EqualError(t, err, "cfg.PrivateKey is required")
}

func TestNew_RejectsBadKeyMaterial(t *testing.T) {
	cfg := testSFConfig(t, "https://acme.example.com/oauth/token")
	cfg.PrivateKey = "definitely not a key"

	_, err := New(cfg, Options{})

	var keyErr *KeyLoadError
	require.ErrorAs(t, err, &keyErr)
}

func TestNew_UsesInjectedHTTPClient(t *testing.T) {
	cfg := testSFConfig(t, "https://acme.example.com/oauth/token")
	fd := &fakeTransport{}

	svc, err := New(cfg, Options{HTTPClient: fd, Timeout: time.Second})
	require.NoError(t, err)

	impl, ok := svc.(*service)
	require.True(t, ok, "New should return *service implementation")
	require.Same(t, cfg, impl.cfg, "should preserve cfg pointer")
	require.Same(t, fd, impl.client, "should use injected HTTP client")
	require.Equal(t, time.Second, impl.timeout)
}

func TestNew_DefaultAudience(t *testing.T) {
	cfg := testSFConfig(t, "https://acme.example.com/oauth/token")
	require.Empty(t, cfg.Audience)

	svc, err := New(cfg, Options{})
	require.NoError(t, err)

	impl := svc.(*service)
	require.Equal(t, "www.successfactors.com", impl.tokens.signer.audience)
}

func TestNew_ExplicitAudienceWins(t *testing.T) {
	cfg := testSFConfig(t, "https://acme.example.com/oauth/token")
	cfg.Audience = "custom-audience"

	svc, err := New(cfg, Options{})
	require.NoError(t, err)

	impl := svc.(*service)
	require.Equal(t, "custom-audience", impl.tokens.signer.audience)
}
