package core

type Config struct {
	Environment    string
	Port           int
	SkipAuth       bool
	Auth           AuthConfig
	Otel           OtelConfig
	Redis          RedisConfig
	SuccessFactors SuccessFactorsConfig
}

type OtlpConfig struct {
	Endpoint string
	Insecure bool
}

type OtelConfig struct {
	OtlpExporter OtlpConfig
	Disable      bool
}

// AuthConfig configures the inbound JWT verification middleware. Tokens
// presented to this service are validated against the issuer's published
// JWKS.
type AuthConfig struct {
	Issuer   string
	JWKSURL  string
	Audience string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SuccessFactorsConfig holds the OAuth2 SAML bearer identity used against
// the SuccessFactors tenant. PrivateKey is the RSA signing key in PEM form
// (or the raw base64 body SAP hands out without armor); it is held only by
// the assertion signer and never logged.
type SuccessFactorsConfig struct {
	CompanyID  string
	ClientID   string
	UserID     string
	APIBaseURL string
	TokenURL   string
	Audience   string
	PrivateKey string
}
