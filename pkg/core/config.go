package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	defaultConfigEnvironment = "development"
	defaultConfigPort        = 8000
	defaultSkipAuth          = false

	defaultOtelDisable          = false
	defaultOTLPExporterEndpoint = "localhost:4317"
	defaultOTLPInsecure         = false

	defaultAuthIssuer   = "UNSET"
	defaultAuthJWKSURL  = "UNSET"
	defaultAuthAudience = "UNSET"

	defaultRedisAddr     = "localhost:6379"
	defaultRedisPassword = ""
	defaultRedisDB       = 0

	// SAP publishes this fixed audience for the SAML bearer grant; it is
	// not the token endpoint.
	defaultSFAudience = "www.successfactors.com"
)

func DefaultConfig() Config {
	return Config{
		Environment: defaultConfigEnvironment,
		Port:        defaultConfigPort,
		SkipAuth:    defaultSkipAuth,
		Otel: OtelConfig{
			Disable: defaultOtelDisable,
			OtlpExporter: OtlpConfig{
				Endpoint: defaultOTLPExporterEndpoint,
				Insecure: defaultOTLPInsecure,
			},
		},
		Auth: AuthConfig{
			Issuer:   defaultAuthIssuer,
			JWKSURL:  defaultAuthJWKSURL,
			Audience: defaultAuthAudience,
		},
		Redis: RedisConfig{
			Addr:     defaultRedisAddr,
			Password: defaultRedisPassword,
			DB:       defaultRedisDB,
		},
		SuccessFactors: SuccessFactorsConfig{
			Audience: defaultSFAudience,
		},
	}
}

func NewConfig(options ...func(*Config)) Config {
	config := DefaultConfig()
	for _, opt := range options {
		opt(&config)
	}
	return config
}

func NewConfigFromEnv(options ...func(*Config)) (Config, error) {
	config := DefaultConfig()
	err := errors.Join(
		setFromEnv(&config.Environment, "ENVIRONMENT"),
		setFromEnv(&config.Port, "PORT"),
		setFromEnv(&config.SkipAuth, "SKIP_AUTH"),
		setFromEnv(&config.Otel.Disable, "OTEL_DISABLE"),
		setFromEnv(&config.Otel.OtlpExporter.Endpoint, "OTEL_OTLP_EXPORTER_ENDPOINT"),
		setFromEnv(&config.Otel.OtlpExporter.Insecure, "OTEL_OTLP_EXPORTER_INSECURE"),
		setFromEnv(&config.Auth.Issuer, "AUTH_ISSUER"),
		setFromEnv(&config.Auth.JWKSURL, "AUTH_JWKS_URL"),
		setFromEnv(&config.Auth.Audience, "AUTH_AUDIENCE"),
		setFromEnv(&config.Redis.Addr, "REDIS_ADDR"),
		setFromEnv(&config.Redis.Password, "REDIS_PASSWORD"),
		setFromEnv(&config.Redis.DB, "REDIS_DB"),
		setFromEnv(&config.SuccessFactors.CompanyID, "SF_COMPANY_ID"),
		setFromEnv(&config.SuccessFactors.ClientID, "SF_CLIENT_ID"),
		setFromEnv(&config.SuccessFactors.UserID, "SF_USER_ID"),
		setFromEnv(&config.SuccessFactors.APIBaseURL, "SF_API_BASE_URL"),
		setFromEnv(&config.SuccessFactors.TokenURL, "SF_TOKEN_URL"),
		setFromEnv(&config.SuccessFactors.Audience, "SF_AUDIENCE"),
		setFromEnv(&config.SuccessFactors.PrivateKey, "SF_PRIVATE_KEY"),
	)

	normalizeSuccessFactors(&config.SuccessFactors)

	for _, opt := range options {
		opt(&config)
	}

	return config, err
}

// normalizeSuccessFactors derives the token endpoint from the API base URL
// when it was not configured explicitly, mirroring how the tenant publishes
// both under one host.
func normalizeSuccessFactors(sf *SuccessFactorsConfig) {
	sf.APIBaseURL = strings.TrimRight(sf.APIBaseURL, "/")
	if sf.TokenURL == "" && sf.APIBaseURL != "" {
		sf.TokenURL = sf.APIBaseURL + "/oauth/token"
	}
}

func LoadEnv(environment ...string) error {
	filenames := []string{
		".env.local",
		".env",
	}

	env := getEnv("ENVIRONMENT", DefaultConfig().Environment)
	if len(environment) > 0 {
		env = environment[0]
	}

	if env != "" {
		file := ".env." + env + ".local"
		filenames = append([]string{file}, filenames...)
	}

	var errs error

	for _, filename := range filenames {
		err := loadEnvFile(filename)
		if err != nil {
			errs = errors.Join(
				errs,
				fmt.Errorf("error loading %s: %w", filename, err),
			)
		}
	}

	return errs
}
