package successfactors

import "fmt"

// KeyLoadError reports private key material that could not be turned into a
// usable RSA signing key. Not retryable without operator intervention.
type KeyLoadError struct {
	Reason string
	Err    error
}

func (e *KeyLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("successfactors: load private key: %s: %v", e.Reason, e.Err)
	}
	return "successfactors: load private key: " + e.Reason
}

func (e *KeyLoadError) Unwrap() error { return e.Err }

// SigningError reports a failure of the signing primitive itself, e.g. a key
// too small for RSA-SHA256 PKCS#1 v1.5.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("successfactors: sign assertion: %v", e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

// TokenExchangeError reports a failed exchange at the grant endpoint.
// Potentially transient; retrying is the caller's decision. Body is a
// truncated response snippet and never contains the assertion or the key.
type TokenExchangeError struct {
	Endpoint string
	Status   int
	Body     string
	Err      error
}

func (e *TokenExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("successfactors: token exchange at %s failed: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("successfactors: token exchange at %s failed: status=%d body=%s", e.Endpoint, e.Status, e.Body)
}

func (e *TokenExchangeError) Unwrap() error { return e.Err }

// UpstreamError reports a non-2xx reply from the OData API.
type UpstreamError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("successfactors: request to %s failed: status=%d body=%s", e.Endpoint, e.Status, e.Body)
}
