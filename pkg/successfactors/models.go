package successfactors

import "time"

// AccessToken is the wire shape of a successful token exchange response.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// CachedToken is the token as held by the manager, with the absolute expiry
// already derated by the refresh margin.
type CachedToken struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Valid reports whether the token can still be used at instant t.
func (t *CachedToken) Valid(t0 time.Time) bool {
	return t != nil && t.AccessToken != "" && t0.Before(t.ExpiresAt)
}

// TokenStatus is the metadata surfaced over the API. It intentionally has no
// field for the token itself.
type TokenStatus struct {
	Cached      bool      `json:"cached"`
	TokenType   string    `json:"token_type,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	SecondsLeft int64     `json:"seconds_left,omitempty"`
}

// User is a subset of the SuccessFactors OData User entity.
type User struct {
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Status     string `json:"status"`
	Division   string `json:"division"`
	Department string `json:"department"`
	Title      string `json:"title"`
}

// OData v2 wraps every payload in a "d" envelope.
type userEnvelope struct {
	D User `json:"d"`
}

type userListEnvelope struct {
	D struct {
		Results []User `json:"results"`
	} `json:"d"`
}

// ListUsersQuery carries the OData query options we expose. Zero values mean
// the option is omitted from the request.
type ListUsersQuery struct {
	Top    int
	Filter string
}
