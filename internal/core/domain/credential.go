package domain

import "time"

// Credential stores the OAuth2 tokens for one provider. There is exactly one
// credential row per provider; it is created on the first successful
// authorization-code exchange and mutated in place on every refresh.
//
// Nil pointer fields mean "absent": a store write must never null out a
// field that the caller did not supply.
type Credential struct {
	Provider     Provider   `json:"provider"`
	RefreshToken *string    `json:"-"` // Never serialize
	AccessToken  *string    `json:"-"` // Never serialize
	AccessExpiry *time.Time `json:"access_expiry,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasUsableAccessToken reports whether the stored access token can be used
// without a refresh. A nil expiry trusts the cache: some providers omit
// expiry from their refresh responses, and treating "unknown" as "refresh
// every time" would turn every call into a network round trip.
func (c *Credential) HasUsableAccessToken(now time.Time) bool {
	if c == nil || c.AccessToken == nil || *c.AccessToken == "" {
		return false
	}
	if c.AccessExpiry == nil {
		return true
	}
	return c.AccessExpiry.After(now)
}

// HasRefreshToken reports whether a refresh token is stored.
func (c *Credential) HasRefreshToken() bool {
	return c != nil && c.RefreshToken != nil && *c.RefreshToken != ""
}

// Summary returns a safe view of the credential without token material.
func (c *Credential) Summary() *CredentialSummary {
	return &CredentialSummary{
		Provider:        c.Provider,
		HasRefreshToken: c.HasRefreshToken(),
		HasAccessToken:  c.AccessToken != nil && *c.AccessToken != "",
		AccessExpiry:    c.AccessExpiry,
		UpdatedAt:       c.UpdatedAt,
	}
}

// CredentialSummary is the status-check view of a credential. Readers must
// not mutate credential state, so no token material is exposed.
type CredentialSummary struct {
	Provider        Provider   `json:"provider"`
	HasRefreshToken bool       `json:"has_refresh_token"`
	HasAccessToken  bool       `json:"has_access_token"`
	AccessExpiry    *time.Time `json:"access_expiry,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// String returns s as a nullable credential field.
func String(s string) *string {
	return &s
}
