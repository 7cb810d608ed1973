package domain

import "time"

// TokenPayload is a provider token response from a refresh or an
// authorization-code exchange. Providers disagree on how expiry is
// reported: Strava returns an absolute epoch (expires_at), TickTick a
// relative duration (expires_in).
type TokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`

	// ExpiresAt is an absolute expiry in epoch seconds, if reported.
	ExpiresAt int64 `json:"expires_at,omitempty"`

	// ExpiresIn is a relative expiry in seconds from now, if reported.
	ExpiresIn int64 `json:"expires_in,omitempty"`
}

// Expiry resolves the access token expiry to an absolute timestamp, or nil
// when the provider reported neither form.
func (p *TokenPayload) Expiry(now time.Time) *time.Time {
	if p.ExpiresAt > 0 {
		t := time.Unix(p.ExpiresAt, 0).UTC()
		return &t
	}
	if p.ExpiresIn > 0 {
		t := now.Add(time.Duration(p.ExpiresIn) * time.Second).UTC()
		return &t
	}
	return nil
}
