package domain

import "fmt"

// Provider identifies an external API source being synchronized.
type Provider string

const (
	ProviderStrava   Provider = "strava"
	ProviderTickTick Provider = "ticktick"
)

// AllProviders lists every provider in the order syncs run.
func AllProviders() []Provider {
	return []Provider{ProviderStrava, ProviderTickTick}
}

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderStrava, ProviderTickTick:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for a provider.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderStrava:
		return "Strava"
	case ProviderTickTick:
		return "TickTick"
	default:
		return string(p)
	}
}

// ParseProvider converts a string to a Provider.
func ParseProvider(s string) (Provider, error) {
	p := Provider(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown provider %q", ErrInvalidInput, s)
	}
	return p, nil
}
