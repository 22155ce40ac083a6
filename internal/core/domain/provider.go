package domain

// Provider identifies one of the two backend ecosystems the client can talk to.
type Provider string

const (
	// ProviderPiped is the primary provider, tried first for every call.
	ProviderPiped Provider = "piped"
	// ProviderInvidious is the fallback provider, only used once Piped is exhausted.
	ProviderInvidious Provider = "invidious"
)

// Providers lists every provider in failover order.
var Providers = []Provider{ProviderPiped, ProviderInvidious}

func (p Provider) String() string {
	return string(p)
}
