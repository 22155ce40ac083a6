package constants

import "time"

// Failover budgets and instance health policy
const (
	// Attempts against the primary provider before falling through
	DefaultPrimaryAttempts = 4

	// Attempts against the fallback provider before giving up
	DefaultFallbackAttempts = 3

	// Consecutive failures that put an instance into cooldown
	DefaultFailureThreshold = 3

	DefaultCooldown = 5 * time.Minute
)

// Reset scopes applied when every instance of a provider is cooling down
const (
	ResetScopeProvider = "provider"
	ResetScopeGlobal   = "global"
)

// Provider HTTP client defaults
const (
	DefaultUserAgent      = "FreyTube/1.0"
	DefaultConnectTimeout = 15 * time.Second
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 15 * time.Second

	// TransportRetryCount is the extra attempt made on refused/reset connections
	// before the failover logic ever sees the error
	TransportRetryCount = 1
)

// Discovery defaults
const (
	PipedDiscoveryURL     = "https://piped-instances.kavin.rocks/"
	InvidiousDiscoveryURL = "https://api.invidious.io/instances.json?sort_by=type,health"

	DefaultDiscoveryTimeout = 10 * time.Second
	MaxInvidiousInstances   = 15
	MaxDiscoveryBodyBytes   = 10 << 20
)

// DefaultPipedInstances is used until discovery replaces it
var DefaultPipedInstances = []string{
	"https://pipedapi.kavin.rocks",
	"https://pipedapi.adminforge.de",
	"https://pipedapi.r4fo.com",
	"https://api.piped.projectsegfau.lt",
	"https://pipedapi.leptons.xyz",
	"https://pipedapi.moomoo.me",
	"https://pipedapi.darkness.services",
	"https://pipedapi.drgns.space",
}

var DefaultInvidiousInstances = []string{
	"https://invidious.nerdvpn.de",
	"https://inv.nadeko.net",
	"https://yewtu.be",
	"https://invidious.materialio.us",
	"https://invidious.privacyredirect.com",
	"https://invidious.protokolla.fi",
}

// Catalog request defaults
const (
	DefaultRegion       = "US"
	DefaultSearchFilter = "all"
)

// Attempt outcomes recorded by the failover executor
const (
	OutcomeSuccess   = "success"
	OutcomeRetryable = "retryable"
	OutcomePermanent = "permanent"
	OutcomeCancelled = "cancelled"
)
