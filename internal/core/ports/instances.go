package ports

import (
	"context"

	"github.com/freytube/freytube/internal/core/domain"
)

// InstanceRegistry tracks instance health and picks which instance to call next
type InstanceRegistry interface {
	CurrentBest(provider domain.Provider) string
	ReportFailure(provider domain.Provider, url string)
	ReportSuccess(provider domain.Provider, url string)
	RotateNext(provider domain.Provider) (string, bool)
	AllExhausted(provider domain.Provider) bool
	SetPreferred(url string)
	ReplaceList(provider domain.Provider, urls []string)
	Count(provider domain.Provider) int
	Snapshot(provider domain.Provider) domain.ProviderStatus
}

// InstanceDiscovery refreshes the registry lists from the live directories.
// Refresh never fails; errors are logged and the previous lists kept.
type InstanceDiscovery interface {
	Refresh(ctx context.Context)
	Refreshed() bool
}
