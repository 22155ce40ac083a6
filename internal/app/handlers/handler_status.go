package handlers

import (
	"net/http"
	"time"

	"github.com/freytube/freytube/internal/core/domain"
	"github.com/freytube/freytube/internal/core/ports"
	"github.com/freytube/freytube/internal/version"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

func (a *Application) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Version: version.Version,
		Uptime:  time.Since(a.StartTime).Round(time.Second).String(),
	})
}

// InstancesResponse is the registry and attempt view served on /internal/instances
type InstancesResponse struct {
	Providers          map[domain.Provider]domain.ProviderStatus `json:"providers"`
	Stats              map[string]ports.InstanceStats            `json:"stats"`
	Totals             ports.AttemptTotals                       `json:"totals"`
	DiscoveryRefreshed bool                                      `json:"discovery_refreshed"`
}

func (a *Application) instancesHandler(w http.ResponseWriter, _ *http.Request) {
	resp := InstancesResponse{
		Providers: make(map[domain.Provider]domain.ProviderStatus, len(domain.Providers)),
		Stats:     map[string]ports.InstanceStats{},
	}
	for _, provider := range domain.Providers {
		resp.Providers[provider] = a.registry.Snapshot(provider)
	}
	if a.stats != nil {
		resp.Stats = a.stats.InstanceStats()
		resp.Totals = a.stats.Totals()
	}
	if a.discovery != nil {
		resp.DiscoveryRefreshed = a.discovery.Refreshed()
	}
	writeJSON(w, http.StatusOK, resp)
}
