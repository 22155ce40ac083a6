package domain

import "time"

// InstanceStatus is a point-in-time view of one backend instance.
// CooldownUntil is the zero time when no cooldown was ever set.
type InstanceStatus struct {
	CooldownUntil time.Time `json:"cooldown_until,omitempty"`
	URL           string    `json:"url"`
	Failures      int       `json:"failures"`
	Available     bool      `json:"available"`
	Current       bool      `json:"current"`
}

// InCooldown reports whether the instance is excluded from selection at now.
func (s InstanceStatus) InCooldown(now time.Time) bool {
	return !s.CooldownUntil.IsZero() && s.CooldownUntil.After(now)
}

// ProviderStatus summarises a provider's instance list.
type ProviderStatus struct {
	Provider  Provider         `json:"provider"`
	Instances []InstanceStatus `json:"instances"`
	Available int              `json:"available"`
	Total     int              `json:"total"`
}
