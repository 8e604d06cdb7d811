package models

// Health is the liveness and readiness body.
type Health struct {
	Status  HealthStatus      `json:"status"`
	Time    Timestamp         `json:"time"`
	Details map[string]string `json:"details,omitempty"`
}

// SystemStatus reports the service and its upstream providers.
type SystemStatus struct {
	Status     HealthStatus      `json:"status"`
	Time       Timestamp         `json:"time"`
	Subsystems []SubsystemStatus `json:"subsystems"`
	Providers  []ProviderStatus  `json:"providers"`
	Caches     []CacheStatus     `json:"caches,omitempty"`
}

// CacheStatus is the occupancy of an in-process cache.
type CacheStatus struct {
	Name         string `json:"name"`
	Provider     string `json:"provider,omitempty"`
	Entries      int    `json:"entries"`
	FreshEntries int    `json:"freshEntries"`
}

// SubsystemStatus is the status of an internal dependency.
type SubsystemStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail string       `json:"detail,omitempty"`
}

// ProviderStatus is the status of an upstream provider.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	TotalRequests int64        `json:"totalRequests"`
	TotalFailures int64        `json:"totalFailures"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	LastError     string       `json:"lastError,omitempty"`
}

// FeatureFlag is a runtime switch and its current value.
type FeatureFlag struct {
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// FeatureFlagList is the body of GET /v1/ops/flags.
type FeatureFlagList struct {
	Items []FeatureFlag `json:"items"`
}
