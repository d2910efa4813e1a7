package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual service.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
	Error       string `json:"error,omitempty"`
}

// BFFMetrics is returned by GET /v1/metrics/bff.
type BFFMetrics struct {
	BackendRequests     int64   `json:"backendRequests"`
	BackendErrors       int64   `json:"backendErrors"`
	BackendErrorRate    float64 `json:"backendErrorRate"`
	CacheHitRate        float64 `json:"cacheHitRate"`
	SupersededRequests  int64   `json:"supersededRequests"`
	InstrumentMutations int64   `json:"instrumentMutations"`
	Period              string  `json:"period"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
