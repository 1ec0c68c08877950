package health

// HealthResponse es la respuesta de /readyz.
type HealthResponse struct {
	Status     string                  `json:"status"` // ready | degraded
	Version    string                  `json:"version,omitempty"`
	Storage    string                  `json:"storage"`
	Components map[string]HealthStatus `json:"components"`
}

// HealthStatus es el estado de un componente.
type HealthStatus struct {
	Status    string `json:"status"` // ok | error | disabled
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latencyMs,omitempty"`
}
