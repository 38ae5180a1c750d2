package utils

import "time"

// HealthStatus is the payload served by the health endpoint. Load balancers
// and the stall dashboard poll it.
type HealthStatus struct {
	Service   string    `json:"service"`
	Healthy   bool      `json:"healthy"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

func Healthy(service string) HealthStatus {
	return HealthStatus{
		Service:   service,
		Healthy:   true,
		CheckedAt: time.Now(),
	}
}

func Unhealthy(service, message string) HealthStatus {
	return HealthStatus{
		Service:   service,
		Healthy:   false,
		Message:   message,
		CheckedAt: time.Now(),
	}
}
