package application

import "time"

// HealthReport is the liveness payload served on /health.
type HealthReport struct {
	Status        int
	StatusMessage string
	Timestamp     time.Time
	IPAddress     string
	Echo          string
	PathEcho      string
}

// NewHealthReport builds a healthy report stamped at now.
func NewHealthReport(now time.Time, ip, echo, pathEcho string) HealthReport {
	return HealthReport{
		Status:        200,
		StatusMessage: "OK",
		Timestamp:     now.UTC(),
		IPAddress:     ip,
		Echo:          echo,
		PathEcho:      pathEcho,
	}
}
