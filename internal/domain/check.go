package domain

import "time"

// ConnectionCheck describes a successful or failed connectivity check.
type ConnectionCheck struct {
	Backend  BackendKind   `json:"backend"`
	Target   Target        `json:"target"`
	Via      string        `json:"via"` // "driver" or "cli"
	Duration time.Duration `json:"duration"`
}
