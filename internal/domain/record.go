package domain

import "time"

// DeploymentRecord is one append-only entry in the deployment history.
// Records are written for failed runs too, with Success false, so the
// history is a log of attempts rather than of releases.
type DeploymentRecord struct {
	Version    string    `json:"version"`
	Timestamp  time.Time `json:"timestamp"`
	Branch     string    `json:"branch"`
	CommitHash string    `json:"commit_hash"`
	User       string    `json:"user"`
	Success    bool      `json:"success"`
	Notes      string    `json:"notes,omitempty"`
}
