package domain

import "time"

// RunStatus represents the execution state of a CI workflow run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunSuccess   RunStatus = "success"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
	// RunUnknown means no run could be observed for the branch.
	RunUnknown RunStatus = "unknown"
)

// Release describes a published release on the remote hosting service.
type Release struct {
	TagName    string
	Name       string
	Body       string
	Draft      bool
	Prerelease bool
	CreatedAt  time.Time
	HTMLURL    string
}

// ReleaseRequest is the input for creating a remote release.
type ReleaseRequest struct {
	TagName    string
	Name       string
	Body       string
	Draft      bool
	Prerelease bool
}
