package domain

// ReleaseProvider is the port interface for the remote hosting service.
// The pipeline does not know about GitHub or any specific API; an
// implementation without a credential degrades every call to a no-op
// rather than an error.
type ReleaseProvider interface {
	// HasCredential reports whether a release credential is configured.
	// Without one, every other call is a logged no-op and the pipeline
	// runs in degraded mode.
	HasCredential() bool
	// CreateRelease publishes a release for an existing tag and returns
	// its URL. Returns ("", nil) in degraded (no credential) mode.
	CreateRelease(repo Repository, req ReleaseRequest) (string, error)
	// ListReleases returns all releases, most recent first.
	ListReleases(repo Repository) ([]Release, error)
	// UploadAsset attaches a file to the release tagged tag.
	UploadAsset(repo Repository, tag string, path string) error
	// LatestRunStatus reports the state of the newest CI run on branch.
	// Returns RunUnknown when no run is visible.
	LatestRunStatus(repo Repository, branch string) (RunStatus, error)
}
