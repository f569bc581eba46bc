package domain

// RepoStatus is a snapshot of the working directory state.
type RepoStatus struct {
	Branch    string
	Clean     bool
	Modified  []string
	Untracked []string
}

// SourceControl is the port interface for version-control operations. Each
// method maps to discrete, independently-failing VCS commands; boolean
// results mean the operation as a whole succeeded, with detail reported
// through the client's Reporter.
type SourceControl interface {
	// ValidateRepository reports whether the working directory is usable:
	// ErrNotRepository when it is not a git repository, ErrNoRemote when no
	// "origin" remote is configured, nil otherwise.
	ValidateRepository() error
	// ResolveIdentity returns the local username, lower-cased with spaces
	// replaced by hyphens. It never fails: the OS account name is the
	// unconditional fallback.
	ResolveIdentity() string
	// ConfigureUser sets user.name and user.email to derived defaults when
	// no identity is configured yet.
	ConfigureUser()
	// CurrentBranch returns the checked-out branch name.
	CurrentBranch() string
	// EnsureBranch checks out the named branch, tracking the remote branch
	// when one exists, creating a new local branch otherwise.
	EnsureBranch(name string) bool
	// CommitAndPush stages everything, commits (skipped when there is
	// nothing to commit), and pushes with upstream tracking. A failed push
	// fails the call.
	CommitAndPush(message, branch string) bool
	// MergeToTrunk merges the source branch into the trunk branch with a
	// no-fast-forward merge and pushes the result. A failed merge leaves
	// the repository mid-merge for manual resolution.
	MergeToTrunk(sourceBranch string) bool
	// CreateAndPushTag creates an annotated tag and pushes it, best effort.
	CreateAndPushTag(name, message string)
	// ShortCommitHash returns the abbreviated HEAD commit hash.
	ShortCommitHash() string
	// Status returns the current working-directory status.
	Status() RepoStatus
}
