package git

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strings"

	"github.com/waabox/devsync/internal/domain"
)

// Runner executes a single VCS command in a directory and returns its exit
// code, stdout, and stderr. Callers interpret exit codes; a Runner never
// returns an error of its own.
type Runner interface {
	Run(dir string, name string, args ...string) (int, string, string)
}

// ExecRunner runs commands through os/exec. It is the production Runner.
type ExecRunner struct{}

// Run executes name with args in dir. A command that could not be started
// at all (e.g. git not installed) reports exit code -1 with the error text
// on stderr.
func (ExecRunner) Run(dir string, name string, args ...string) (int, string, string) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return 0, stdout.String(), stderr.String()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), stdout.String(), stderr.String()
	}
	return -1, stdout.String(), err.Error()
}

// Option customizes a Client.
type Option func(*Client)

// WithRunner replaces the command runner; used by tests.
func WithRunner(r Runner) Option {
	return func(c *Client) { c.runner = r }
}

// WithReporter sets the reporter receiving warnings and command feedback.
func WithReporter(rep domain.Reporter) Option {
	return func(c *Client) { c.reporter = rep }
}

// WithTrunk overrides the trunk (primary integration) branch name.
func WithTrunk(branch string) Option {
	return func(c *Client) { c.trunk = branch }
}

// WithIdentity sets the user name and email ConfigureUser applies when the
// repository has none. Empty values keep the derived defaults.
func WithIdentity(name, email string) Option {
	return func(c *Client) {
		c.identityName = name
		c.identityEmail = email
	}
}

// Client implements domain.SourceControl by shelling out to git, one
// command per call.
type Client struct {
	dir           string
	trunk         string
	runner        Runner
	reporter      domain.Reporter
	username      string
	identityName  string
	identityEmail string
}

var _ domain.SourceControl = (*Client)(nil)

// NewClient creates a git client for the repository at dir.
func NewClient(dir string, opts ...Option) *Client {
	c := &Client{
		dir:      dir,
		trunk:    "main",
		runner:   ExecRunner{},
		reporter: domain.NopReporter{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Client) git(args ...string) (int, string, string) {
	return c.runner.Run(c.dir, "git", args...)
}

// Trunk returns the configured trunk branch name.
func (c *Client) Trunk() string {
	return c.trunk
}

// ValidateRepository checks that dir is inside a git repository with an
// "origin" remote. A missing remote is surfaced as a warning too, rather
// than silently failing later at push time.
func (c *Client) ValidateRepository() error {
	if code, _, _ := c.git("rev-parse", "--git-dir"); code != 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotRepository, c.dir)
	}
	if code, _, _ := c.git("config", "--get", "remote.origin.url"); code != 0 {
		c.reporter.Warn("No remote 'origin' configured. Run: git remote add origin <url>")
		return domain.ErrNoRemote
	}
	return nil
}

// ResolveIdentity returns the local username: the configured git user.name
// when present, the OS account name otherwise, either way lower-cased with
// spaces replaced by hyphens. The result is cached for the client's
// lifetime and the call never fails.
func (c *Client) ResolveIdentity() string {
	if c.username != "" {
		return c.username
	}
	if code, stdout, _ := c.git("config", "user.name"); code == 0 && strings.TrimSpace(stdout) != "" {
		c.username = normalizeUsername(stdout)
		return c.username
	}
	c.username = normalizeUsername(osUsername())
	return c.username
}

func normalizeUsername(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

func osUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		// Strip a Windows DOMAIN\ prefix if present.
		name := u.Username
		if i := strings.LastIndexByte(name, '\\'); i >= 0 {
			name = name[i+1:]
		}
		return name
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return os.Getenv("USERNAME")
}

// ConfigureUser sets user.name and user.email when no identity is
// configured yet, preferring the identity given via WithIdentity and
// falling back to derived defaults.
func (c *Client) ConfigureUser() {
	if code, stdout, _ := c.git("config", "user.name"); code == 0 && strings.TrimSpace(stdout) != "" {
		return
	}
	name := c.identityName
	if name == "" {
		name = c.ResolveIdentity()
	}
	email := c.identityEmail
	if email == "" {
		email = fmt.Sprintf("%s@deploy-automation.local", name)
	}
	c.git("config", "user.name", name)
	c.git("config", "user.email", email)
	c.reporter.Info(fmt.Sprintf("Git user configured: %s <%s>", name, email))
}

// CurrentBranch returns the checked-out branch name.
func (c *Client) CurrentBranch() string {
	_, stdout, _ := c.git("rev-parse", "--abbrev-ref", "HEAD")
	return strings.TrimSpace(stdout)
}

// EnsureBranch checks out the named branch. When the branch exists on the
// remote it is fetched and checked out, falling back to creating a local
// tracking branch; otherwise a new branch is created from HEAD. Returning
// to the trunk and pulling first are best-effort optimizations whose
// failure never aborts branch creation.
func (c *Client) EnsureBranch(name string) bool {
	if current := c.CurrentBranch(); current != "" && !isTrunkName(current, c.trunk) {
		for _, trunk := range trunkCandidates(c.trunk) {
			if code, _, _ := c.git("checkout", trunk); code == 0 {
				break
			}
		}
	}
	for _, trunk := range trunkCandidates(c.trunk) {
		c.git("pull", "origin", trunk)
	}

	code, stdout, _ := c.git("ls-remote", "--heads", "origin", name)
	if code == 0 && strings.Contains(stdout, name) {
		c.git("fetch", "origin", name)
		if code, _, _ := c.git("checkout", name); code != 0 {
			c.git("checkout", "-b", name, "origin/"+name)
		}
	} else {
		c.git("checkout", "-b", name)
	}

	return c.CurrentBranch() == name
}

func isTrunkName(branch, trunk string) bool {
	return branch == trunk || branch == "main" || branch == "master"
}

func trunkCandidates(trunk string) []string {
	candidates := []string{trunk}
	for _, name := range []string{"main", "master"} {
		if name != trunk {
			candidates = append(candidates, name)
		}
	}
	return candidates
}

// CommitAndPush stages all changes, commits them, and pushes the branch
// with upstream tracking. When there is nothing to stage the commit is
// skipped but the push still runs, so re-running against an already
// committed state can (re)establish the upstream reference.
func (c *Client) CommitAndPush(message, branch string) bool {
	if code, _, stderr := c.git("add", "-A"); code != 0 {
		c.reporter.Error(fmt.Sprintf("Failed to stage files: %s", strings.TrimSpace(stderr)))
		return false
	}

	_, stdout, _ := c.git("status", "--porcelain")
	if strings.TrimSpace(stdout) == "" {
		c.reporter.Warn("No changes to commit")
	} else {
		if code, _, stderr := c.git("commit", "-m", message); code != 0 {
			c.reporter.Error(fmt.Sprintf("Commit failed: %s", strings.TrimSpace(stderr)))
			return false
		}
	}

	if code, _, stderr := c.git("push", "-u", "origin", branch); code != 0 {
		c.reporter.Error(fmt.Sprintf("Push failed: %s", strings.TrimSpace(stderr)))
		c.reporter.Info("Make sure you have push access to the repository")
		return false
	}
	c.reporter.Info(fmt.Sprintf("Pushed to origin/%s", branch))
	return true
}

// MergeToTrunk merges sourceBranch into the trunk with a no-fast-forward
// merge and pushes the trunk. A failed pull is logged and ignored; a failed
// merge is fatal and leaves the repository mid-merge for manual resolution.
func (c *Client) MergeToTrunk(sourceBranch string) bool {
	c.git("checkout", c.trunk)
	if code, _, _ := c.git("pull", "origin", c.trunk); code != 0 {
		c.reporter.Warn("Pull failed, continuing anyway...")
	}

	message := fmt.Sprintf("Merge %s into %s", sourceBranch, c.trunk)
	if code, _, stderr := c.git("merge", sourceBranch, "--no-ff", "-m", message); code != 0 {
		c.reporter.Error(fmt.Sprintf("Merge failed: %s", strings.TrimSpace(stderr)))
		return false
	}

	c.git("push", "origin", c.trunk)
	return true
}

// CreateAndPushTag creates an annotated tag and pushes it, best effort.
func (c *Client) CreateAndPushTag(name, message string) {
	c.git("tag", "-a", name, "-m", message)
	c.git("push", "origin", name)
}

// ShortCommitHash returns the first 8 characters of the HEAD commit hash.
func (c *Client) ShortCommitHash() string {
	_, stdout, _ := c.git("rev-parse", "HEAD")
	hash := strings.TrimSpace(stdout)
	if len(hash) > 8 {
		hash = hash[:8]
	}
	return hash
}

// Status returns a snapshot of the working directory: current branch, clean
// flag, and the modified and untracked file lists.
func (c *Client) Status() domain.RepoStatus {
	status := domain.RepoStatus{Branch: c.CurrentBranch()}

	_, stdout, _ := c.git("status", "--porcelain")
	// Porcelain lines start with a two-column state field in which a leading
	// space is significant, so only line boundaries may be trimmed.
	for _, line := range strings.Split(strings.TrimRight(stdout, "\n"), "\n") {
		if len(line) < 4 {
			continue
		}
		state := strings.TrimSpace(line[:2])
		filename := line[3:]
		if state == "??" {
			status.Untracked = append(status.Untracked, filename)
		} else {
			status.Modified = append(status.Modified, filename)
		}
	}
	status.Clean = len(status.Modified) == 0 && len(status.Untracked) == 0
	return status
}
