// Package pipeline sequences the release workflow: validate, branch, bump,
// commit, push, merge, tag, release. One run owns one repository working
// directory; callers must not start a second run against the same
// directory while one is in flight.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/waabox/devsync/internal/domain"
	"github.com/waabox/devsync/internal/version"
)

// VersionStore is the subset of the store the pipeline needs.
type VersionStore interface {
	ReadCurrent() (version.Version, error)
	WriteCurrent(version.Version) error
	SetExplicit(s string) (version.Version, error)
	AppendHistory(record domain.DeploymentRecord) error
}

// ChangelogStore appends release entries to the project changelog.
type ChangelogStore interface {
	AppendEntry(version, date, text string) error
}

// ProjectValidator checks project structure before any mutation happens.
type ProjectValidator interface {
	Validate() (ok bool, warnings []string)
}

// ChangelogPrompter asks the caller for a changelog entry for the new
// version. It is the single blocking hand-off between the pipeline worker
// and a human; ctx carries the bounded wait. Returning skip true (or an
// empty text) proceeds without a changelog entry.
type ChangelogPrompter func(ctx context.Context, version string) (text string, skip bool)

// Options control a single pipeline run.
type Options struct {
	// BumpKind is used when ExplicitVersion is empty. Unrecognized kinds
	// fall back to a patch bump.
	BumpKind version.BumpKind
	// ExplicitVersion, when set, is parsed and used verbatim instead of
	// bumping.
	ExplicitVersion string
	// AutoMerge merges the development branch into the trunk after CI.
	AutoMerge bool
	// SkipChangelog suppresses the changelog prompt entirely (zero wait).
	SkipChangelog bool
	// CreateRelease publishes a remote release after tagging.
	CreateRelease bool
	// ReleaseTitle overrides the auto-generated release title.
	ReleaseTitle string
	// Draft marks the remote release as a draft.
	Draft bool
}

// Result summarizes a finished (or aborted) run.
type Result struct {
	PreviousVersion version.Version
	NewVersion      version.Version
	Branch          string
	Tag             string
	ReleaseURL      string
	Record          domain.DeploymentRecord
}

// Deps are the collaborators a pipeline drives.
type Deps struct {
	Validator ProjectValidator
	Source    domain.SourceControl
	Provider  domain.ReleaseProvider
	Store     VersionStore
	Changelog ChangelogStore
	Repo      domain.Repository
	Reporter  domain.Reporter
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithChangelogPrompter installs the prompt hand-off and its wait ceiling.
func WithChangelogPrompter(p ChangelogPrompter, timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.prompter = p
		o.promptTimeout = timeout
	}
}

// WithProgress registers a callback invoked as each step starts.
func WithProgress(fn func(step Step, total int)) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// WithClock overrides the time source; used by tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithCIPolling overrides how long and how often WaitForCI polls.
func WithCIPolling(timeout, interval time.Duration) Option {
	return func(o *Orchestrator) {
		o.ciTimeout = timeout
		o.ciInterval = interval
	}
}

// Orchestrator runs the deployment pipeline. One instance executes one run
// at a time; the transient run state lives on the stack of Run and is gone
// when it returns.
type Orchestrator struct {
	deps          Deps
	prompter      ChangelogPrompter
	promptTimeout time.Duration
	progress      func(step Step, total int)
	now           func() time.Time
	ciTimeout     time.Duration
	ciInterval    time.Duration
}

// New creates an Orchestrator.
func New(deps Deps, opts ...Option) *Orchestrator {
	if deps.Reporter == nil {
		deps.Reporter = domain.NopReporter{}
	}
	o := &Orchestrator{
		deps:          deps,
		promptTimeout: 300 * time.Second,
		now:           time.Now,
		ciTimeout:     600 * time.Second,
		ciInterval:    10 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *Orchestrator) enter(step Step) {
	if o.progress != nil {
		o.progress(step, TotalSteps)
	}
	o.deps.Reporter.Step(step.String())
}

// Run executes the full pipeline. On failure it aborts the remaining
// sequence and returns a *StepError naming the failed step; already
// completed steps are never rolled back, and re-invocation from the start
// is safe because the early steps are idempotent. A deployment record is
// appended for failed runs too.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (Result, error) {
	rep := o.deps.Reporter
	var res Result
	var changelogEntry string

	fail := func(step Step, err error) (Result, error) {
		rep.Error(fmt.Sprintf("%s failed: %v", step, err))
		o.writeRecord(&res, false, fmt.Sprintf("failed at: %s", step))
		return res, &StepError{Step: step, Err: err}
	}

	o.enter(StepValidateProject)
	ok, warnings := o.deps.Validator.Validate()
	if !ok {
		for _, w := range warnings {
			rep.Error(w)
		}
		return fail(StepValidateProject, errors.New("missing required project files"))
	}
	for _, w := range warnings {
		rep.Warn(w)
	}
	rep.Success("Project structure validated")

	o.enter(StepValidateRepo)
	if err := o.deps.Source.ValidateRepository(); err != nil {
		if errors.Is(err, domain.ErrNoRemote) {
			rep.Info("Run: git remote add origin <your-repo-url>")
		} else {
			rep.Info("Run: git init && git remote add origin <your-repo-url>")
		}
		return fail(StepValidateRepo, err)
	}
	rep.Success("Repository validated")

	o.enter(StepConfigureIdentity)
	o.deps.Source.ConfigureUser()

	o.enter(StepReadVersion)
	current, err := o.deps.Store.ReadCurrent()
	if err != nil {
		return fail(StepReadVersion, err)
	}
	res.PreviousVersion = current
	rep.Info(fmt.Sprintf("Current version: %s", current))

	o.enter(StepCreateBranch)
	res.Branch = "develop-" + o.deps.Source.ResolveIdentity()
	if !o.deps.Source.EnsureBranch(res.Branch) {
		return fail(StepCreateBranch, fmt.Errorf("could not check out branch %s", res.Branch))
	}
	rep.Success(fmt.Sprintf("On branch: %s", res.Branch))

	o.enter(StepResolveNextVersion)
	if opts.ExplicitVersion != "" {
		res.NewVersion, err = o.deps.Store.SetExplicit(opts.ExplicitVersion)
		if err != nil {
			return fail(StepResolveNextVersion, err)
		}
		rep.Success(fmt.Sprintf("Version set to: %s", res.NewVersion))
	} else {
		res.NewVersion = current.Bump(opts.BumpKind)
		if err := o.deps.Store.WriteCurrent(res.NewVersion); err != nil {
			return fail(StepResolveNextVersion, err)
		}
		rep.Success(fmt.Sprintf("New version: %s", res.NewVersion))
	}

	o.enter(StepChangelog)
	changelogEntry = o.collectChangelog(ctx, opts, res.NewVersion)

	o.enter(StepCommitPush)
	message := fmt.Sprintf("chore: bump version to %s", res.NewVersion)
	if !o.deps.Source.CommitAndPush(message, res.Branch) {
		return fail(StepCommitPush, errors.New("failed to push changes"))
	}
	rep.Success("Changes pushed successfully")

	o.enter(StepTriggerCI)
	// Push alone triggers CI; there is nothing to call here.
	rep.Info(fmt.Sprintf("Workflow will be triggered automatically on push to %s", res.Branch))

	o.enter(StepWaitForCI)
	if err := o.waitForCI(res.Branch); err != nil {
		return fail(StepWaitForCI, err)
	}

	if opts.AutoMerge {
		o.enter(StepMergeToTrunk)
		if !o.deps.Source.MergeToTrunk(res.Branch) {
			return fail(StepMergeToTrunk, errors.New("failed to merge to trunk"))
		}
		rep.Success("Merged to trunk successfully")
	}

	o.enter(StepTagAndRelease)
	res.Tag = "v" + res.NewVersion.String()
	o.deps.Source.CreateAndPushTag(res.Tag, fmt.Sprintf("Release %s", res.NewVersion))
	rep.Success(fmt.Sprintf("Tag %s created", res.Tag))
	res.ReleaseURL = o.publishRelease(opts, res, changelogEntry)

	o.writeRecord(&res, true, changelogEntry)
	rep.Success(fmt.Sprintf("Deployment completed: %s -> %s", res.PreviousVersion, res.NewVersion))
	return res, nil
}

// collectChangelog runs the bounded prompt hand-off and writes the entry.
// Changelog trouble never fails the run.
func (o *Orchestrator) collectChangelog(ctx context.Context, opts Options, v version.Version) string {
	if opts.SkipChangelog || o.prompter == nil {
		o.deps.Reporter.Info("Skipping changelog entry")
		return ""
	}

	promptCtx, cancel := context.WithTimeout(ctx, o.promptTimeout)
	defer cancel()
	text, skip := o.prompter(promptCtx, v.String())
	if skip || text == "" {
		o.deps.Reporter.Info("No changelog entry provided")
		return ""
	}

	date := o.now().UTC().Format("2006-01-02")
	if err := o.deps.Changelog.AppendEntry(v.String(), date, text); err != nil {
		o.deps.Reporter.Warn(fmt.Sprintf("Failed to update changelog: %v", err))
		return text
	}
	o.deps.Reporter.Success("Changelog updated")
	return text
}

// waitForCI polls the newest workflow run on branch until it completes.
// Without a credential CI state cannot be observed, so the step degrades
// to a logged skip rather than a verified pass.
func (o *Orchestrator) waitForCI(branch string) error {
	rep := o.deps.Reporter
	if !o.deps.Provider.HasCredential() {
		rep.Warn("No GitHub token configured: skipping CI verification (degraded mode)")
		return nil
	}

	deadline := o.now().Add(o.ciTimeout)
	for {
		status, err := o.deps.Provider.LatestRunStatus(o.deps.Repo, branch)
		if err != nil {
			rep.Warn(fmt.Sprintf("Could not query CI status: %v", err))
			return nil
		}
		switch status {
		case domain.RunSuccess:
			rep.Success("CI/CD pipeline completed successfully")
			return nil
		case domain.RunFailed:
			return errors.New("CI/CD pipeline failed")
		case domain.RunCancelled:
			return errors.New("CI/CD pipeline was cancelled")
		case domain.RunUnknown:
			rep.Warn("No CI runs visible for branch: continuing without verification")
			return nil
		}
		if o.now().After(deadline) {
			return fmt.Errorf("timed out after %s waiting for CI", o.ciTimeout)
		}
		time.Sleep(o.ciInterval)
	}
}

// publishRelease creates the remote release after tagging. Its failure is
// reported but does not revert the tag or fail the run.
func (o *Orchestrator) publishRelease(opts Options, res Result, notes string) string {
	if !opts.CreateRelease {
		return ""
	}
	if !o.deps.Provider.HasCredential() {
		o.deps.Reporter.Warn("Skipping remote release (no token)")
		return ""
	}

	title := opts.ReleaseTitle
	if title == "" {
		title = fmt.Sprintf("Release %s", res.NewVersion)
	}
	body := notes
	if body == "" {
		body = fmt.Sprintf("Automated release for version %s", res.NewVersion)
	}
	url, err := o.deps.Provider.CreateRelease(o.deps.Repo, domain.ReleaseRequest{
		TagName:    res.Tag,
		Name:       title,
		Body:       body,
		Draft:      opts.Draft,
		Prerelease: res.NewVersion.IsPrerelease(),
	})
	if err != nil {
		o.deps.Reporter.Error(fmt.Sprintf("Failed to create release: %v", err))
		return ""
	}
	if url != "" {
		o.deps.Reporter.Success(fmt.Sprintf("Release created: %s", url))
	}
	return url
}

func (o *Orchestrator) writeRecord(res *Result, success bool, notes string) {
	v := res.NewVersion
	if (v == version.Version{}) {
		v = res.PreviousVersion
	}
	res.Record = domain.DeploymentRecord{
		Version:    v.String(),
		Timestamp:  o.now().UTC(),
		Branch:     res.Branch,
		CommitHash: o.deps.Source.ShortCommitHash(),
		User:       o.deps.Source.ResolveIdentity(),
		Success:    success,
		Notes:      notes,
	}
	if err := o.deps.Store.AppendHistory(res.Record); err != nil {
		o.deps.Reporter.Warn(fmt.Sprintf("Could not record deployment history: %v", err))
	}
}
