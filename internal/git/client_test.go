package git_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/waabox/devsync/internal/domain"
	"github.com/waabox/devsync/internal/git"
)

// fakeRunner scripts responses per command line and records every call.
type fakeRunner struct {
	// responses maps a space-joined command prefix to its result.
	responses map[string]fakeResult
	calls     []string
}

type fakeResult struct {
	code   int
	stdout string
	stderr string
}

func (f *fakeRunner) Run(dir string, name string, args ...string) (int, string, string) {
	line := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, line)
	for prefix, res := range f.responses {
		if strings.HasPrefix(line, prefix) {
			return res.code, res.stdout, res.stderr
		}
	}
	return 0, "", ""
}

func (f *fakeRunner) called(prefix string) bool {
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func newClient(runner *fakeRunner, opts ...git.Option) *git.Client {
	if runner.responses == nil {
		runner.responses = map[string]fakeResult{}
	}
	opts = append([]git.Option{git.WithRunner(runner)}, opts...)
	return git.NewClient("/repo", opts...)
}

func TestValidateRepository_RequiresRepoAndRemote(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResult{
		"git rev-parse --git-dir": {code: 128},
	}}
	if err := newClient(runner).ValidateRepository(); !errors.Is(err, domain.ErrNotRepository) {
		t.Errorf("expected ErrNotRepository outside a repository, got %v", err)
	}

	runner = &fakeRunner{responses: map[string]fakeResult{
		"git config --get remote.origin.url": {code: 1},
	}}
	if err := newClient(runner).ValidateRepository(); !errors.Is(err, domain.ErrNoRemote) {
		t.Errorf("expected ErrNoRemote without an origin remote, got %v", err)
	}

	runner = &fakeRunner{}
	if err := newClient(runner).ValidateRepository(); err != nil {
		t.Errorf("expected nil for repository with remote, got %v", err)
	}
}

func TestResolveIdentity_NormalizesConfiguredName(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResult{
		"git config user.name": {stdout: "Ada Lovelace\n"},
	}}
	c := newClient(runner)
	if got := c.ResolveIdentity(); got != "ada-lovelace" {
		t.Errorf("expected 'ada-lovelace', got %q", got)
	}

	// Cached: a second call must not run git again.
	before := len(runner.calls)
	c.ResolveIdentity()
	if len(runner.calls) != before {
		t.Error("expected cached identity on second call")
	}
}

func TestResolveIdentity_FallsBackToOSAccount(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResult{
		"git config user.name": {code: 1},
	}}
	got := newClient(runner).ResolveIdentity()
	if got == "" {
		t.Error("identity resolution must never return empty")
	}
	if strings.Contains(got, " ") || got != strings.ToLower(got) {
		t.Errorf("expected normalized identity, got %q", got)
	}
}

func TestConfigureUser_SetsDefaultsWhenUnset(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResult{
		"git config user.name": {code: 1},
	}}
	newClient(runner).ConfigureUser()

	if !runner.called("git config user.email") {
		t.Errorf("expected user.email to be configured, calls: %v", runner.calls)
	}
}

func TestConfigureUser_PrefersConfiguredIdentity(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResult{
		"git config user.name": {code: 1},
	}}
	newClient(runner, git.WithIdentity("Ada Lovelace", "ada@example.com")).ConfigureUser()

	if !runner.called("git config user.name Ada Lovelace") {
		t.Errorf("expected configured user.name, calls: %v", runner.calls)
	}
	if !runner.called("git config user.email ada@example.com") {
		t.Errorf("expected configured user.email, calls: %v", runner.calls)
	}
}

func TestConfigureUser_NoOpWhenAlreadySet(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResult{
		"git config user.name": {stdout: "waabox\n"},
	}}
	newClient(runner).ConfigureUser()

	if runner.called("git config user.email") {
		t.Errorf("user.email must not be touched, calls: %v", runner.calls)
	}
}

func TestEnsureBranch_ExistingRemoteBranchIsFetched(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResult{
		"git rev-parse --abbrev-ref HEAD":          {stdout: "develop-waabox\n"},
		"git ls-remote --heads origin develop-waabox": {stdout: "abc\trefs/heads/develop-waabox\n"},
	}}
	ok := newClient(runner).EnsureBranch("develop-waabox")
	if !ok {
		t.Error("expected EnsureBranch to succeed")
	}
	if !runner.called("git fetch origin develop-waabox") {
		t.Errorf("expected fetch of the remote branch, calls: %v", runner.calls)
	}
	if !runner.called("git checkout develop-waabox") {
		t.Errorf("expected checkout of the branch, calls: %v", runner.calls)
	}
}

func TestEnsureBranch_NewBranchCreatedFromHead(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResult{
		"git rev-parse --abbrev-ref HEAD":       {stdout: "develop-waabox\n"},
		"git ls-remote --heads origin develop-waabox": {stdout: ""},
	}}
	ok := newClient(runner).EnsureBranch("develop-waabox")
	if !ok {
		t.Error("expected EnsureBranch to succeed")
	}
	if !runner.called("git checkout -b develop-waabox") {
		t.Errorf("expected new branch creation, calls: %v", runner.calls)
	}
}

func TestEnsureBranch_PullFailureDoesNotAbort(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResult{
		"git pull":                        {code: 1, stderr: "network down"},
		"git rev-parse --abbrev-ref HEAD": {stdout: "feature\n"},
	}}
	// Branch creation still happens even though every pull failed; the
	// result is false only because the fake never switches branches.
	newClient(runner).EnsureBranch("feature-x")
	if !runner.called("git checkout -b feature-x") {
		t.Errorf("expected branch creation despite pull failures, calls: %v", runner.calls)
	}
}

func TestCommitAndPush_CleanTreeStillPushes(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResult{
		"git status --porcelain": {stdout: ""},
	}}
	ok := newClient(runner).CommitAndPush("chore: bump version to 1.0.1", "develop-waabox")
	if !ok {
		t.Error("a clean tree must not fail the call")
	}
	if runner.called("git commit") {
		t.Errorf("commit must be skipped with nothing to commit, calls: %v", runner.calls)
	}
	if !runner.called("git push -u origin develop-waabox") {
		t.Errorf("push must still be attempted, calls: %v", runner.calls)
	}
}

func TestCommitAndPush_CommitsWhenDirty(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResult{
		"git status --porcelain": {stdout: " M Version.txt\n"},
	}}
	ok := newClient(runner).CommitAndPush("chore: bump version to 1.0.1", "develop-waabox")
	if !ok {
		t.Error("expected success")
	}
	if !runner.called("git commit -m chore: bump version to 1.0.1") {
		t.Errorf("expected commit, calls: %v", runner.calls)
	}
}

func TestCommitAndPush_PushFailureIsFatal(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResult{
		"git status --porcelain": {stdout: " M Version.txt\n"},
		"git push":               {code: 1, stderr: "permission denied"},
	}}
	if newClient(runner).CommitAndPush("msg", "develop-waabox") {
		t.Error("a failed push must fail the call")
	}
}

func TestMergeToTrunk_MergeFailureIsFatal(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResult{
		"git merge": {code: 1, stderr: "CONFLICT"},
	}}
	if newClient(runner).MergeToTrunk("develop-waabox") {
		t.Error("a failed merge must fail the call")
	}
	if runner.called("git push origin main") {
		t.Errorf("trunk must not be pushed after a failed merge, calls: %v", runner.calls)
	}
}

func TestMergeToTrunk_SuccessPushesTrunk(t *testing.T) {
	runner := &fakeRunner{}
	ok := newClient(runner).MergeToTrunk("develop-waabox")
	if !ok {
		t.Error("expected success")
	}
	if !runner.called("git merge develop-waabox --no-ff -m Merge develop-waabox into main") {
		t.Errorf("expected no-ff merge with generated message, calls: %v", runner.calls)
	}
	if !runner.called("git push origin main") {
		t.Errorf("expected trunk push, calls: %v", runner.calls)
	}
}

func TestMergeToTrunk_RespectsConfiguredTrunk(t *testing.T) {
	runner := &fakeRunner{}
	ok := newClient(runner, git.WithTrunk("master")).MergeToTrunk("feature")
	if !ok {
		t.Error("expected success")
	}
	if !runner.called("git checkout master") {
		t.Errorf("expected checkout of configured trunk, calls: %v", runner.calls)
	}
}

func TestCreateAndPushTag_CreatesAnnotatedTagThenPushes(t *testing.T) {
	runner := &fakeRunner{}
	newClient(runner).CreateAndPushTag("v1.0.1", "Release 1.0.1")
	if !runner.called("git tag -a v1.0.1 -m Release 1.0.1") {
		t.Errorf("expected annotated tag, calls: %v", runner.calls)
	}
	if !runner.called("git push origin v1.0.1") {
		t.Errorf("expected tag push, calls: %v", runner.calls)
	}
}

func TestShortCommitHash_Abbreviates(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResult{
		"git rev-parse HEAD": {stdout: "0123456789abcdef0123456789abcdef01234567\n"},
	}}
	if got := newClient(runner).ShortCommitHash(); got != "01234567" {
		t.Errorf("expected '01234567', got %q", got)
	}
}

func TestStatus_ParsesPorcelainOutput(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResult{
		"git status --porcelain":          {stdout: " M internal/store/store.go\n?? notes.txt\n"},
		"git rev-parse --abbrev-ref HEAD": {stdout: "develop-waabox\n"},
	}}
	status := newClient(runner).Status()
	if status.Clean {
		t.Error("expected dirty status")
	}
	if status.Branch != "develop-waabox" {
		t.Errorf("expected branch 'develop-waabox', got %q", status.Branch)
	}
	if len(status.Modified) != 1 || status.Modified[0] != "internal/store/store.go" {
		t.Errorf("unexpected modified list: %v", status.Modified)
	}
	if len(status.Untracked) != 1 || status.Untracked[0] != "notes.txt" {
		t.Errorf("unexpected untracked list: %v", status.Untracked)
	}
}

func TestStatus_LeadingStateSpaceDoesNotClipFilenames(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResult{
		"git status --porcelain": {stdout: " M Version.txt\nMM cmd/devsync/main.go\n D old.txt\n"},
	}}
	status := newClient(runner).Status()
	want := []string{"Version.txt", "cmd/devsync/main.go", "old.txt"}
	if len(status.Modified) != len(want) {
		t.Fatalf("expected %d modified files, got %v", len(want), status.Modified)
	}
	for i, name := range want {
		if status.Modified[i] != name {
			t.Errorf("modified[%d]: expected %q, got %q", i, name, status.Modified[i])
		}
	}
}

func TestStatus_CleanTree(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResult{
		"git status --porcelain": {stdout: "\n"},
	}}
	status := newClient(runner).Status()
	if !status.Clean {
		t.Error("expected clean status")
	}
}
