package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/waabox/devsync/internal/auth"
	"github.com/waabox/devsync/internal/changelog"
	"github.com/waabox/devsync/internal/config"
	"github.com/waabox/devsync/internal/domain"
	"github.com/waabox/devsync/internal/git"
	"github.com/waabox/devsync/internal/github"
	"github.com/waabox/devsync/internal/pipeline"
	"github.com/waabox/devsync/internal/project"
	"github.com/waabox/devsync/internal/store"
	"github.com/waabox/devsync/internal/tui"
	"github.com/waabox/devsync/internal/version"
)

// buildVersion is set at build time via -ldflags "-X main.buildVersion=x.y.z".
var buildVersion = "dev"

func main() {
	bump := flag.String("bump", "patch", "version bump kind: major, minor or patch")
	setVersion := flag.String("set-version", "", "use this exact version instead of bumping")
	noMerge := flag.Bool("no-merge", false, "do not merge the development branch into the trunk")
	skipChangelog := flag.Bool("skip-changelog", false, "do not prompt for a changelog entry")
	noUI := flag.Bool("no-ui", false, "plain text output instead of the interactive UI")
	login := flag.Bool("login", false, "authenticate with GitHub and store the token")
	logout := flag.Bool("logout", false, "remove the stored GitHub token")
	rollback := flag.String("rollback", "", "rewrite the version file to this earlier version and exit")
	history := flag.Bool("history", false, "print the deployment history and exit")
	versionFlag := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("devsync", buildVersion)
		printProjectVersion()
		os.Exit(0)
	}

	configPath := config.DefaultConfigPath()
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	tokens := auth.NewTokenManager(cfg.GitHub.Token)

	if *login {
		if err := runLogin(context.Background(), cfg, configPath, tokens); err != nil {
			fmt.Fprintf(os.Stderr, "GitHub authentication failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	if *logout {
		if err := tokens.Delete(); err != nil {
			fmt.Fprintf(os.Stderr, "error removing token: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "Token removed.")
		os.Exit(0)
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error getting current directory: %v\n", err)
		os.Exit(1)
	}

	if *rollback != "" {
		v, err := store.New(cwd, textReporter{}).Rollback(*rollback)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rollback failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Version rolled back to %s\n", v)
		os.Exit(0)
	}
	if *history {
		printHistory(store.New(cwd, textReporter{}))
		os.Exit(0)
	}

	// Repository detection may fail in a fresh directory; the pipeline's own
	// validation step reports that with guidance, so keep going.
	repo, _ := git.DetectRepository(cwd)

	token, err := tokens.Token()
	if err != nil {
		token = ""
	}

	interactive := !*noUI && isTerminal(os.Stdin) && isTerminal(os.Stdout)

	opts := pipeline.Options{
		BumpKind:        version.BumpKind(*bump),
		ExplicitVersion: *setVersion,
		AutoMerge:       cfg.AutoMerge && !*noMerge,
		SkipChangelog:   *skipChangelog || !isTerminal(os.Stdin),
		CreateRelease:   cfg.CreateRelease,
		Draft:           cfg.DraftRelease,
	}

	buildDeps := func(rep domain.Reporter) pipeline.Deps {
		return pipeline.Deps{
			Validator: project.New(cwd),
			Source: git.NewClient(cwd,
				git.WithTrunk(cfg.TrunkOrDefault()),
				git.WithIdentity(cfg.Git.User, cfg.Git.Email),
				git.WithReporter(rep)),
			Provider:  github.NewClient(token, "", rep),
			Store:     store.New(cwd, rep),
			Changelog: changelog.New(cwd),
			Repo:      repo,
			Reporter:  rep,
		}
	}

	var res pipeline.Result
	if interactive {
		res, err = tui.Run(buildDeps, opts, cfg.ChangelogTimeoutOrDefault())
	} else {
		o := pipeline.New(buildDeps(textReporter{}),
			pipeline.WithChangelogPrompter(stdinPrompter(os.Stdin), cfg.ChangelogTimeoutOrDefault()),
		)
		res, err = o.Run(context.Background(), opts)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, describeFailure(err, cfg.Debug))
		os.Exit(1)
	}
	fmt.Printf("Deployed %s -> %s\n", res.PreviousVersion, res.NewVersion)
}

// describeFailure renders a failed run. In debug mode every wrapped cause
// is printed on its own line so the underlying git or API detail stays
// visible instead of just the failing step.
func describeFailure(err error, debug bool) string {
	out := "devsync: " + err.Error()
	if !debug {
		return out
	}
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		out += "\n  caused by: " + cause.Error()
	}
	return out
}

// printProjectVersion prints the working directory's version when a version
// file already exists. It never creates one.
func printProjectVersion() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	for _, name := range []string{"Version.txt", "version.txt"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		s := store.New(cwd, domain.NopReporter{})
		if v, err := s.ReadCurrent(); err == nil {
			fmt.Println("project version:", v)
		}
		return
	}
}

// printHistory lists past deployment attempts, most recent first.
func printHistory(s *store.Store) {
	records := s.History()
	if len(records) == 0 {
		fmt.Println("No deployments recorded.")
		return
	}
	for _, r := range records {
		outcome := "ok"
		if !r.Success {
			outcome = "FAILED"
		}
		fmt.Printf("%s  %-10s %-7s %s@%s  %s\n",
			r.Timestamp.Format("2006-01-02 15:04"), r.Version, outcome, r.User, r.CommitHash, r.Notes)
	}
}

// runLogin runs the GitHub Device Authorization Flow interactively and
// persists the token, preferring the system keyring over the config file.
// All prompts are written to stderr so stdout remains clean for piping.
func runLogin(ctx context.Context, cfg config.Config, configPath string, tokens *auth.TokenManager) error {
	var flow *auth.GitHubDeviceFlow
	if cfg.GitHub.ClientID != "" {
		flow = auth.NewGitHubDeviceFlow(cfg.GitHub.ClientID, "")
	} else {
		flow = auth.NewDefaultGitHubDeviceFlow()
	}
	code, err := flow.RequestCode(ctx)
	if err != nil {
		return fmt.Errorf("requesting device code: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Starting OAuth authentication...\n")
	fmt.Fprintf(os.Stderr, "Visit:      %s\n", code.VerificationURI)
	fmt.Fprintf(os.Stderr, "Enter code: %s\n", code.UserCode)
	fmt.Fprintf(os.Stderr, "Waiting for authorization...\n")

	codeCtx, cancel := context.WithTimeout(ctx, time.Duration(code.ExpiresIn)*time.Second)
	defer cancel()
	token, err := flow.PollToken(codeCtx, code.DeviceCode, code.Interval)
	if err != nil {
		return err
	}

	if err := tokens.Save(token); err == nil {
		fmt.Fprintln(os.Stderr, "Authenticated. Token saved to the system keyring.")
		return nil
	}
	cfg.GitHub.Token = token
	if err := config.Save(configPath, cfg); err != nil {
		return fmt.Errorf("could not persist token: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Authenticated. Token saved to %s\n", configPath)
	return nil
}

// stdinPrompter collects a changelog entry from standard input: one line at
// a time, finished by an empty line.
func stdinPrompter(in *os.File) pipeline.ChangelogPrompter {
	return func(ctx context.Context, version string) (string, bool) {
		fmt.Fprintf(os.Stderr, "Changelog entry for %s (finish with an empty line, leave empty to skip):\n", version)
		scanner := bufio.NewScanner(in)
		var lines []string
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				break
			}
			lines = append(lines, line)
			if ctx.Err() != nil {
				break
			}
		}
		text := strings.TrimSpace(strings.Join(lines, "\n"))
		return text, text == ""
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// textReporter prints pipeline output as plain lines on stderr.
type textReporter struct{}

func (textReporter) Step(msg string)    { fmt.Fprintf(os.Stderr, "\n== %s ==\n", msg) }
func (textReporter) Info(msg string)    { fmt.Fprintf(os.Stderr, "   %s\n", msg) }
func (textReporter) Success(msg string) { fmt.Fprintf(os.Stderr, " ✓ %s\n", msg) }
func (textReporter) Warn(msg string)    { fmt.Fprintf(os.Stderr, " ! %s\n", msg) }
func (textReporter) Error(msg string)   { fmt.Fprintf(os.Stderr, " ✗ %s\n", msg) }
