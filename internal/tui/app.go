// Package tui is the interactive front-end for a deployment run. The
// pipeline executes on a background worker; progress and log output cross
// into the UI as messages, and the changelog prompt is the single point
// where the worker blocks on the user.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/waabox/devsync/internal/domain"
	"github.com/waabox/devsync/internal/pipeline"
)

// StepStartedMsg is sent when the pipeline enters a step. It is exported so
// that tests can inject it directly into AppModel.Update.
type StepStartedMsg struct {
	Step pipeline.Step
}

// LogLevel classifies a log line for rendering.
type LogLevel int

const (
	LevelInfo LogLevel = iota
	LevelSuccess
	LevelWarn
	LevelError
)

// LogMsg carries one log line from the pipeline worker.
type LogMsg struct {
	Level LogLevel
	Text  string
}

// ChangelogAnswer is the user's reply to the changelog prompt.
type ChangelogAnswer struct {
	Text string
	Skip bool
}

// ChangelogPromptMsg asks the UI to collect a changelog entry for the new
// version. The answer must be sent on Reply exactly once.
type ChangelogPromptMsg struct {
	Version string
	Reply   chan<- ChangelogAnswer
}

// RunFinishedMsg is sent when the pipeline run returns.
type RunFinishedMsg struct {
	Result pipeline.Result
	Err    error
}

// viewState indicates what the UI is currently showing.
type viewState int

const (
	viewRun viewState = iota
	viewChangelog
	viewDone
)

// AppModel is the root Bubbletea model for devsync.
type AppModel struct {
	title  string
	events <-chan tea.Msg
	run    tea.Cmd

	view     viewState
	steps    StepListModel
	logs     []LogMsg
	finished bool
	result   pipeline.Result
	runErr   error
	width    int
	height   int

	// Changelog editor state. Lines are committed with enter; an enter on
	// an empty line submits the whole entry.
	promptVersion string
	reply         chan<- ChangelogAnswer
	inputLines    []string
	inputCurrent  string
}

// NewAppModel creates the root application model. run starts the pipeline
// worker and must eventually produce a RunFinishedMsg; events carries
// everything the worker emits along the way.
func NewAppModel(title string, events <-chan tea.Msg, run tea.Cmd) AppModel {
	return AppModel{
		title:  title,
		events: events,
		run:    run,
		steps:  NewStepListModel(),
	}
}

// Init starts the pipeline worker and the event pump.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.run, m.waitForEvent())
}

func (m AppModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// Update handles all incoming messages and key events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case StepStartedMsg:
		m.steps = m.steps.Start(msg.Step)
		return m, m.waitForEvent()

	case LogMsg:
		m.logs = append(m.logs, msg)
		return m, m.waitForEvent()

	case ChangelogPromptMsg:
		m.view = viewChangelog
		m.promptVersion = msg.Version
		m.reply = msg.Reply
		m.inputLines = nil
		m.inputCurrent = ""
		return m, m.waitForEvent()

	case RunFinishedMsg:
		m.steps = m.steps.Finish(msg.Err == nil)
		m.finished = true
		m.result = msg.Result
		m.runErr = msg.Err
		m.view = viewDone
		return m, nil

	case tea.KeyMsg:
		if m.view == viewChangelog {
			return m.updateChangelog(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if m.view == viewDone {
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m AppModel) updateChangelog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m = m.answer(ChangelogAnswer{Skip: true})
		return m, tea.Quit
	case "esc":
		return m.answer(ChangelogAnswer{Skip: true}), nil
	case "enter":
		if m.inputCurrent == "" {
			text := strings.TrimSpace(strings.Join(m.inputLines, "\n"))
			return m.answer(ChangelogAnswer{Text: text, Skip: text == ""}), nil
		}
		m.inputLines = append(m.inputLines, m.inputCurrent)
		m.inputCurrent = ""
	case "backspace":
		if m.inputCurrent != "" {
			runes := []rune(m.inputCurrent)
			m.inputCurrent = string(runes[:len(runes)-1])
		} else if n := len(m.inputLines); n > 0 {
			m.inputCurrent = m.inputLines[n-1]
			m.inputLines = m.inputLines[:n-1]
		}
	case "tab":
		m.inputCurrent += "  "
	default:
		if msg.Type == tea.KeyRunes {
			m.inputCurrent += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			m.inputCurrent += " "
		}
	}
	return m, nil
}

// answer sends the prompt reply back to the blocked worker and returns to
// the run view.
func (m AppModel) answer(a ChangelogAnswer) AppModel {
	if m.reply != nil {
		m.reply <- a
		m.reply = nil
	}
	m.view = viewRun
	m.inputLines = nil
	m.inputCurrent = ""
	return m
}

// Finished reports whether the pipeline run has returned.
func (m AppModel) Finished() bool {
	return m.finished
}

// Outcome returns the run result and error once Finished is true.
func (m AppModel) Outcome() (pipeline.Result, error) {
	return m.result, m.runErr
}

// View renders the full TUI.
func (m AppModel) View() string {
	header := fmt.Sprintf(" devsync | %s\n", m.title)
	separator := "────────────────────────────────────────────────────────────\n"

	if m.view == viewChangelog {
		return header + separator + m.renderChangelogView() + separator +
			" enter on empty line: save   esc: skip\n"
	}

	body := m.steps.View() + separator + m.renderLogTail()
	switch m.view {
	case viewDone:
		return header + separator + body + separator + m.renderSummary() +
			" enter/q: quit\n"
	default:
		return header + separator + body + separator +
			" q: quit (the run keeps the repository as-is)\n"
	}
}

func (m AppModel) renderChangelogView() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(" Changelog entry for version %s\n", m.promptVersion))
	sb.WriteString(" Type your notes; finish with an empty line.\n\n")
	for _, line := range m.inputLines {
		sb.WriteString(" " + line + "\n")
	}
	sb.WriteString(" " + m.inputCurrent + "▌\n\n")
	return sb.String()
}

func (m AppModel) renderSummary() string {
	if m.runErr != nil {
		return fmt.Sprintf(" Deployment failed: %v\n", m.runErr)
	}
	line := fmt.Sprintf(" Deployed %s -> %s", m.result.PreviousVersion, m.result.NewVersion)
	if m.result.ReleaseURL != "" {
		line += "\n Release: " + m.result.ReleaseURL
	}
	return line + "\n"
}

// renderLogTail renders the newest log lines that fit the terminal.
func (m AppModel) renderLogTail() string {
	visible := m.height - pipeline.TotalSteps - 8
	if visible < 5 {
		visible = 5
	}
	start := 0
	if len(m.logs) > visible {
		start = len(m.logs) - visible
	}
	var sb strings.Builder
	for _, l := range m.logs[start:] {
		sb.WriteString(fmt.Sprintf(" %s %s\n", levelIcon(l.Level), l.Text))
	}
	return sb.String()
}

func levelIcon(l LogLevel) string {
	switch l {
	case LevelSuccess:
		return "✓"
	case LevelWarn:
		return "!"
	case LevelError:
		return "✗"
	default:
		return " "
	}
}

// eventReporter forwards pipeline log output onto the UI event channel.
// Step headers are omitted: the progress callback already drives the
// checklist.
type eventReporter struct {
	events chan<- tea.Msg
}

func (r eventReporter) Step(string) {}

func (r eventReporter) Info(msg string) { r.events <- LogMsg{Level: LevelInfo, Text: msg} }

func (r eventReporter) Success(msg string) { r.events <- LogMsg{Level: LevelSuccess, Text: msg} }

func (r eventReporter) Warn(msg string) { r.events <- LogMsg{Level: LevelWarn, Text: msg} }

func (r eventReporter) Error(msg string) { r.events <- LogMsg{Level: LevelError, Text: msg} }

// promptOn builds the worker-side changelog prompter. It parks the worker
// on the reply channel until the UI answers or the bounded wait expires.
func promptOn(events chan<- tea.Msg) pipeline.ChangelogPrompter {
	return func(ctx context.Context, version string) (string, bool) {
		reply := make(chan ChangelogAnswer, 1)
		select {
		case events <- ChangelogPromptMsg{Version: version, Reply: reply}:
		case <-ctx.Done():
			return "", true
		}
		select {
		case a := <-reply:
			return a.Text, a.Skip
		case <-ctx.Done():
			return "", true
		}
	}
}

// Run executes a full pipeline behind the interactive UI and returns its
// outcome. build receives the UI-backed reporter so every collaborator logs
// into the same pane. Quitting before the run finishes abandons it mid-step.
func Run(build func(domain.Reporter) pipeline.Deps, opts pipeline.Options, promptTimeout time.Duration) (pipeline.Result, error) {
	events := make(chan tea.Msg, 64)
	rep := eventReporter{events: events}
	deps := build(rep)
	deps.Reporter = rep

	o := pipeline.New(deps,
		pipeline.WithProgress(func(step pipeline.Step, total int) {
			events <- StepStartedMsg{Step: step}
		}),
		pipeline.WithChangelogPrompter(promptOn(events), promptTimeout),
	)
	run := func() tea.Msg {
		res, err := o.Run(context.Background(), opts)
		return RunFinishedMsg{Result: res, Err: err}
	}

	title := deps.Repo.Owner + "/" + deps.Repo.Name
	final, err := tea.NewProgram(NewAppModel(title, events, run), tea.WithAltScreen()).Run()
	if err != nil {
		return pipeline.Result{}, err
	}
	m, ok := final.(AppModel)
	if !ok || !m.Finished() {
		return pipeline.Result{}, fmt.Errorf("deployment interrupted before completion")
	}
	return m.Outcome()
}
