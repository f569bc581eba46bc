package tui

import (
	"fmt"
	"strings"

	"github.com/waabox/devsync/internal/pipeline"
)

// stepState tracks where a single pipeline step is in its lifecycle.
type stepState int

const (
	stepPending stepState = iota
	stepRunning
	stepDone
	stepFailed
)

// StepListModel is an immutable model for the pipeline progress panel. It
// mirrors the fixed step sequence of a run; Start and Finish advance it as
// progress messages arrive.
type StepListModel struct {
	states  []stepState
	current int
}

// NewStepListModel creates a progress panel with every step pending.
func NewStepListModel() StepListModel {
	return StepListModel{
		states:  make([]stepState, pipeline.TotalSteps),
		current: -1,
	}
}

// Start returns a new model with step marked running and every earlier
// running step marked done.
func (m StepListModel) Start(step pipeline.Step) StepListModel {
	states := append([]stepState(nil), m.states...)
	if m.current >= 0 && states[m.current] == stepRunning {
		states[m.current] = stepDone
	}
	if int(step) >= 0 && int(step) < len(states) {
		states[step] = stepRunning
	}
	m.states = states
	m.current = int(step)
	return m
}

// Finish returns a new model with the in-flight step resolved. On success
// every started step is marked done; on failure the current step is marked
// failed and the rest stay pending.
func (m StepListModel) Finish(success bool) StepListModel {
	states := append([]stepState(nil), m.states...)
	if m.current >= 0 && states[m.current] == stepRunning {
		if success {
			states[m.current] = stepDone
		} else {
			states[m.current] = stepFailed
		}
	}
	m.states = states
	return m
}

// Current returns the index of the most recently started step, or -1.
func (m StepListModel) Current() int {
	return m.current
}

// View renders the step checklist.
func (m StepListModel) View() string {
	var sb strings.Builder
	for i, state := range m.states {
		sb.WriteString(fmt.Sprintf(" %s %2d/%d  %s\n",
			stateIcon(state), i+1, pipeline.TotalSteps, pipeline.Step(i)))
	}
	return sb.String()
}

func stateIcon(s stepState) string {
	switch s {
	case stepRunning:
		return "●"
	case stepDone:
		return "✓"
	case stepFailed:
		return "✗"
	default:
		return "·"
	}
}
