package pipeline

import "fmt"

// Step identifies one stage of the release pipeline. Steps run strictly in
// order; a failed step aborts the remainder of the sequence.
type Step int

const (
	StepValidateProject Step = iota
	StepValidateRepo
	StepConfigureIdentity
	StepReadVersion
	StepCreateBranch
	StepResolveNextVersion
	StepChangelog
	StepCommitPush
	StepTriggerCI
	StepWaitForCI
	StepMergeToTrunk
	StepTagAndRelease

	// TotalSteps is the number of pipeline steps.
	TotalSteps = int(StepTagAndRelease) + 1
)

var stepNames = map[Step]string{
	StepValidateProject:    "Validate project structure",
	StepValidateRepo:       "Validate Git repository",
	StepConfigureIdentity:  "Configure Git user",
	StepReadVersion:        "Read current version",
	StepCreateBranch:       "Create development branch",
	StepResolveNextVersion: "Resolve next version",
	StepChangelog:          "Update changelog",
	StepCommitPush:         "Commit and push changes",
	StepTriggerCI:          "Trigger CI/CD pipeline",
	StepWaitForCI:          "Wait for CI/CD pipeline",
	StepMergeToTrunk:       "Merge to trunk branch",
	StepTagAndRelease:      "Create tag and release",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// StepError reports which step a pipeline run failed at. Earlier steps are
// left as they completed; there is no rollback.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
