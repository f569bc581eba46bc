package domain

// Reporter receives progress and log output from the pipeline and its
// collaborators. Implementations decide presentation; there is no global
// styling state anywhere in the codebase.
type Reporter interface {
	Step(msg string)
	Info(msg string)
	Success(msg string)
	Warn(msg string)
	Error(msg string)
}

// NopReporter discards everything. Useful as a default and in tests.
type NopReporter struct{}

func (NopReporter) Step(string)    {}
func (NopReporter) Info(string)    {}
func (NopReporter) Success(string) {}
func (NopReporter) Warn(string)    {}
func (NopReporter) Error(string)   {}
