// Package project validates that a repository has the files the release
// pipeline depends on.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Validator checks project structure before a pipeline run.
type Validator struct {
	dir string
	// Required files block the pipeline when absent.
	required []string
	// Recommended files only produce warnings.
	recommended []string
}

// New creates a Validator for dir with the standard file sets.
func New(dir string) *Validator {
	return &Validator{
		dir:         dir,
		required:    []string{"README.md", "Version.txt"},
		recommended: []string{"CHANGELOG.md", "LICENSE", ".gitignore"},
	}
}

// exists checks a name in its given, lower, and upper case spellings.
func (v *Validator) exists(name string) bool {
	for _, candidate := range []string{name, strings.ToLower(name), strings.ToUpper(name)} {
		if _, err := os.Stat(filepath.Join(v.dir, candidate)); err == nil {
			return true
		}
	}
	return false
}

// Validate reports whether all required files exist, along with warning
// messages for anything missing. Missing recommended files never make the
// result invalid.
func (v *Validator) Validate() (bool, []string) {
	var missingRequired, missingRecommended []string
	for _, name := range v.required {
		if !v.exists(name) {
			missingRequired = append(missingRequired, name)
		}
	}
	for _, name := range v.recommended {
		if !v.exists(name) {
			missingRecommended = append(missingRecommended, name)
		}
	}

	var warnings []string
	if len(missingRequired) > 0 {
		warnings = append(warnings, fmt.Sprintf("Missing required files: %s", strings.Join(missingRequired, ", ")))
	}
	if len(missingRecommended) > 0 {
		warnings = append(warnings, fmt.Sprintf("Missing recommended files: %s", strings.Join(missingRecommended, ", ")))
	}
	return len(missingRequired) == 0, warnings
}
