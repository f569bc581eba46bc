// Package changelog inserts release entries into a Keep-a-Changelog style
// Markdown file.
package changelog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultHeader = "# Changelog\n\nAll notable changes to this project will be documented in this file.\n\n"

// Store manages the repository changelog file.
type Store struct {
	path string
}

// New locates the changelog in dir, checking the usual name variants and
// defaulting to CHANGELOG.md when none exists yet.
func New(dir string) *Store {
	path := filepath.Join(dir, "CHANGELOG.md")
	for _, name := range []string{"CHANGELOG.md", "changelog.md", "CHANGELOG", "changelog"} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
			break
		}
	}
	return &Store{path: path}
}

// Path returns the changelog file path.
func (s *Store) Path() string {
	return s.path
}

// AppendEntry inserts a "## [version] - date" section immediately after the
// top-level header, before any existing version sections. A missing or
// headerless file gets the standard header first. Empty text is a no-op.
func (s *Store) AppendEntry(version, date, text string) error {
	if text == "" {
		return nil
	}

	existing := ""
	if data, err := os.ReadFile(s.path); err == nil {
		existing = string(data)
	}

	entry := fmt.Sprintf("## [%s] - %s\n\n%s\n\n", version, date, text)

	if !strings.HasPrefix(existing, "#") {
		existing = defaultHeader + existing
	}

	lines := strings.Split(existing, "\n")
	insertAt := len(lines)
	for i, line := range lines {
		if strings.HasPrefix(line, "##") {
			insertAt = i
			break
		}
	}

	var content string
	if insertAt == len(lines) {
		content = strings.TrimRight(existing, "\n") + "\n\n" + entry
	} else {
		content = strings.Join(lines[:insertAt], "\n") + "\n" + entry + strings.Join(lines[insertAt:], "\n")
	}

	if err := os.WriteFile(s.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}
