// Package store persists the current version to a single-line text file and
// keeps an append-only deployment history alongside it.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/waabox/devsync/internal/domain"
	"github.com/waabox/devsync/internal/version"
)

const (
	defaultVersionFile = "Version.txt"
	historyFile        = "version_history.json"
)

// Store reads and writes the version file and the deployment history for
// one repository directory.
type Store struct {
	versionPath string
	historyPath string
	reporter    domain.Reporter
}

// New creates a Store rooted at dir. An existing Version.txt or version.txt
// is used; otherwise Version.txt is created on first read.
func New(dir string, reporter domain.Reporter) *Store {
	if reporter == nil {
		reporter = domain.NopReporter{}
	}
	versionPath := filepath.Join(dir, defaultVersionFile)
	for _, name := range []string{"Version.txt", "version.txt"} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			versionPath = candidate
			break
		}
	}
	return &Store{
		versionPath: versionPath,
		historyPath: filepath.Join(dir, historyFile),
		reporter:    reporter,
	}
}

// VersionPath returns the path of the backing version file.
func (s *Store) VersionPath() string {
	return s.versionPath
}

// ReadCurrent returns the current version. A missing or empty version file
// is created with 0.1.0 so that every caller can assume a version exists;
// this read is side-effecting by design.
func (s *Store) ReadCurrent() (version.Version, error) {
	data, err := os.ReadFile(s.versionPath)
	if os.IsNotExist(err) {
		return s.initDefault()
	}
	if err != nil {
		return version.Version{}, fmt.Errorf("reading %s: %w", s.versionPath, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		s.reporter.Warn(fmt.Sprintf("%s is empty, using 0.1.0", filepath.Base(s.versionPath)))
		return s.initDefault()
	}
	v, err := version.Parse(string(data))
	if err != nil {
		return version.Version{}, fmt.Errorf("invalid version in %s: %w", s.versionPath, err)
	}
	return v, nil
}

func (s *Store) initDefault() (version.Version, error) {
	v := version.Version{Minor: 1}
	s.reporter.Warn(fmt.Sprintf("%s not found, creating with %s", filepath.Base(s.versionPath), v))
	if err := s.WriteCurrent(v); err != nil {
		return version.Version{}, err
	}
	return v, nil
}

// WriteCurrent overwrites the version file with the canonical form of v.
func (s *Store) WriteCurrent(v version.Version) error {
	if err := os.WriteFile(s.versionPath, []byte(v.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", s.versionPath, err)
	}
	return nil
}

// SetExplicit parses s and writes it in one step; used for manual override.
func (st *Store) SetExplicit(s string) (version.Version, error) {
	v, err := version.Parse(s)
	if err != nil {
		return version.Version{}, err
	}
	if err := st.WriteCurrent(v); err != nil {
		return version.Version{}, err
	}
	return v, nil
}

// Rollback rewrites the version file to an earlier version string. The
// history is left untouched.
func (st *Store) Rollback(s string) (version.Version, error) {
	return st.SetExplicit(s)
}

// AppendHistory prepends record to the deployment history, creating the
// history file when absent.
func (s *Store) AppendHistory(record domain.DeploymentRecord) error {
	history := s.History()
	history = append([]domain.DeploymentRecord{record}, history...)
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := os.WriteFile(s.historyPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", s.historyPath, err)
	}
	return nil
}

// History returns the deployment history, most recent first. A missing or
// corrupt history file yields an empty slice: history is advisory, version
// truth is authoritative, and the next append recreates the file.
func (s *Store) History() []domain.DeploymentRecord {
	data, err := os.ReadFile(s.historyPath)
	if err != nil {
		return nil
	}
	var history []domain.DeploymentRecord
	if err := json.Unmarshal(data, &history); err != nil {
		s.reporter.Warn("deployment history is unreadable, starting fresh")
		return nil
	}
	return history
}
