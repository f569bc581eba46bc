package changelog_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/waabox/devsync/internal/changelog"
)

func TestAppendEntry_CreatesFileWithHeader(t *testing.T) {
	dir := t.TempDir()
	s := changelog.New(dir)

	if err := s.AppendEntry("1.0.0", "2025-06-01", "- Added feature X"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "CHANGELOG.md"))
	if err != nil {
		t.Fatalf("changelog should exist: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# Changelog") {
		t.Errorf("expected standard header, got:\n%s", content)
	}
	if !strings.Contains(content, "## [1.0.0] - 2025-06-01") {
		t.Errorf("expected version section, got:\n%s", content)
	}
	if !strings.Contains(content, "- Added feature X") {
		t.Errorf("expected entry text, got:\n%s", content)
	}
}

func TestAppendEntry_InsertsBeforeExistingSections(t *testing.T) {
	dir := t.TempDir()
	existing := "# Changelog\n\nAll notable changes.\n\n## [1.0.0] - 2025-01-01\n\n- Initial release\n"
	if err := os.WriteFile(filepath.Join(dir, "CHANGELOG.md"), []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}
	s := changelog.New(dir)

	if err := s.AppendEntry("1.0.1", "2025-06-01", "- Fixed bug Y"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "CHANGELOG.md"))
	content := string(data)
	newIdx := strings.Index(content, "## [1.0.1]")
	oldIdx := strings.Index(content, "## [1.0.0]")
	if newIdx == -1 || oldIdx == -1 {
		t.Fatalf("missing sections in:\n%s", content)
	}
	if newIdx > oldIdx {
		t.Errorf("new entry must come before older sections:\n%s", content)
	}
	headerIdx := strings.Index(content, "# Changelog")
	if headerIdx != 0 {
		t.Errorf("header must stay at the top:\n%s", content)
	}
}

func TestAppendEntry_EmptyTextIsNoOp(t *testing.T) {
	dir := t.TempDir()
	s := changelog.New(dir)

	if err := s.AppendEntry("1.0.0", "2025-06-01", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "CHANGELOG.md")); !os.IsNotExist(err) {
		t.Error("no file should be created for an empty entry")
	}
}

func TestNew_FindsLowercaseVariant(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "changelog.md")
	if err := os.WriteFile(path, []byte("# Changelog\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := changelog.New(dir)
	if s.Path() != path {
		t.Errorf("expected %q, got %q", path, s.Path())
	}
}

func TestAppendEntry_HeaderlessFileGetsHeader(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "CHANGELOG.md"), []byte("some stray notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := changelog.New(dir)

	if err := s.AppendEntry("0.2.0", "2025-06-01", "- Change"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "CHANGELOG.md"))
	if !strings.HasPrefix(string(data), "# Changelog") {
		t.Errorf("expected header to be prepended, got:\n%s", data)
	}
}
