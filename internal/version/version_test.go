package version

import "testing"

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
	_ = GitCommit
	_ = BuildDate
}

func TestVersion_CanBeOverridden(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = "1.2.3", "abc123def456", "2024-01-15T10:30:00Z"

	if Version != "1.2.3" {
		t.Errorf("Version = %q, want %q", Version, "1.2.3")
	}
	if GitCommit != "abc123def456" {
		t.Errorf("GitCommit = %q, want %q", GitCommit, "abc123def456")
	}
	if BuildDate != "2024-01-15T10:30:00Z" {
		t.Errorf("BuildDate = %q, want %q", BuildDate, "2024-01-15T10:30:00Z")
	}

	Version, GitCommit, BuildDate = origVersion, origCommit, origDate
}

func TestVersion_EmptyOptionalFields(t *testing.T) {
	origCommit, origDate := GitCommit, BuildDate
	GitCommit, BuildDate = "", ""
	if GitCommit != "" || BuildDate != "" {
		t.Error("GitCommit and BuildDate should be empty")
	}
	GitCommit, BuildDate = origCommit, origDate
}
