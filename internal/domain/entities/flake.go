package entities

import "path/filepath"

// Flake represents one discovered flake.nix manifest together with the
// inputs eligible for update. Instances are immutable once returned by
// discovery; Inputs already has the excluded names removed.
type Flake struct {
	FilePath       string
	Inputs         []string
	ExcludedInputs []string
}

// Dir returns the directory containing the manifest ("." for the root).
func (f Flake) Dir() string {
	return filepath.Dir(f.FilePath)
}

// LockFilePath returns the sibling flake.lock path for this manifest.
func (f Flake) LockFilePath() string {
	return filepath.Join(filepath.Dir(f.FilePath), "flake.lock")
}

// IsRoot reports whether the manifest sits at the repository root.
func (f Flake) IsRoot() bool {
	return f.Dir() == "."
}
