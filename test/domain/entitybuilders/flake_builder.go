//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/update-flake-inputs/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// FlakeBuilder helps create test flakes with a fluent interface.
type FlakeBuilder struct {
	*testkit.BaseBuilder
	filePath       string
	inputs         []string
	excludedInputs []string
}

// NewFlakeBuilder creates a new flake builder with sensible defaults.
func NewFlakeBuilder() *FlakeBuilder {
	return &FlakeBuilder{
		BaseBuilder:    testkit.NewBaseBuilder(),
		filePath:       "flake.nix",
		inputs:         []string{"nixpkgs"},
		excludedInputs: nil,
	}
}

// WithFilePath sets the manifest path relative to the repository root.
func (b *FlakeBuilder) WithFilePath(path string) *FlakeBuilder {
	b.filePath = path
	return b
}

// WithInputs sets the updatable input names.
func (b *FlakeBuilder) WithInputs(inputs ...string) *FlakeBuilder {
	b.inputs = inputs
	return b
}

// WithExcludedInputs sets the excluded input names.
func (b *FlakeBuilder) WithExcludedInputs(inputs ...string) *FlakeBuilder {
	b.excludedInputs = inputs
	return b
}

// Build creates the flake (satisfies testkit.Builder interface).
func (b *FlakeBuilder) Build() interface{} {
	return b.BuildFlake()
}

// BuildFlake creates the flake with a concrete return type.
func (b *FlakeBuilder) BuildFlake() entities.Flake {
	return entities.Flake{
		FilePath:       b.filePath,
		Inputs:         b.inputs,
		ExcludedInputs: b.excludedInputs,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *FlakeBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.filePath = "flake.nix"
	b.inputs = []string{"nixpkgs"}
	b.excludedInputs = nil
	return b
}

// Clone creates a deep copy of the FlakeBuilder.
func (b *FlakeBuilder) Clone() testkit.Builder {
	inputs := make([]string, len(b.inputs))
	copy(inputs, b.inputs)
	excluded := make([]string, len(b.excludedInputs))
	copy(excluded, b.excludedInputs)

	return &FlakeBuilder{
		BaseBuilder:    b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		filePath:       b.filePath,
		inputs:         inputs,
		excludedInputs: excluded,
	}
}
