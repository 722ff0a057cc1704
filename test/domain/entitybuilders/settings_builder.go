//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/update-flake-inputs/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// SettingsBuilder helps create test settings with a fluent interface.
type SettingsBuilder struct {
	*testkit.BaseBuilder
	giteaURL        string
	giteaToken      string
	giteaRepository string
	excludePatterns string
	baseBranch      string
	autoMerge       bool
	repoDir         string
}

// NewSettingsBuilder creates a new settings builder with sensible defaults.
func NewSettingsBuilder() *SettingsBuilder {
	return &SettingsBuilder{
		BaseBuilder:     testkit.NewBaseBuilder(),
		giteaURL:        "https://gitea.example.com",
		giteaToken:      "test-token",
		giteaRepository: "owner/repo",
		excludePatterns: "",
		baseBranch:      entities.DefaultBaseBranch,
		autoMerge:       false,
		repoDir:         ".",
	}
}

// WithGiteaURL sets the forge URL.
func (b *SettingsBuilder) WithGiteaURL(url string) *SettingsBuilder {
	b.giteaURL = url
	return b
}

// WithGiteaToken sets the authentication token.
func (b *SettingsBuilder) WithGiteaToken(token string) *SettingsBuilder {
	b.giteaToken = token
	return b
}

// WithGiteaRepository sets the owner/repo pair.
func (b *SettingsBuilder) WithGiteaRepository(repository string) *SettingsBuilder {
	b.giteaRepository = repository
	return b
}

// WithExcludePatterns sets the exclude directive.
func (b *SettingsBuilder) WithExcludePatterns(patterns string) *SettingsBuilder {
	b.excludePatterns = patterns
	return b
}

// WithBaseBranch sets the pull request target branch.
func (b *SettingsBuilder) WithBaseBranch(branch string) *SettingsBuilder {
	b.baseBranch = branch
	return b
}

// WithAutoMerge enables merge scheduling on created pull requests.
func (b *SettingsBuilder) WithAutoMerge(autoMerge bool) *SettingsBuilder {
	b.autoMerge = autoMerge
	return b
}

// WithRepoDir sets the repository working directory.
func (b *SettingsBuilder) WithRepoDir(dir string) *SettingsBuilder {
	b.repoDir = dir
	return b
}

// Build creates the settings (satisfies testkit.Builder interface).
func (b *SettingsBuilder) Build() interface{} {
	return b.BuildSettings()
}

// BuildSettings creates the settings with a concrete return type.
func (b *SettingsBuilder) BuildSettings() *entities.Settings {
	return &entities.Settings{
		GiteaURL:        b.giteaURL,
		GiteaToken:      b.giteaToken,
		GiteaRepository: b.giteaRepository,
		ExcludePatterns: b.excludePatterns,
		BaseBranch:      b.baseBranch,
		AutoMerge:       b.autoMerge,
		BotName:         "gitea-actions[bot]",
		BotEmail:        "gitea-actions[bot]@noreply.gitea.io",
		RepoDir:         b.repoDir,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *SettingsBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.giteaURL = "https://gitea.example.com"
	b.giteaToken = "test-token"
	b.giteaRepository = "owner/repo"
	b.excludePatterns = ""
	b.baseBranch = entities.DefaultBaseBranch
	b.autoMerge = false
	b.repoDir = "."
	return b
}

// Clone creates a deep copy of the SettingsBuilder.
func (b *SettingsBuilder) Clone() testkit.Builder {
	return &SettingsBuilder{
		BaseBuilder:     b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		giteaURL:        b.giteaURL,
		giteaToken:      b.giteaToken,
		giteaRepository: b.giteaRepository,
		excludePatterns: b.excludePatterns,
		baseBranch:      b.baseBranch,
		autoMerge:       b.autoMerge,
		repoDir:         b.repoDir,
	}
}
