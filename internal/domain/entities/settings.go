package entities

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sethvargo/go-envconfig"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseBranch is the branch pull requests target when none is set.
	DefaultBaseBranch = "main"

	defaultBotName  = "gitea-actions[bot]"
	defaultBotEmail = "gitea-actions[bot]@noreply.gitea.io"
)

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// Settings is the resolved runtime configuration. Values come from an
// optional YAML config file, the environment, and CLI flags, in increasing
// precedence; flag overrides are applied by the controllers after loading.
type Settings struct {
	GiteaURL        string `env:"GITEA_URL,overwrite"        yaml:"gitea_url"`
	GiteaToken      string `env:"GITEA_TOKEN,overwrite"      yaml:"gitea_token"`
	GiteaRepository string `env:"GITEA_REPOSITORY,overwrite" yaml:"gitea_repository"`
	ExcludePatterns string `env:"EXCLUDE_PATTERNS,overwrite" yaml:"exclude_patterns"`
	BaseBranch      string `env:"BASE_BRANCH,overwrite"      yaml:"base_branch"`
	AutoMerge       bool   `env:"AUTO_MERGE,overwrite"       yaml:"auto_merge"`
	BotName         string `env:"GIT_BOT_NAME,overwrite"     yaml:"bot_name"`
	BotEmail        string `env:"GIT_BOT_EMAIL,overwrite"    yaml:"bot_email"`
	RepoDir         string `env:"REPO_DIR,overwrite"         yaml:"repo_dir"`
}

// NewSettings loads the configuration. An empty configPath auto-detects the
// config file in the standard locations and silently proceeds without one;
// an explicit path must exist. Environment variables overlay file values,
// the token is resolved (env expansion, then file indirection), and defaults
// fill whatever is still empty.
func NewSettings(ctx context.Context, configPath string) (*Settings, error) {
	settings := &Settings{}

	path := configPath
	if path == "" {
		if found, err := FindConfigFile(); err == nil {
			path = found
		}
	}

	if path != "" {
		if err := settings.loadFile(path); err != nil {
			return nil, err
		}
		logger.Infof("Using config file: %s", path)
	}

	if err := envconfig.Process(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to read settings from environment: %w", err)
	}

	settings.GiteaToken = resolveToken(settings.GiteaToken)
	settings.applyDefaults()

	return settings, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".update-flake-inputs.yaml",
		".update-flake-inputs.yml",
		"update-flake-inputs.yaml",
		"update-flake-inputs.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// Repository returns the parsed owner/repo pair. Validate must have accepted
// the settings first.
func (it *Settings) Repository() Repository {
	repo, _ := ParseRepository(it.GiteaRepository)
	return repo
}

// Validate checks that the required forge settings are present and that the
// repository is in owner/repo form.
func (it *Settings) Validate() error {
	if it.GiteaURL == "" {
		return errors.New("Gitea URL is required (--gitea-url or GITEA_URL env var)")
	}
	if it.GiteaToken == "" {
		return errors.New("Gitea token is required (--gitea-token or GITEA_TOKEN env var)")
	}
	if it.GiteaRepository == "" {
		return errors.New(
			"Gitea repository is required (--gitea-repository or GITEA_REPOSITORY env var)",
		)
	}
	if _, err := ParseRepository(it.GiteaRepository); err != nil {
		return err
	}
	return nil
}

func (it *Settings) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	if unmarshalErr := yaml.Unmarshal(data, it); unmarshalErr != nil {
		return fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	return nil
}

func (it *Settings) applyDefaults() {
	if it.BaseBranch == "" {
		it.BaseBranch = DefaultBaseBranch
	}
	if it.BotName == "" {
		it.BotName = defaultBotName
	}
	if it.BotEmail == "" {
		it.BotEmail = defaultBotEmail
	}
	if it.RepoDir == "" {
		it.RepoDir = "."
	}
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	// Expand ${ENV_VAR} references
	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	// If the resolved value is a path to an existing file, read the token from it
	if info, statErr := os.Stat(resolved); statErr == nil && !info.IsDir() {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}
