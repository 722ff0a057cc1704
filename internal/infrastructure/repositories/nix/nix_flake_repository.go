package nix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/update-flake-inputs/internal/domain/entities"
	"github.com/rios0rios0/update-flake-inputs/internal/domain/repositories"
)

const (
	manifestName = "flake.nix"
	lockName     = "flake.lock"

	// unknownInputMarker appears on stderr when the resolver is asked to
	// update an input the manifest does not declare. The run still exits
	// zero, so the marker is the only signal.
	unknownInputMarker = "does not match any input"
)

// skipDirs are directory names never descended into during discovery.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"__pycache__":  true,
}

// NixFlakeRepository implements repositories.FlakeRepository by shelling out
// to the nix CLI. Every command runs with an explicit working directory.
type NixFlakeRepository struct{}

// NewNixFlakeRepository creates a new nix-backed flake repository.
func NewNixFlakeRepository() repositories.FlakeRepository {
	return &NixFlakeRepository{}
}

// DiscoverFlakes walks repoDir for flake.nix manifests, applies the exclude
// directive, skips manifests without a lock file, and queries the declared
// inputs of each survivor. Any failure aborts the whole discovery.
func (r *NixFlakeRepository) DiscoverFlakes(
	ctx context.Context,
	repoDir, excludeDirective string,
) ([]entities.Flake, error) {
	rules := entities.ParseExcludeRules(excludeDirective)
	logger.Infof("Exclude patterns: %v", rules)

	manifestPaths, err := findManifests(repoDir)
	if err != nil {
		return nil, &entities.DiscoveryError{Err: err}
	}

	var flakes []entities.Flake
	for _, relPath := range manifestPaths {
		if rules.ExcludesFile(relPath) {
			logger.Infof("Excluding %s - matched exclude pattern", relPath)
			continue
		}

		excludedInputs := rules.ExcludedInputsFor(relPath)

		lockPath := filepath.Join(repoDir, filepath.Dir(relPath), lockName)
		if _, statErr := os.Stat(lockPath); statErr != nil {
			logger.Infof("Skipping %s - no lock file found at %s", relPath, lockPath)
			continue
		}

		inputs, listErr := r.listInputs(ctx, filepath.Join(repoDir, filepath.Dir(relPath)))
		if listErr != nil {
			return nil, &entities.DiscoveryError{
				Err: fmt.Errorf("failed to parse flake inputs from %s: %w", relPath, listErr),
			}
		}

		logger.Infof("Found inputs in %s: %s", relPath, strings.Join(inputs, ", "))

		flakes = append(flakes, entities.Flake{
			FilePath:       relPath,
			Inputs:         subtract(inputs, excludedInputs),
			ExcludedInputs: excludedInputs,
		})
	}

	logger.Infof("Found %d flake files after exclusions", len(flakes))
	return flakes, nil
}

// UpdateInput re-resolves one named input of the manifest at flakeFile,
// resolved under workDir. The resolver runs against a shallow git+file URL
// because worktrees may carry incomplete history. An unknown input is a
// logged no-op.
func (r *NixFlakeRepository) UpdateInput(
	ctx context.Context,
	workDir, flakeFile, inputName string,
) error {
	logger.Infof("Updating flake input: %s in %s", inputName, flakeFile)

	flakeDir := filepath.Dir(filepath.Join(workDir, flakeFile))
	absFlakeDir, err := filepath.Abs(flakeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve flake directory %s: %w", flakeDir, err)
	}

	cmd := exec.CommandContext(
		ctx,
		"nix", "flake", "update",
		"--flake", fmt.Sprintf("git+file://%s?shallow=1", absFlakeDir),
		inputName,
	)
	cmd.Dir = flakeDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if runErr := cmd.Run(); runErr != nil {
		exitCode := -1
		if cmd.ProcessState != nil {
			exitCode = cmd.ProcessState.ExitCode()
		}
		resolverErr := &entities.ResolverError{
			Input:     inputName,
			FlakeFile: flakeFile,
			ExitCode:  exitCode,
			Stdout:    strings.TrimSpace(stdout.String()),
			Stderr:    strings.TrimSpace(stderr.String()),
			Err:       runErr,
		}
		logger.Errorf(
			"Failed to update flake input %s in %s. Exit code: %d\nStdout: %s\nStderr: %s",
			inputName, flakeFile,
			resolverErr.ExitCode, resolverErr.Stdout, resolverErr.Stderr,
		)
		return resolverErr
	}

	if strings.Contains(stderr.String(), unknownInputMarker) {
		logger.Warnf(
			"Failed to update input %s in %s: %s",
			inputName, flakeFile, strings.TrimSpace(stderr.String()),
		)
		return nil
	}

	logger.Infof("Successfully updated flake input: %s in %s", inputName, flakeFile)
	return nil
}

// Version reports the nix version string, e.g. "2.18.1".
func (r *NixFlakeRepository) Version(ctx context.Context) (string, error) {
	output, err := exec.CommandContext(ctx, "nix", "--version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to run nix --version: %w", err)
	}

	// Output looks like "nix (Nix) 2.18.1".
	fields := strings.Fields(strings.TrimSpace(string(output)))
	if len(fields) == 0 {
		return "", fmt.Errorf("unexpected nix --version output: %q", string(output))
	}
	return fields[len(fields)-1], nil
}

// listInputs queries the direct inputs of the lock graph's root node without
// mutating the lock file.
func (r *NixFlakeRepository) listInputs(ctx context.Context, flakeDir string) ([]string, error) {
	cmd := exec.CommandContext(
		ctx,
		"nix", "flake", "metadata", "--json", "--no-write-lock-file",
	)
	cmd.Dir = flakeDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("nix flake metadata: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseMetadataInputs(stdout.Bytes())
}

type flakeMetadata struct {
	Locks struct {
		Nodes map[string]flakeNode `json:"nodes"`
	} `json:"locks"`
}

type flakeNode struct {
	// Inputs values may be a node key or a follows path, so only the keys
	// are interpreted here.
	Inputs map[string]json.RawMessage `json:"inputs"`
}

// parseMetadataInputs extracts the declared input names of the root node from
// `nix flake metadata --json` output. The keys of root.inputs are the names
// the resolver accepts, even when they point at renamed or followed nodes.
// Names are sorted so discovery order is deterministic.
func parseMetadataInputs(data []byte) ([]string, error) {
	var metadata flakeMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse flake metadata: %w", err)
	}

	rootInputs := metadata.Locks.Nodes["root"].Inputs

	names := make([]string, 0, len(rootInputs))
	for name := range rootInputs {
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}

// findManifests returns the slash-separated paths of every flake.nix under
// root, relative to root, in deterministic walk order.
func findManifests(root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != manifestName {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return paths, nil
}

// subtract returns the names not present in excluded, preserving order.
func subtract(names, excluded []string) []string {
	if len(excluded) == 0 {
		return names
	}

	drop := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		drop[name] = true
	}

	var kept []string
	for _, name := range names {
		if !drop[name] {
			kept = append(kept, name)
		}
	}
	return kept
}
