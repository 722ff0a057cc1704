package entities

import (
	"fmt"
	"net/http"
)

// DiscoveryError wraps a filesystem or resolver failure during manifest
// discovery. Discovery is all-or-nothing: the first failure aborts the whole
// call and no partial results are returned.
type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("failed to discover flake files: %v", e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ResolverError reports a failed resolver run for one input. It is caught at
// the orchestration loop boundary and never aborts other inputs.
type ResolverError struct {
	Input     string
	FlakeFile string
	ExitCode  int
	Stdout    string
	Stderr    string
	Err       error
}

func (e *ResolverError) Error() string {
	return fmt.Sprintf(
		"failed to update flake input %s in %s: %v\nStderr: %s",
		e.Input, e.FlakeFile, e.Err, e.Stderr,
	)
}

func (e *ResolverError) Unwrap() error { return e.Err }

// WorktreeError reports a version-control failure in the worktree lifecycle
// or in staging/committing/pushing its changes. Isolated per input.
type WorktreeError struct {
	Branch string
	Err    error
}

func (e *WorktreeError) Error() string {
	if e.Branch != "" {
		return fmt.Sprintf("worktree for branch %s: %v", e.Branch, e.Err)
	}
	return fmt.Sprintf("worktree: %v", e.Err)
}

func (e *WorktreeError) Unwrap() error { return e.Err }

// ForgeError reports a forge-side lifecycle failure that is not a plain HTTP
// error, such as exhausting the merge retry budget.
type ForgeError struct {
	Message string
	Err     error
}

func (e *ForgeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ForgeError) Unwrap() error { return e.Err }

// APIError is an HTTP-level failure from the forge API. StatusCode is zero
// for transport failures (connection refused, timeout, malformed response).
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API request failed: %d - %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API request failed: %s", e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsNotFound reports whether the forge answered 404.
func (e *APIError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// IsConflict reports whether the forge answered 409.
func (e *APIError) IsConflict() bool { return e.StatusCode == http.StatusConflict }
