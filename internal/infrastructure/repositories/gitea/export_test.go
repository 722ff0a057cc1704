package gitea

import "time"

// SetRetryDelay shortens the merge backoff for tests.
func SetRetryDelay(r *GiteaForgeRepository, delay time.Duration) {
	r.retryDelay = delay
}
