package entities

// Branch is a remote branch as reported by the forge. Instances are fetched
// immediately before use and never cached, so there is no staleness to
// manage beyond that rule.
type Branch struct {
	Name string
	SHA  string
}
