package entities

// User is the authenticated forge identity, resolved during the startup
// credential check.
type User struct {
	Login string
}
