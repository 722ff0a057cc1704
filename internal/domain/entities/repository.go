package entities

import (
	"fmt"
	"strings"
)

// Repository identifies the forge repository the tool operates on.
type Repository struct {
	Owner string
	Name  string
}

// FullName returns the "owner/repo" form used in API paths and logs.
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// ParseRepository splits an "owner/repo" string into a Repository.
func ParseRepository(s string) (Repository, error) {
	owner, name, found := strings.Cut(s, "/")
	if !found || owner == "" || name == "" {
		return Repository{}, fmt.Errorf("repository must be in format owner/repo, got: %q", s)
	}
	return Repository{Owner: owner, Name: name}, nil
}
