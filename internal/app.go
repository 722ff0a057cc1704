package internal

import (
	"github.com/rios0rios0/update-flake-inputs/internal/domain/entities"
)

// AppInternal aggregates the wired controllers for the CLI entry point.
type AppInternal struct {
	controllers *[]entities.Controller
}

// NewAppInternal creates the application aggregate from the controller slice.
func NewAppInternal(controllers *[]entities.Controller) *AppInternal {
	return &AppInternal{controllers: controllers}
}

// GetControllers returns all registered controllers.
func (it *AppInternal) GetControllers() []entities.Controller {
	return *it.controllers
}
