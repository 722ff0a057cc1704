package entities

import "strings"

// branchPrefix starts every update branch name.
const branchPrefix = "update-"

// BranchNameForInput derives the deterministic branch name for an input.
// Manifests sharing an input name share one branch and one pull request, so
// the name depends on the input alone. Slashes become dashes and stray
// leading/trailing dashes are trimmed.
func BranchNameForInput(inputName string) string {
	name := branchPrefix + inputName
	name = strings.ReplaceAll(name, "/", "-")
	return strings.Trim(name, "-")
}

// InputUpdate groups every manifest declaring one input. The group shares a
// single branch; its manifests are processed strictly sequentially so their
// update commits stack on that branch.
type InputUpdate struct {
	InputName  string
	BranchName string
	Flakes     []Flake
}

// FlakePaths returns the manifest paths in the group, in discovery order.
func (u InputUpdate) FlakePaths() []string {
	paths := make([]string, 0, len(u.Flakes))
	for _, flake := range u.Flakes {
		paths = append(paths, flake.FilePath)
	}
	return paths
}

// BuildInputUpdates groups the (manifest, input) pairs of the discovered
// flakes by input name. Groups keep the first-seen order of their input and
// each group keeps its manifests in discovery order.
func BuildInputUpdates(flakes []Flake) []InputUpdate {
	index := make(map[string]int)
	var updates []InputUpdate

	for _, flake := range flakes {
		for _, input := range flake.Inputs {
			i, seen := index[input]
			if !seen {
				i = len(updates)
				index[input] = i
				updates = append(updates, InputUpdate{
					InputName:  input,
					BranchName: BranchNameForInput(input),
				})
			}
			updates[i].Flakes = append(updates[i].Flakes, flake)
		}
	}

	return updates
}
