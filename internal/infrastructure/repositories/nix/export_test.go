package nix

// ParseMetadataInputs exports parseMetadataInputs for testing.
var ParseMetadataInputs = parseMetadataInputs //nolint:gochecknoglobals // test export
