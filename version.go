package checklist

import _ "embed"

// Version is the release of the skill, read from the VERSION file.
//
//go:embed VERSION
var Version string
