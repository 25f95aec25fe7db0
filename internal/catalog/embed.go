package catalog

import (
	_ "embed"
)

// The reference catalogs are compiled into the binary so every process sees the same data.

//go:embed data/karma_types.yaml
var karmaTypesYAML []byte

//go:embed data/questionnaires.yaml
var questionnairesYAML []byte
