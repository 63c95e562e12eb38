package domain

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// classificationPattern is the hierarchical classification naming convention:
// ET_ followed by three/four/three letter groups, a three digit sequence, and
// an optional revision or variant suffix.
const classificationPattern = `^ET_[A-Z]{3}_[A-Z]{4}_[A-Z]{3}_\d{3}(_[rv]\d+)?$`

var classificationRe = regexp.MustCompile(classificationPattern)

// ValidateClassification checks a classification code against the catalog
// naming convention.
func ValidateClassification(code string) error {
	if !classificationRe.MatchString(code) {
		return FormatError{Field: "classification", Value: code, Pattern: classificationPattern}
	}
	return nil
}

// ValidateVersion checks that a component version parses as strict
// MAJOR.MINOR.PATCH semantic versioning. A single leading "v" is tolerated.
func ValidateVersion(version string) error {
	if _, err := semver.StrictNewVersion(strings.TrimPrefix(version, "v")); err != nil {
		return FormatError{Field: "version", Value: version, Pattern: "MAJOR.MINOR.PATCH"}
	}
	return nil
}
