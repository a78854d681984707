package plugin

import (
	"unicode"

	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

// File names that make up a plugin directory.
const (
	IndexFile      = "index.html"
	ManifestFile   = "mhPlugin.json"
	InitFile       = "init.json"
	SelfConfigFile = "selfConfig.json"
)

// RequiredFiles lists the entries every plugin package must ship.
var RequiredFiles = []string{IndexFile, ManifestFile}

// IsValidWindowID reports whether id is non-empty and made only of letters,
// digits, '-' and '_'.
func IsValidWindowID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '_' {
			continue
		}
		return false
	}
	return true
}

// ValidateWindowID returns an InvalidIdentifier error when id is malformed.
func ValidateWindowID(id string) error {
	if !IsValidWindowID(id) {
		return apperrors.InvalidIdentifier("validate window id", id)
	}
	return nil
}
