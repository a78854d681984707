package archive

import (
	"path"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

// IllegalPathMessage is the message carried by every path-escape error.
const IllegalPathMessage = "archive contains illegal path"

// ErrIllegalPath matches errors raised for entries that would leave the target directory.
var ErrIllegalPath = &apperrors.Error{Code: apperrors.CodeIntegrity, Message: IllegalPathMessage}

// SanitizeEntryPath converts a zip entry name into a clean, relative,
// slash-separated path. Empty names, absolute paths, drive letters, NUL bytes
// and any ".." segment are rejected.
func SanitizeEntryPath(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", illegalPath(name)
	}

	normalized := strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(normalized, "/") || hasDriveLetter(normalized) {
		return "", illegalPath(name)
	}
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", illegalPath(name)
		}
	}

	cleaned := path.Clean(normalized)
	if cleaned == "." || cleaned == "" {
		return "", illegalPath(name)
	}
	return cleaned, nil
}

// resolveEntry joins a sanitized entry path beneath root and confirms the
// result is a strict descendant of root.
func resolveEntry(root, name string) (string, error) {
	rel, err := SanitizeEntryPath(name)
	if err != nil {
		return "", err
	}

	joined, err := securejoin.SecureJoin(root, filepath.FromSlash(rel))
	if err != nil {
		return "", apperrors.New(apperrors.CodeIntegrity, "extract archive", IllegalPathMessage, err)
	}
	if !isDescendant(root, joined) {
		return "", illegalPath(name)
	}
	return joined, nil
}

func isDescendant(root, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func illegalPath(name string) error {
	return apperrors.New(apperrors.CodeIntegrity, "extract archive "+quoteEntry(name), IllegalPathMessage, nil)
}

func quoteEntry(name string) string {
	return "\"" + strings.ReplaceAll(name, "\x00", `\x00`) + "\""
}
