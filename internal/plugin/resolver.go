package plugin

import (
	"path/filepath"
)

// Resolver maps plugin identifiers to directories under a plugin root.
type Resolver struct {
	root string
}

// NewResolver returns a Resolver rooted at root.
func NewResolver(root string) *Resolver {
	return &Resolver{root: filepath.Clean(root)}
}

// Root returns the plugin root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve returns <root>/<windowID>. It performs no I/O.
func (r *Resolver) Resolve(windowID string) (string, error) {
	if err := ValidateWindowID(windowID); err != nil {
		return "", err
	}
	return filepath.Join(r.root, windowID), nil
}

// IndexURL returns the absolute path of dir's index.html using forward slashes,
// which is the form stored in the registry's data.url field.
func IndexURL(dir string) string {
	abs, err := filepath.Abs(filepath.Join(dir, IndexFile))
	if err != nil {
		abs = filepath.Join(dir, IndexFile)
	}
	return filepath.ToSlash(abs)
}
