// Package testutil builds plugin packages and directories for tests.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// Entry is one member of a zip built by BuildZip. Entries whose name ends in
// "/" become directory entries.
type Entry struct {
	Name string
	Body string
}

// BuildZip returns an in-memory zip containing entries in order.
func BuildZip(t testing.TB, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		require.NoError(t, err)
		if e.Body != "" {
			_, err = w.Write([]byte(e.Body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// Manifest returns a minimal valid mhPlugin.json for windowID.
func Manifest(windowID string) string {
	return fmt.Sprintf(`{"windowId":%q,"title":"Plugin %s","version":"1.0.0","size":[640,480]}`, windowID, windowID)
}

// PluginZip returns a package with index.html and a manifest for windowID.
func PluginZip(t testing.TB, windowID string, extra ...Entry) []byte {
	t.Helper()

	entries := []Entry{
		{Name: "index.html", Body: "<html>" + windowID + "</html>"},
		{Name: "mhPlugin.json", Body: Manifest(windowID)},
	}
	return BuildZip(t, append(entries, extra...)...)
}

// WritePluginDir creates <root>/<dirName> with index.html and a manifest
// claiming manifestID. It returns the directory path.
func WritePluginDir(t testing.TB, root, dirName, manifestID string) string {
	t.Helper()

	dir := filepath.Join(root, dirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mhPlugin.json"), []byte(Manifest(manifestID)), 0o644))
	return dir
}

// ListFiles returns the slash-separated relative paths of every regular file under dir.
func ListFiles(t testing.TB, dir string) []string {
	t.Helper()

	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	return files
}
