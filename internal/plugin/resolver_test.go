package plugin

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

func TestResolverResolve(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	r := NewResolver(root)

	dir, err := r.Resolve("abc123")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "abc123"), dir)

	again, err := r.Resolve("abc123")
	require.NoError(t, err)
	require.Equal(t, dir, again)

	require.NoDirExists(t, dir, "resolve must not touch the filesystem")
}

func TestResolverRejectsTraversal(t *testing.T) {
	t.Parallel()

	r := NewResolver(t.TempDir())
	_, err := r.Resolve("../escape")
	require.ErrorIs(t, err, apperrors.ErrInvalidIdentifier)
}

func TestIndexURLUsesForwardSlashes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	url := IndexURL(filepath.Join(dir, "abc"))

	require.True(t, strings.HasSuffix(url, "/abc/index.html"), url)
	require.NotContains(t, url, `\`)
	require.True(t, filepath.IsAbs(filepath.FromSlash(url)))
}
