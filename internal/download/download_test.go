package download

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

func zipLike(n int) []byte {
	body := make([]byte, n)
	copy(body, ZipMagic)
	return body
}

func TestCheckPayload(t *testing.T) {
	t.Parallel()

	require.NoError(t, CheckPayload(4, ZipMagic))

	err := CheckPayload(MaxPackageSize+1, ZipMagic)
	require.ErrorIs(t, err, apperrors.ErrIntegrity)

	err = CheckPayload(3, []byte("PK\x03"))
	require.ErrorIs(t, err, apperrors.ErrIntegrity)

	err = CheckPayload(15, []byte("<!DOCTYPE html>"))
	require.ErrorIs(t, err, apperrors.ErrIntegrity)
	assert.Contains(t, err.Error(), "not a zip archive")
}

func TestFetchRemoteSendsHeaders(t *testing.T) {
	t.Parallel()

	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write(zipLike(64))
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(NewHTTPClient(ClientOptions{UserAgent: "test-agent"}), 0)
	body, err := f.FetchRemote(context.Background(), srv.URL+"/pkg.zip")
	require.NoError(t, err)
	require.Len(t, body, 64)
	require.NoError(t, f.Check(body))
	assert.Equal(t, "test-agent", gotUA)
	assert.Equal(t, "*/*", gotAccept)
}

func TestFetchRemoteNonSuccessIsNetwork(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "package gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	_, err := NewFetcher(nil, 0).FetchRemote(context.Background(), srv.URL)
	require.ErrorIs(t, err, apperrors.ErrNetwork)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "package gone")
}

func TestFetchRemoteRejectsBadURL(t *testing.T) {
	t.Parallel()

	f := NewFetcher(nil, 0)
	for _, raw := range []string{"", "ftp://example.com/a.zip", "http://", "::nope"} {
		_, err := f.FetchRemote(context.Background(), raw)
		require.ErrorIs(t, err, apperrors.ErrValidation, raw)
	}
}

func TestFetchRemoteCapsBody(t *testing.T) {
	t.Parallel()

	const limit = 1024
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Flushing before the handler returns forces a chunked response.
		for i := 0; i < 8; i++ {
			_, _ = w.Write(zipLike(limit))
			w.(http.Flusher).Flush()
		}
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(nil, limit)
	body, err := f.FetchRemote(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, body, limit+1)
	require.ErrorIs(t, f.Check(body), apperrors.ErrIntegrity)
}

func TestFetchRemoteRejectsDeclaredOversize(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(zipLike(1500))
	}))
	t.Cleanup(srv.Close)

	_, err := NewFetcher(nil, 1024).FetchRemote(context.Background(), srv.URL)
	require.ErrorIs(t, err, apperrors.ErrIntegrity)
}

func TestFetchRemoteRedirectLimit(t *testing.T) {
	t.Parallel()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	t.Cleanup(srv.Close)

	_, err := NewFetcher(nil, 0).FetchRemote(context.Background(), srv.URL+"/")
	require.ErrorIs(t, err, apperrors.ErrNetwork)
	assert.Contains(t, err.Error(), "redirects")
}

func TestDesktopUserAgent(t *testing.T) {
	t.Parallel()

	assert.Contains(t, DesktopUserAgent("linux"), "X11; Linux x86_64")
	assert.Contains(t, DesktopUserAgent("darwin"), "Macintosh")
	assert.Contains(t, DesktopUserAgent("windows"), "Windows NT 10.0")
	assert.Equal(t, DesktopUserAgent("windows"), DesktopUserAgent("plan9"))
}

func TestLoadLocal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	good := filepath.Join(dir, "plugin.ZIP")
	require.NoError(t, os.WriteFile(good, zipLike(32), 0o600))
	pkg, err := LoadLocal(good)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkg.Close() })
	assert.Equal(t, int64(32), pkg.Size)
	require.NoError(t, pkg.Check(0))

	_, err = LoadLocal(filepath.Join(dir, "missing.zip"))
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = LoadLocal(dir)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	noExt := filepath.Join(dir, "plugin")
	require.NoError(t, os.WriteFile(noExt, zipLike(8), 0o600))
	_, err = LoadLocal(noExt)
	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "no file extension")

	tarball := filepath.Join(dir, "plugin.tar")
	require.NoError(t, os.WriteFile(tarball, zipLike(8), 0o600))
	_, err = LoadLocal(tarball)
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestLocalPackageCheckSniffsHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fake.zip")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("<html>", 4)), 0o600))

	pkg, err := LoadLocal(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkg.Close() })
	require.ErrorIs(t, pkg.Check(0), apperrors.ErrIntegrity)

	empty := filepath.Join(t.TempDir(), "empty.zip")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	pkg2, err := LoadLocal(empty)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkg2.Close() })
	require.ErrorIs(t, pkg2.Check(0), apperrors.ErrIntegrity)

	buf := make([]byte, 2)
	n, err := pkg.ReadAt(buf, 0)
	require.NoError(t, err)
	require.True(t, bytes.Equal([]byte("<h"), buf[:n]))
}
