// Package archive validates and extracts plugin zip packages.
package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/alexisbeaulieu97/mhplugin/internal/plugin"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	// MaxExtractedSize caps the total decompressed size of one package.
	MaxExtractedSize int64 = 256 * 1024 * 1024
)

// Install checks that the archive carries every required plugin file and that
// no entry name is illegal, then extracts it under targetDir. Nothing is
// written when either check fails. Extraction still stops at the first entry
// whose resolved path would escape targetDir, or once the decompressed bytes
// exceed MaxExtractedSize; entries written before it are left in place.
func Install(r io.ReaderAt, size int64, targetDir string) error {
	return installWithLimit(r, size, targetDir, MaxExtractedSize)
}

func installWithLimit(r io.ReaderAt, size int64, targetDir string, limit int64) error {
	zr, err := open(r, size)
	if err != nil {
		return err
	}
	if err := checkRequired(zr.File); err != nil {
		return err
	}
	for _, f := range zr.File {
		if _, err := SanitizeEntryPath(f.Name); err != nil {
			return err
		}
	}
	if err := checkDeclaredSize(zr.File, limit); err != nil {
		return err
	}

	root, err := filepath.Abs(targetDir)
	if err != nil {
		return apperrors.Storage("extract archive", "resolve target directory", err)
	}
	budget := limit
	for _, f := range zr.File {
		if err := extractEntry(root, f, &budget); err != nil {
			return err
		}
	}
	return nil
}

// MissingRequired returns the required file names that no entry ends with.
func MissingRequired(names []string) []string {
	var missing []string
	for _, required := range plugin.RequiredFiles {
		found := false
		for _, name := range names {
			if strings.HasSuffix(name, required) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, required)
		}
	}
	return missing
}

func open(r io.ReaderAt, size int64) (*zip.Reader, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, apperrors.Validation("open archive", "invalid zip", err)
	}
	return zr, nil
}

func checkRequired(files []*zip.File) error {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	if missing := MissingRequired(names); len(missing) > 0 {
		return apperrors.Validation("validate archive",
			fmt.Sprintf("missing required files: %s", strings.Join(missing, ", ")), nil)
	}
	return nil
}

// checkDeclaredSize rejects archives whose headers already announce more than
// limit decompressed bytes.
func checkDeclaredSize(files []*zip.File, limit int64) error {
	var total uint64
	for _, f := range files {
		total += f.UncompressedSize64
		if total > uint64(limit) {
			return apperrors.Integrity("validate archive",
				fmt.Sprintf("decompressed size exceeds %d bytes", limit), nil)
		}
	}
	return nil
}

// extractEntry writes one entry and charges its bytes to budget. Headers can
// understate sizes, so the copy itself is bounded too.
func extractEntry(root string, f *zip.File, budget *int64) error {
	const op = "extract archive"

	dest, err := resolveEntry(root, f.Name)
	if err != nil {
		return err
	}

	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		if err := removeIfFile(dest); err != nil {
			return apperrors.Storage(op, "remove conflicting file", err)
		}
		if err := os.MkdirAll(dest, dirPerm); err != nil {
			return apperrors.Storage(op, "create directory", err)
		}
		return nil
	}

	parent := filepath.Dir(dest)
	if err := removeIfFile(parent); err != nil {
		return apperrors.Storage(op, "remove conflicting file", err)
	}
	if err := os.MkdirAll(parent, dirPerm); err != nil {
		return apperrors.Storage(op, "create directory", err)
	}
	if err := os.RemoveAll(dest); err != nil {
		return apperrors.Storage(op, "remove existing entry", err)
	}

	src, err := f.Open()
	if err != nil {
		return apperrors.Validation(op, fmt.Sprintf("read entry %s", f.Name), err)
	}
	defer src.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if err != nil {
		return apperrors.Storage(op, "create file", err)
	}
	written, err := io.Copy(out, io.LimitReader(src, *budget+1))
	if err != nil {
		_ = out.Close()
		return apperrors.Storage(op, fmt.Sprintf("write %s", f.Name), err)
	}
	if err := out.Close(); err != nil {
		return apperrors.Storage(op, fmt.Sprintf("write %s", f.Name), err)
	}
	if written > *budget {
		_ = os.Remove(dest)
		return apperrors.Integrity(op, fmt.Sprintf("%s exceeds the decompressed size budget", f.Name), nil)
	}
	*budget -= written
	return nil
}

func removeIfFile(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return os.Remove(path)
}
