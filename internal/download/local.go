package download

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

// LocalPackage is an open zip file on disk.
type LocalPackage struct {
	Path string
	Size int64
	file *os.File
}

// LoadLocal opens path after checking it exists, is a regular file, and has a
// .zip extension in any letter case.
func LoadLocal(path string) (*LocalPackage, error) {
	const op = "load local package"

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Validation(op, fmt.Sprintf("file %s does not exist", path), nil)
		}
		return nil, apperrors.Storage(op, "stat package", err)
	}
	if !info.Mode().IsRegular() {
		return nil, apperrors.Validation(op, fmt.Sprintf("%s is not a file", path), nil)
	}

	ext := filepath.Ext(path)
	if ext == "" {
		return nil, apperrors.Validation(op, fmt.Sprintf("%s has no file extension", path), nil)
	}
	if !strings.EqualFold(ext, ".zip") {
		return nil, apperrors.Validation(op, fmt.Sprintf("%s is not a .zip file", path), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Storage(op, "open package", err)
	}
	return &LocalPackage{Path: path, Size: info.Size(), file: file}, nil
}

// ReadAt implements io.ReaderAt.
func (p *LocalPackage) ReadAt(b []byte, off int64) (int, error) {
	return p.file.ReadAt(b, off)
}

// Check applies the payload guard, sniffing the first bytes from disk.
func (p *LocalPackage) Check(limit int64) error {
	if limit <= 0 {
		limit = MaxPackageSize
	}
	if p.Size > limit {
		return checkPayload(p.Size, nil, limit)
	}
	head := make([]byte, len(ZipMagic))
	n, err := p.file.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return apperrors.Storage("check package", "read package header", err)
	}
	return checkPayload(p.Size, head[:n], limit)
}

// Close releases the file handle.
func (p *LocalPackage) Close() error {
	if p == nil || p.file == nil {
		return nil
	}
	return p.file.Close()
}
