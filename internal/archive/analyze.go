package archive

import (
	"fmt"
	"io"
	"strings"

	"github.com/alexisbeaulieu97/mhplugin/internal/plugin"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

// manifestReadLimit caps how much of an embedded manifest is read.
const manifestReadLimit = 1 << 20

// Analyze reads the manifest from an archive without extracting anything.
func Analyze(r io.ReaderAt, size int64) (*plugin.PackageInfo, error) {
	const op = "analyze package"

	zr, err := open(r, size)
	if err != nil {
		return nil, err
	}

	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, plugin.ManifestFile) || f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, apperrors.Validation(op, fmt.Sprintf("read %s", f.Name), err)
		}
		data, err := io.ReadAll(io.LimitReader(rc, manifestReadLimit))
		_ = rc.Close()
		if err != nil {
			return nil, apperrors.Validation(op, fmt.Sprintf("read %s", f.Name), err)
		}

		manifest, err := plugin.ParseManifest(data)
		if err != nil {
			return nil, apperrors.Validation(op, "invalid manifest", err)
		}
		return &plugin.PackageInfo{
			Size:   size,
			Plugin: manifest.Summary(),
			Issues: manifest.Validate(),
		}, nil
	}

	return nil, apperrors.Validation(op, fmt.Sprintf("archive has no %s", plugin.ManifestFile), nil)
}
