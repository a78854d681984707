package download

import (
	"bytes"
	"fmt"

	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

// MaxPackageSize is the largest package accepted, remote or local.
const MaxPackageSize int64 = 15 * 1024 * 1024

// ZipMagic is the local file header signature every zip archive starts with.
var ZipMagic = []byte{'P', 'K', 0x03, 0x04}

// CheckPayload rejects oversized payloads and anything that does not start
// with the zip signature. head holds the leading bytes of the payload.
func CheckPayload(size int64, head []byte) error {
	return checkPayload(size, head, MaxPackageSize)
}

func checkPayload(size int64, head []byte, limit int64) error {
	const op = "check package"
	if size > limit {
		return apperrors.Integrity(op, fmt.Sprintf("package is %d bytes, limit is %d", size, limit), nil)
	}
	if len(head) < len(ZipMagic) {
		return apperrors.Integrity(op, "package is too small to be a zip archive", nil)
	}
	if !bytes.Equal(head[:len(ZipMagic)], ZipMagic) {
		return apperrors.Integrity(op, "package is not a zip archive", nil)
	}
	return nil
}
