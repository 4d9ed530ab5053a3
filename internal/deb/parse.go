package deb

import (
	"bytes"
	"fmt"
	"path"
	"strconv"

	"github.com/tarantool/mkrepo/internal/archive"
	"github.com/tarantool/mkrepo/internal/control"
	"github.com/tarantool/mkrepo/internal/hashutil"
)

// ParseDebBytes extracts and parses a .deb's control file and stamps it
// with the Filename/Size/FileTime/checksum fields the reconciler owns
//.
func ParseDebBytes(data []byte, storagePath string, fileTime float64) (*BinaryPackage, error) {
	controlBytes, err := archive.ExtractDebControl(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("deb: %w", err)
	}

	f, err := control.Parse(controlBytes, false)
	if err != nil {
		return nil, fmt.Errorf("deb: parsing control: %w", err)
	}

	sum := hashutil.Sum(data)
	f.Set("Filename", storagePath)
	f.Set("Size", strconv.FormatInt(sum.Size, 10))
	f.Set("FileTime", formatMtime(fileTime))
	f.Set("MD5Sum", sum.MD5)
	f.Set("SHA1", sum.SHA1)
	f.Set("SHA256", sum.SHA256)

	return &BinaryPackage{File: f}, nil
}

// ParseDscBytes parses a .dsc source descriptor, renaming its leading
// Source: field to Package:, appending Directory, and extending
// Files/Checksums-Sha1/Checksums-Sha256 with an entry for the .dsc itself.
// It stamps Filename/FileTime analogously to ParseDebBytes, so the
// reconciler's mtime diff recognizes an already-published source package
// and skips it on the next run instead of re-downloading it every time.
func ParseDscBytes(data []byte, storagePath string, fileTime float64) (*SourcePackage, error) {
	f, err := control.Parse(data, true)
	if err != nil {
		return nil, fmt.Errorf("dsc: parsing control: %w", err)
	}

	dir := path.Dir(storagePath)
	base := path.Base(storagePath)
	f.Set("Directory", dir)
	f.Set("Filename", storagePath)
	f.Set("FileTime", formatMtime(fileTime))

	sum := hashutil.Sum(data)
	f.Append("Files", fmt.Sprintf("%s %d %s", sum.MD5, sum.Size, base))
	f.Append("Checksums-Sha1", fmt.Sprintf("%s %d %s", sum.SHA1, sum.Size, base))
	f.Append("Checksums-Sha256", fmt.Sprintf("%s %d %s", sum.SHA256, sum.Size, base))

	return &SourcePackage{File: f}, nil
}

// formatMtime renders mtime as the string representation the diffing step
// compares: a float with enough precision to round-trip the values
// Storage.Mtime returns.
func formatMtime(mtime float64) string {
	return strconv.FormatFloat(mtime, 'f', -1, 64)
}
