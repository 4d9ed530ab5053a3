// Package archive extracts the control record embedded in a .deb package
//: locate the ar(5) member named control.tar*, decompress it,
// and pull out the ./control entry.
package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// ExtractDebControl returns the raw bytes of the ./control file embedded in
// the .deb at r. It does not trust the archive to contain exactly one
// control.tar* member or exactly one ./control entry inside it — it scans
// for the first of each.
func ExtractDebControl(r io.Reader) ([]byte, error) {
	reader := ar.NewReader(r)

	for {
		header, err := reader.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("archive: no control.tar member found in .deb")
		}
		if err != nil {
			return nil, fmt.Errorf("archive: reading ar member: %w", err)
		}

		name := strings.TrimRight(strings.TrimSpace(header.Name), "/")
		if !strings.HasPrefix(name, "control.tar") {
			continue
		}

		data := make([]byte, header.Size)
		if _, err := io.ReadFull(reader, data); err != nil {
			return nil, fmt.Errorf("archive: reading %s: %w", name, err)
		}

		return extractControlFromTar(data, name)
	}
}

func extractControlFromTar(data []byte, memberName string) ([]byte, error) {
	tarReader, closer, err := openTar(data, memberName)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer closer()
	}

	for {
		hdr, err := tarReader.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("archive: no ./control entry in %s", memberName)
		}
		if err != nil {
			return nil, fmt.Errorf("archive: reading %s: %w", memberName, err)
		}
		name := strings.TrimPrefix(hdr.Name, "./")
		if name == "control" {
			return io.ReadAll(tarReader)
		}
	}
}

func openTar(data []byte, memberName string) (*tar.Reader, func(), error) {
	switch {
	case strings.HasSuffix(memberName, ".tar.gz") || strings.HasSuffix(memberName, ".tar"):
		if strings.HasSuffix(memberName, ".gz") {
			gr, err := gzip.NewReader(bytes.NewReader(data))
			if err != nil {
				return nil, nil, fmt.Errorf("archive: gzip: %w", err)
			}
			return tar.NewReader(gr), func() { gr.Close() }, nil
		}
		return tar.NewReader(bytes.NewReader(data)), nil, nil
	case strings.HasSuffix(memberName, ".tar.xz"):
		xr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, nil, fmt.Errorf("archive: xz: %w", err)
		}
		return tar.NewReader(xr), nil, nil
	case strings.HasSuffix(memberName, ".tar.zst"):
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, nil, fmt.Errorf("archive: zstd: %w", err)
		}
		return tar.NewReader(zr), func() { zr.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("archive: unrecognized control member %q", memberName)
	}
}
